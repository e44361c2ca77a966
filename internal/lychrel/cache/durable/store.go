// Package durable implements a bbolt-backed persistent tier for "important"
// ThreadCache entries (max_iterations_tested >= 200), consulted at hunter
// startup and refreshed after every checkpoint. It exists alongside, not
// instead of, the JSON checkpoint-companion cache file: the JSON file is the
// portable, human-inspectable export spec.md §4.3/§6 mandates; this store
// is an operational optimization so a long-running hunter doesn't have to
// re-parse a multi-gigabyte JSON file just to recover its highest-value
// threads after a restart.
package durable

import (
	"encoding/binary"
	"errors"
	"time"

	bbolt "go.etcd.io/bbolt"
	bberrors "go.etcd.io/bbolt/errors"

	"github.com/riftlab/lychrel-hunter/internal/lychrel/domain"
)

var (
	bucketThreads = []byte("threads")
	bucketMeta    = []byte("meta")
)

// bucketCreator is the minimal contract needed for creating buckets; lets
// tests substitute a fake to exercise error paths.
type bucketCreator interface {
	CreateBucketIfNotExists(name []byte) (*bbolt.Bucket, error)
}

// Store implements a versioned persistent tier for important thread
// entries, keyed by decimal-string seed. Each Upsert adds or replaces
// entries in one write transaction; entries are never removed except by
// Purge.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) a bolt database at path and ensures buckets exist.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error { return ensureBucketsFn(tx) }); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Upsert writes or replaces entries for the given threads, keyed by Seed,
// in a single write transaction.
func (s *Store) Upsert(entries []domain.ThreadInfo, version uint64, updatedUnix int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketThreads)
		for _, e := range entries {
			val, err := encodeThreadInfo(e)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(e.Seed), val); err != nil {
				return err
			}
		}
		return writeMeta(tx, version, updatedUnix)
	})
}

// LoadAll reads every entry currently stored.
func (s *Store) LoadAll() ([]domain.ThreadInfo, error) {
	var out []domain.ThreadInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketThreads)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			info, err := decodeThreadInfo(string(k), v)
			if err != nil {
				return err
			}
			out = append(out, info)
			return nil
		})
	})
	return out, err
}

// Version returns the last version written via Upsert, or 0 if never set.
func (s *Store) Version() (uint64, error) {
	var version uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		mb := tx.Bucket(bucketMeta)
		if mb == nil {
			return nil
		}
		if v := mb.Get([]byte("version")); len(v) == 8 {
			version = binary.BigEndian.Uint64(v)
		}
		return nil
	})
	return version, err
}

// Purge clears all stored entries.
func (s *Store) Purge() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := deleteBucketsFn(tx, bucketThreads, bucketMeta); err != nil {
			return err
		}
		return ensureBucketsFn(tx)
	})
}

// encodeThreadInfo serializes a ThreadInfo as:
// [reached:1][maxIterTested:4be][iterFromSeed:4be][finalDigits:4be][hasPalAt:1][palAt:4be][source:1]
func encodeThreadInfo(e domain.ThreadInfo) ([]byte, error) {
	buf := make([]byte, 1+4+4+4+1+4+1)
	if e.ReachedPalindrome {
		buf[0] = 1
	}
	binary.BigEndian.PutUint32(buf[1:5], e.MaxIterationsTested)
	binary.BigEndian.PutUint32(buf[5:9], e.IterationsFromSeed)
	// #nosec G115 -- final digit counts are small positive values in practice
	binary.BigEndian.PutUint32(buf[9:13], uint32(e.FinalDigits))
	if e.PalindromeAtIteration != nil {
		buf[13] = 1
		binary.BigEndian.PutUint32(buf[14:18], *e.PalindromeAtIteration)
	}
	if e.Source == domain.SourceWarmup {
		buf[18] = 1
	}
	return buf, nil
}

func decodeThreadInfo(seed string, v []byte) (domain.ThreadInfo, error) {
	if len(v) < 19 {
		return domain.ThreadInfo{}, errors.New("durable: malformed thread record")
	}
	source := domain.SourceSeed
	if v[18] == 1 {
		source = domain.SourceWarmup
	}
	info := domain.ThreadInfo{
		Seed:                seed,
		ReachedPalindrome:   v[0] == 1,
		MaxIterationsTested: binary.BigEndian.Uint32(v[1:5]),
		IterationsFromSeed:  binary.BigEndian.Uint32(v[5:9]),
		FinalDigits:         int(binary.BigEndian.Uint32(v[9:13])),
		Source:              source,
	}
	if v[13] == 1 {
		remaining := binary.BigEndian.Uint32(v[14:18])
		info.PalindromeAtIteration = &remaining
	}
	return info, nil
}

var ensureBucketsFn = ensureBuckets

func ensureBuckets(tx bucketCreator) error {
	if _, err := tx.CreateBucketIfNotExists(bucketThreads); err != nil {
		return err
	}
	if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
		return err
	}
	return nil
}

var deleteBucketsFn = deleteBuckets

func deleteBuckets(tx *bbolt.Tx, names ...[]byte) error {
	for _, n := range names {
		if err := tx.DeleteBucket(n); err != nil {
			if errors.Is(err, bberrors.ErrBucketNotFound) {
				continue
			}
			return err
		}
	}
	return nil
}

func writeMeta(tx *bbolt.Tx, version uint64, updatedUnix int64) error {
	mb := tx.Bucket(bucketMeta)
	vbuf := make([]byte, 8)
	ubuf := make([]byte, 8)
	binary.BigEndian.PutUint64(vbuf, version)
	if updatedUnix < 0 {
		binary.BigEndian.PutUint64(ubuf, 0)
	} else {
		// #nosec G115 -- updatedUnix is checked non-negative above
		binary.BigEndian.PutUint64(ubuf, uint64(updatedUnix))
	}
	if err := mb.Put([]byte("version"), vbuf); err != nil {
		return err
	}
	return mb.Put([]byte("updated"), ubuf)
}
