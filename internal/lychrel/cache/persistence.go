package cache

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/riftlab/lychrel-hunter/internal/lychrel/domain"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/hunterrors"
)

// Save writes the local+snapshot union to path as a JSON object mapping
// decimal-string keys to ThreadInfo records, per spec.md §4.3/§6.
func (c *ThreadCache) Save(path string) error {
	c.mu.RLock()
	out := make(map[string]domain.ThreadInfo, c.snapshot.Len()+len(c.local))
	for k, v := range c.snapshot.data {
		out[k] = v
	}
	for k, v := range c.local {
		out[k] = v
	}
	c.mu.RUnlock()

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal thread cache: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write thread cache %s: %w", path, hunterrors.ErrIO)
	}
	return nil
}

// Load reads a cache file written by Save into a fresh ThreadCache's local
// plane (matching the checkpoint-resume contract: "load (2) into an empty
// cache"). A missing or malformed file is an error; callers decide whether
// to fall back to an empty cache.
func Load(path string, opts Options) (*ThreadCache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read thread cache %s: %w", path, hunterrors.ErrIO)
	}

	var entries map[string]domain.ThreadInfo
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse thread cache %s: %w", path, hunterrors.ErrParse)
	}

	c := New(opts)
	c.mu.Lock()
	for k, v := range entries {
		c.local[k] = v
	}
	c.mu.Unlock()
	return c, nil
}
