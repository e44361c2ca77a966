package cache

import "github.com/riftlab/lychrel-hunter/internal/lychrel/domain"

// SharedView is a cheap, immutable, reference-shareable snapshot of a
// ThreadCache's contents at a batch boundary. Once produced it is never
// mutated; further writes to the producing cache start a fresh local
// plane and never touch the view's backing map. Readers may share one
// SharedView across goroutines without synchronization.
type SharedView struct {
	data map[string]domain.ThreadInfo
}

// Lookup consults the snapshot for key. Never blocks, never mutates.
func (v *SharedView) Lookup(key string) (domain.ThreadInfo, bool) {
	if v == nil {
		return domain.ThreadInfo{}, false
	}
	info, ok := v.data[key]
	return info, ok
}

// Len returns the number of entries captured in the snapshot.
func (v *SharedView) Len() int {
	if v == nil {
		return 0
	}
	return len(v.data)
}

// emptyView is the initial snapshot plane of every new ThreadCache, so the
// snapshot plane is never nil. It is never mutated.
var emptyView = &SharedView{data: map[string]domain.ThreadInfo{}}
