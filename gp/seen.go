package gp

import (
	"sync"
	"sync/atomic"
)

const numShards = 64 // power of 2

// seenSet counts distinct printed trees scored during a run. Sharding keeps
// async fitness workers from contending on one mutex.
type seenSet struct {
	shards [numShards]struct {
		mu    sync.Mutex
		items map[string]struct{}
	}
	size atomic.Int64
}

func newSeenSet() *seenSet {
	s := &seenSet{}
	for i := 0; i < numShards; i++ {
		s.shards[i].items = make(map[string]struct{}, 64)
	}
	return s
}

// fnv1aHash implements FNV-1a hash - very fast, good distribution
func fnv1aHash(s string) uint32 {
	hash := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// CheckAndSet records key. Returns false if it was already present.
func (s *seenSet) CheckAndSet(key string) bool {
	shard := &s.shards[fnv1aHash(key)&(numShards-1)]
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if _, ok := shard.items[key]; ok {
		return false
	}
	shard.items[key] = struct{}{}
	s.size.Add(1)
	return true
}

func (s *seenSet) Len() int64 { return s.size.Load() }
