package sync

import (
	"sync"
)

const shardCount = 32

// RowLocks serializes mutations of a single row while letting rows that hash
// to different shards proceed in parallel. Keys are 16-byte identifiers such
// as the uuid-backed ids in pkg/domain.
type RowLocks[K ~[16]byte] struct {
	shards [shardCount]sync.Mutex
}

func NewRowLocks[K ~[16]byte]() *RowLocks[K] {
	return &RowLocks[K]{}
}

func (m *RowLocks[K]) Lock(key K) {
	m.shards[shardFor(key)].Lock()
}

func (m *RowLocks[K]) Unlock(key K) {
	m.shards[shardFor(key)].Unlock()
}

// WithLock runs fn while holding the row's shard.
func (m *RowLocks[K]) WithLock(key K, fn func() error) error {
	m.Lock(key)
	defer m.Unlock(key)
	return fn()
}

// shardFor hashes the key with FNV-1a. The zero key lands on shard 0.
func shardFor[K ~[16]byte](key K) int {
	if key == (K{}) {
		return 0
	}
	h := uint32(2166136261)
	for _, b := range key {
		h ^= uint32(b)
		h *= 16777619
	}
	return int(h % shardCount)
}
