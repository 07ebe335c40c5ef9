package sync

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "termyx/pkg/domain"
)

func TestRowLocksZeroKeyUsesFirstShard(t *testing.T) {
	assert.Equal(t, 0, shardFor(id.UserID{}))

	m := NewRowLocks[id.UserID]()
	m.Lock(id.UserID{})
	m.Unlock(id.UserID{})
}

func TestRowLocksSameRowSerializes(t *testing.T) {
	m := NewRowLocks[id.UserID]()
	row := id.UserID(uuid.New())
	balance := 0

	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			m.Lock(row)
			defer m.Unlock(row)
			balance++
		})
	}
	wg.Wait()
	assert.Equal(t, 100, balance)
}

func TestRowLocksDistinctRowsProceed(t *testing.T) {
	m := NewRowLocks[id.DocumentID]()
	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			doc := id.NewDocumentID()
			m.Lock(doc)
			defer m.Unlock(doc)
		})
	}
	wg.Wait()
}

func TestRowLocksWithLockReturnsError(t *testing.T) {
	m := NewRowLocks[id.UserID]()
	sentinel := errors.New("insufficient credits")
	assert.ErrorIs(t, m.WithLock(id.UserID(uuid.New()), func() error { return sentinel }), sentinel)
}

func TestRowLocksSpreadAcrossShards(t *testing.T) {
	seen := map[int]bool{}
	for range 500 {
		seen[shardFor(id.UserID(uuid.New()))] = true
	}
	assert.Greater(t, len(seen), shardCount/2)
}
