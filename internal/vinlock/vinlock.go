// internal/vinlock/vinlock.go
package vinlock

import (
	"hash/fnv"
	"sync"
)

const shardCount = 64

// Locker serializes mutations per VIN. Callers must hold at most one
// VIN lock at a time; two VINs can share a shard.
type Locker struct {
	shards [shardCount]sync.Mutex
}

func New() *Locker {
	return &Locker{}
}

func (l *Locker) shard(vin string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(vin))
	return &l.shards[h.Sum32()%shardCount]
}

// Lock acquires the lock for a VIN and returns the matching unlock.
//
//	unlock := locker.Lock(vin)
//	defer unlock()
func (l *Locker) Lock(vin string) (unlock func()) {
	mu := l.shard(vin)
	mu.Lock()
	return mu.Unlock
}
