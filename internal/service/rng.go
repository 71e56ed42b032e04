package service

import (
	"math/rand"
	"sync"
)

// NewLockedRand returns a seeded *rand.Rand backed by a mutex-guarded source.
// The services share one random stream, but sessions run concurrently under
// per-session locks, so the stream itself must be safe to draw from in
// parallel. math/rand's Rand is not; this wrapper is.
func NewLockedRand(seed int64) *rand.Rand {
	return rand.New(&lockedSource{src: rand.NewSource(seed).(rand.Source64)})
}

type lockedSource struct {
	mu  sync.Mutex
	src rand.Source64
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}
