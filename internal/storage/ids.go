package storage

import (
	"context"
	"fmt"
	"sync"
)

// IDAllocator hands out ids for new records. A store without one lets the
// backend assign ids.
type IDAllocator interface {
	Next(ctx context.Context) (int, error)
}

// MaxIDFunc reports the highest id currently stored, or 0.
type MaxIDFunc func(ctx context.Context) (int, error)

// Sequence is an in-process counter seeded from the stored maximum on first
// use. It never reuses an id, including the id of a deleted newest record.
type Sequence struct {
	mu     sync.Mutex
	maxID  MaxIDFunc
	last   int
	seeded bool
}

func NewSequence(maxID MaxIDFunc) *Sequence {
	return &Sequence{maxID: maxID}
}

func (s *Sequence) Next(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seeded {
		m, err := s.maxID(ctx)
		if err != nil {
			return 0, fmt.Errorf("seed sequence: %w", err)
		}
		s.last = m
		s.seeded = true
	}
	s.last++
	return s.last, nil
}

// MaxPlusOne assigns the stored maximum plus one on every call. Deleting the
// newest record lets its id be handed out again.
type MaxPlusOne struct {
	maxID MaxIDFunc
}

func NewMaxPlusOne(maxID MaxIDFunc) *MaxPlusOne {
	return &MaxPlusOne{maxID: maxID}
}

func (m *MaxPlusOne) Next(ctx context.Context) (int, error) {
	n, err := m.maxID(ctx)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}
