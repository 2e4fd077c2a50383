package redisstore

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/gurkanbulca/taskboard/internal/errs"
	"github.com/gurkanbulca/taskboard/internal/storage"
)

// Sequence allocates ids with INCR so several processes sharing one Redis
// never hand out the same id. The counter is seeded once from the stored
// maximum when the key does not exist yet.
type Sequence struct {
	redis redis.Cmdable
	key   string
	maxID storage.MaxIDFunc

	mu     sync.Mutex
	seeded bool
}

var _ storage.IDAllocator = (*Sequence)(nil)

func NewSequence(client redis.Cmdable, key string, maxID storage.MaxIDFunc) *Sequence {
	return &Sequence{redis: client, key: key, maxID: maxID}
}

func (s *Sequence) seed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded {
		return nil
	}
	n, err := s.redis.Exists(ctx, s.key).Result()
	if err != nil {
		return errs.Backend("seed sequence", err)
	}
	if n == 0 && s.maxID != nil {
		highest, err := s.maxID(ctx)
		if err != nil {
			return err
		}
		if err := s.redis.SetNX(ctx, s.key, highest, 0).Err(); err != nil {
			return errs.Backend("seed sequence", err)
		}
	}
	s.seeded = true
	return nil
}

func (s *Sequence) Next(ctx context.Context) (int, error) {
	if err := s.seed(ctx); err != nil {
		return 0, err
	}
	id, err := s.redis.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, errs.Backend("next id", err)
	}
	return int(id), nil
}
