// Package redisstore keeps local-shape records as JSON values in a Redis
// hash keyed by record id.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/gurkanbulca/taskboard/internal/errs"
	"github.com/gurkanbulca/taskboard/internal/schema"
	"github.com/gurkanbulca/taskboard/internal/storage"
)

// Backend stores every record of one kind under a single hash. Records
// inserted without an id get one from a Sequence kept next to the hash.
type Backend[R storage.Record[R]] struct {
	kind  string
	key   string
	redis redis.Cmdable
	seq   *Sequence
}

var _ storage.Backend[schema.LocalCategory] = (*Backend[schema.LocalCategory])(nil)

// New returns a backend storing records under "<prefix>:<kind>".
func New[R storage.Record[R]](client redis.Cmdable, prefix, kind string) *Backend[R] {
	b := &Backend[R]{
		kind:  kind,
		key:   HashKey(prefix, kind),
		redis: client,
	}
	b.seq = NewSequence(client, SequenceKey(prefix, kind), b.maxID)
	return b
}

// HashKey is the hash holding records of kind.
func HashKey(prefix, kind string) string {
	if prefix == "" {
		return kind
	}
	return prefix + ":" + kind
}

// SequenceKey is the counter used for ids of kind.
func SequenceKey(prefix, kind string) string {
	return HashKey(prefix, kind) + ":seq"
}

func (b *Backend[R]) maxID(ctx context.Context) (int, error) {
	fields, err := b.redis.HKeys(ctx, b.key).Result()
	if err != nil {
		return 0, errs.Backend("scan "+b.kind+" ids", err)
	}
	highest := 0
	for _, f := range fields {
		if id, err := strconv.Atoi(f); err == nil && id > highest {
			highest = id
		}
	}
	return highest, nil
}

func (b *Backend[R]) decode(raw string) (R, error) {
	var r R
	if err := sonic.UnmarshalString(raw, &r); err != nil {
		return r, fmt.Errorf("decode %s: %w", b.kind, err)
	}
	return r, nil
}

func (b *Backend[R]) List(ctx context.Context) ([]R, error) {
	values, err := b.redis.HGetAll(ctx, b.key).Result()
	if err != nil {
		return nil, errs.Backend("list "+b.kind, err)
	}
	out := make([]R, 0, len(values))
	for _, raw := range values {
		r, err := b.decode(raw)
		if err != nil {
			return nil, errs.Backend("list "+b.kind, err)
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID() < out[j].RecordID() })
	return out, nil
}

func (b *Backend[R]) Get(ctx context.Context, id int) (R, error) {
	var zero R
	raw, err := b.redis.HGet(ctx, b.key, strconv.Itoa(id)).Result()
	if errors.Is(err, redis.Nil) {
		return zero, errs.NotFound(b.kind, id)
	}
	if err != nil {
		return zero, errs.Backend("get "+b.kind, err)
	}
	r, err := b.decode(raw)
	if err != nil {
		return zero, errs.Backend("get "+b.kind, err)
	}
	return r, nil
}

func (b *Backend[R]) Insert(ctx context.Context, records []R) []storage.Outcome[R] {
	out := make([]storage.Outcome[R], len(records))
	for i, r := range records {
		if r.RecordID() == 0 {
			id, err := b.seq.Next(ctx)
			if err != nil {
				out[i].Err = err
				continue
			}
			r = r.WithRecordID(id)
		}
		data, err := sonic.MarshalString(r)
		if err != nil {
			out[i].Err = err
			continue
		}
		added, err := b.redis.HSetNX(ctx, b.key, strconv.Itoa(r.RecordID()), data).Result()
		if err != nil {
			out[i].Err = errs.Backend("insert "+b.kind, err)
			continue
		}
		if !added {
			out[i].Err = fmt.Errorf("%s %d already exists", b.kind, r.RecordID())
			continue
		}
		out[i].Item = r
	}
	return out
}

func (b *Backend[R]) Update(ctx context.Context, records []R) []storage.Outcome[R] {
	out := make([]storage.Outcome[R], len(records))
	for i, r := range records {
		field := strconv.Itoa(r.RecordID())
		exists, err := b.redis.HExists(ctx, b.key, field).Result()
		if err != nil {
			out[i].Err = errs.Backend("update "+b.kind, err)
			continue
		}
		if !exists {
			out[i].Err = errs.NotFound(b.kind, r.RecordID())
			continue
		}
		data, err := sonic.MarshalString(r)
		if err != nil {
			out[i].Err = err
			continue
		}
		if err := b.redis.HSet(ctx, b.key, field, data).Err(); err != nil {
			out[i].Err = errs.Backend("update "+b.kind, err)
			continue
		}
		out[i].Item = r
	}
	return out
}

func (b *Backend[R]) Delete(ctx context.Context, ids []int) []storage.Outcome[int] {
	out := make([]storage.Outcome[int], len(ids))
	for i, id := range ids {
		n, err := b.redis.HDel(ctx, b.key, strconv.Itoa(id)).Result()
		if err != nil {
			out[i].Err = errs.Backend("delete "+b.kind, err)
			continue
		}
		if n == 0 {
			out[i].Err = errs.NotFound(b.kind, id)
			continue
		}
		out[i].Item = id
	}
	return out
}
