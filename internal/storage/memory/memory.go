// Package memory is an in-process storage backend for local-shape records.
// Every operation waits a fixed latency before touching the data, the way a
// slow local store would.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gurkanbulca/taskboard/internal/errs"
	"github.com/gurkanbulca/taskboard/internal/schema"
	"github.com/gurkanbulca/taskboard/internal/storage"
)

type Backend[R storage.Record[R]] struct {
	kind    string
	latency time.Duration

	mu      sync.Mutex
	records []R
	lastID  int
}

var _ storage.Backend[schema.LocalTask] = (*Backend[schema.LocalTask])(nil)

type Option[R storage.Record[R]] func(*Backend[R])

// WithLatency sets the delay applied before every operation. The wait is
// not cut short by context cancellation.
func WithLatency[R storage.Record[R]](d time.Duration) Option[R] {
	return func(b *Backend[R]) { b.latency = d }
}

// WithRecords preloads the backend.
func WithRecords[R storage.Record[R]](records ...R) Option[R] {
	return func(b *Backend[R]) {
		for _, r := range records {
			b.records = append(b.records, r)
			if r.RecordID() > b.lastID {
				b.lastID = r.RecordID()
			}
		}
	}
}

func New[R storage.Record[R]](kind string, opts ...Option[R]) *Backend[R] {
	b := &Backend[R]{kind: kind}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend[R]) wait() {
	if b.latency > 0 {
		time.Sleep(b.latency)
	}
}

func (b *Backend[R]) indexOf(id int) int {
	for i, r := range b.records {
		if r.RecordID() == id {
			return i
		}
	}
	return -1
}

func (b *Backend[R]) List(ctx context.Context) ([]R, error) {
	b.wait()
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]R, len(b.records))
	copy(out, b.records)
	return out, nil
}

func (b *Backend[R]) Get(ctx context.Context, id int) (R, error) {
	b.wait()
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero R
	i := b.indexOf(id)
	if i < 0 {
		return zero, errs.NotFound(b.kind, id)
	}
	return b.records[i], nil
}

func (b *Backend[R]) Insert(ctx context.Context, records []R) []storage.Outcome[R] {
	b.wait()
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]storage.Outcome[R], len(records))
	for i, r := range records {
		id := r.RecordID()
		if id == 0 {
			b.lastID++
			id = b.lastID
			r = r.WithRecordID(id)
		} else if b.indexOf(id) >= 0 {
			out[i].Err = fmt.Errorf("%s %d already exists", b.kind, id)
			continue
		}
		if id > b.lastID {
			b.lastID = id
		}
		b.records = append(b.records, r)
		out[i].Item = r
	}
	return out
}

func (b *Backend[R]) Update(ctx context.Context, records []R) []storage.Outcome[R] {
	b.wait()
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]storage.Outcome[R], len(records))
	for i, r := range records {
		idx := b.indexOf(r.RecordID())
		if idx < 0 {
			out[i].Err = errs.NotFound(b.kind, r.RecordID())
			continue
		}
		b.records[idx] = r
		out[i].Item = r
	}
	return out
}

func (b *Backend[R]) Delete(ctx context.Context, ids []int) []storage.Outcome[int] {
	b.wait()
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]storage.Outcome[int], len(ids))
	for i, id := range ids {
		idx := b.indexOf(id)
		if idx < 0 {
			out[i].Err = errs.NotFound(b.kind, id)
			continue
		}
		b.records = append(b.records[:idx], b.records[idx+1:]...)
		out[i].Item = id
	}
	return out
}
