package storage

import (
	"context"
	"fmt"

	"github.com/gurkanbulca/taskboard/internal/errs"
	"github.com/gurkanbulca/taskboard/internal/schema"
)

// Entity is a logical record that can take a patch of type P.
type Entity[T any, P any] interface {
	EntityID() int
	WithEntityID(id int) T
	Apply(patch P) T
}

// Patch is a partial update; the zero patch changes nothing.
type Patch interface {
	IsZero() bool
}

// Store is the CRUD surface for one entity kind. It maps entities through a
// schema.Mapper and hands records to a Backend. Nothing is cached: every call
// reaches the backend.
type Store[T Entity[T, P], P Patch, R Record[R]] struct {
	kind    string
	backend Backend[R]
	mapper  schema.Mapper[T, R]
	ids     IDAllocator
}

// Option configures a Store.
type Option func(*options)

type options struct {
	ids IDAllocator
}

// WithIDs makes the store assign ids itself instead of leaving it to the
// backend.
func WithIDs(a IDAllocator) Option {
	return func(o *options) { o.ids = a }
}

func NewStore[T Entity[T, P], P Patch, R Record[R]](kind string, backend Backend[R], mapper schema.Mapper[T, R], opts ...Option) *Store[T, P, R] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T, P, R]{
		kind:    kind,
		backend: backend,
		mapper:  mapper,
		ids:     o.ids,
	}
}

// MaxID returns the highest stored id, or 0 for an empty collection.
func (s *Store[T, P, R]) MaxID(ctx context.Context) (int, error) {
	records, err := s.backend.List(ctx)
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, r := range records {
		if id := r.RecordID(); id > highest {
			highest = id
		}
	}
	return highest, nil
}

// GetAll returns every entity in storage order. An empty collection yields
// an empty, non-nil slice.
func (s *Store[T, P, R]) GetAll(ctx context.Context) ([]T, error) {
	records, err := s.backend.List(ctx)
	if err != nil {
		return nil, errs.Backend("list "+s.kind, err)
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		e, err := s.decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store[T, P, R]) GetByID(ctx context.Context, id int) (T, error) {
	var zero T
	r, err := s.backend.Get(ctx, id)
	if err != nil {
		return zero, errs.Backend("get "+s.kind, err)
	}
	return s.decode(r)
}

// Create stores e under a fresh id and returns the stored entity. Any id on
// e is ignored.
func (s *Store[T, P, R]) Create(ctx context.Context, e T) (T, error) {
	out := s.CreateMany(ctx, []T{e})
	return out[0].Item, out[0].Err
}

// CreateMany creates each entity and reports per-item outcomes in input
// order. With an IDAllocator the items are written one at a time so every
// allocation observes the previous insert.
func (s *Store[T, P, R]) CreateMany(ctx context.Context, items []T) []Outcome[T] {
	if len(items) == 0 {
		return []Outcome[T]{}
	}
	if s.ids != nil {
		out := make([]Outcome[T], len(items))
		for i, e := range items {
			id, err := s.ids.Next(ctx)
			if err != nil {
				out[i].Err = errs.Backend("allocate "+s.kind+" id", err)
				continue
			}
			res := s.insert(ctx, []T{e.WithEntityID(id)})
			out[i] = res[0]
		}
		return out
	}

	prepared := make([]T, len(items))
	for i, e := range items {
		prepared[i] = e.WithEntityID(0)
	}
	return s.insert(ctx, prepared)
}

func (s *Store[T, P, R]) insert(ctx context.Context, items []T) []Outcome[T] {
	records := make([]R, len(items))
	for i, e := range items {
		records[i] = s.mapper.ToStorage(e)
	}
	results := s.backend.Insert(ctx, records)
	out := make([]Outcome[T], len(items))
	for i := range items {
		if i >= len(results) {
			out[i].Err = errs.Backend("create "+s.kind, fmt.Errorf("no result for item %d", i))
			continue
		}
		if results[i].Err != nil {
			out[i].Err = errs.Backend("create "+s.kind, results[i].Err)
			continue
		}
		out[i].Item, out[i].Err = s.decode(results[i].Item)
	}
	return out
}

// Update merges patch into the stored entity. A zero patch returns the
// current entity without writing.
func (s *Store[T, P, R]) Update(ctx context.Context, id int, patch P) (T, error) {
	var zero T
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}
	if patch.IsZero() {
		return current, nil
	}

	next := current.Apply(patch).WithEntityID(id)
	results := s.backend.Update(ctx, []R{s.mapper.ToStorage(next)})
	if len(results) == 0 {
		return zero, errs.Backend("update "+s.kind, fmt.Errorf("no result"))
	}
	if results[0].Err != nil {
		return zero, errs.Backend("update "+s.kind, results[0].Err)
	}
	return s.decode(results[0].Item)
}

// Delete removes the entity and returns it as it was before removal.
func (s *Store[T, P, R]) Delete(ctx context.Context, id int) (T, error) {
	var zero T
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}
	results := s.backend.Delete(ctx, []int{id})
	if len(results) == 0 {
		return zero, errs.Backend("delete "+s.kind, fmt.Errorf("no result"))
	}
	if results[0].Err != nil {
		return zero, errs.Backend("delete "+s.kind, results[0].Err)
	}
	return current, nil
}

func (s *Store[T, P, R]) decode(r R) (T, error) {
	e, err := s.mapper.FromStorage(r)
	if err != nil {
		return e, errs.Backend("decode "+s.kind, err)
	}
	return e, nil
}
