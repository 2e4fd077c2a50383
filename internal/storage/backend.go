// Package storage holds the generic entity store and the contract its
// backends implement.
package storage

import "context"

// Record is a storage-shaped row that knows its own id.
type Record[R any] interface {
	RecordID() int
	WithRecordID(id int) R
}

// Outcome is the per-item result of a batched write.
type Outcome[V any] struct {
	Item V
	Err  error
}

// Backend persists records of one kind. Writes are batched and report one
// Outcome per input, in input order, so a partially failed batch is visible
// item by item. Get, Update and Delete report a missing id as
// *errs.NotFoundError; I/O failures come back as *errs.BackendError.
//
// Insert honours a non-zero record id and assigns one otherwise.
type Backend[R any] interface {
	List(ctx context.Context) ([]R, error)
	Get(ctx context.Context, id int) (R, error)
	Insert(ctx context.Context, records []R) []Outcome[R]
	Update(ctx context.Context, records []R) []Outcome[R]
	Delete(ctx context.Context, ids []int) []Outcome[int]
}

// FailAll returns one failed outcome per item.
func FailAll[V any](n int, err error) []Outcome[V] {
	out := make([]Outcome[V], n)
	for i := range out {
		out[i].Err = err
	}
	return out
}
