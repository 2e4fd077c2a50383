// Package schema translates logical task and category records to and from
// the storage shapes the backends speak.
package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/gurkanbulca/taskboard/internal/models"
)

// Shape names a family of storage records.
type Shape string

const (
	// ShapeLocal uses the logical field names (title, categoryId, ...).
	ShapeLocal Shape = "local"
	// ShapeRemote uses suffixed custom-field names (title_c, category_id_c, ...).
	ShapeRemote Shape = "remote"
)

// Mapper converts one entity kind between its logical form T and a storage
// record R. FromStorage substitutes defaults for absent fields and fails only
// on values no default can repair.
type Mapper[T any, R any] interface {
	ToStorage(T) R
	FromStorage(R) (T, error)
}

// Table names shared by every backend.
const (
	TasksTable      = "tasks"
	CategoriesTable = "categories"
)

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(field string, s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, strings.TrimSpace(*s))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid timestamp %q", field, *s)
	}
	t = t.UTC()
	return &t, nil
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(models.DateLayout)
	return &s
}

func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	d, err := models.ParseDate(*s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &d, nil
}

func parsePriority(field string, s *string) (models.Priority, error) {
	if s == nil {
		return models.DefaultPriority, nil
	}
	p, err := models.ParsePriority(*s)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return p, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func ptr[T any](v T) *T { return &v }
