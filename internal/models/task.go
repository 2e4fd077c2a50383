package models

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the urgency of a task.
type Priority string

// Priority constants
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultPriority is substituted when no priority is supplied.
const DefaultPriority = PriorityMedium

// Priorities lists every valid priority, lowest first.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority normalises s. An empty string yields the default.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultPriority, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority %q", s)
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Status is the completion state used by filters.
type Status string

// Status constants
const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// ParseStatus normalises s into a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusActive, StatusCompleted:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// DateLayout is the storage and wire format of due dates.
const DateLayout = "2006-01-02"

type Task struct {
	ID          int
	Title       string
	Description string
	CategoryID  *int
	Priority    Priority
	DueDate     *time.Time
	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// TaskPatch carries the fields supplied for a create or a partial update.
// Nil pointers are left untouched; the Clear flags write an explicit null.
type TaskPatch struct {
	Title       *string
	Description *string
	CategoryID  *int
	Priority    *Priority
	DueDate     *time.Time
	Completed   *bool
	CompletedAt *time.Time
	CreatedAt   *time.Time

	ClearCategory    bool
	ClearDueDate     bool
	ClearCompletedAt bool
}

// IsZero reports whether the patch supplies nothing.
func (p TaskPatch) IsZero() bool {
	return p == TaskPatch{}
}

func (t Task) EntityID() int { return t.ID }

func (t Task) WithEntityID(id int) Task {
	t.ID = id
	return t
}

// Apply merges p onto a copy of t.
func (t Task) Apply(p TaskPatch) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.ClearCategory {
		t.CategoryID = nil
	} else if p.CategoryID != nil {
		t.CategoryID = IntPtr(*p.CategoryID)
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		t.DueDate = TimePtr(*p.DueDate)
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.ClearCompletedAt {
		t.CompletedAt = nil
	} else if p.CompletedAt != nil {
		t.CompletedAt = TimePtr(*p.CompletedAt)
	}
	if p.CreatedAt != nil {
		t.CreatedAt = *p.CreatedAt
	}
	return t
}

// InCategory reports whether the task references category id.
func (t Task) InCategory(id int) bool {
	return t.CategoryID != nil && *t.CategoryID == id
}

// IsOverdue reports whether an open task's due date lies before today.
func (t Task) IsOverdue(now time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(Today(now))
}

// IsDueToday reports whether the due date falls on now's calendar day.
func (t Task) IsDueToday(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	return t.DueDate.Format(DateLayout) == now.UTC().Format(DateLayout)
}

// Today truncates now to midnight UTC.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts a bare date or an RFC3339 timestamp and keeps only the day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return Today(ts), nil
}

func IntPtr(i int) *int { return &i }

func TimePtr(t time.Time) *time.Time { return &t }

func StringPtr(s string) *string { return &s }

func BoolPtr(b bool) *bool { return &b }
