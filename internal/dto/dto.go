// Package dto holds the wire shapes shared by the gRPC and HTTP surfaces.
package dto

import (
	"time"

	"github.com/bytedance/sonic"

	"github.com/gurkanbulca/taskboard/internal/errs"
	"github.com/gurkanbulca/taskboard/internal/models"
	"github.com/gurkanbulca/taskboard/internal/service"
)

type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CategoryID  *int       `json:"categoryId"`
	Priority    string     `json:"priority"`
	DueDate     *string    `json:"dueDate"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	Overdue     bool       `json:"overdue"`
	DueToday    bool       `json:"dueToday"`
}

type Category struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
	TaskCount int    `json:"taskCount"`
}

type Board struct {
	Categories []Category `json:"categories"`
	Active     []Task     `json:"active"`
	Completed  []Task     `json:"completed"`
	Total      int        `json:"total"`
}

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type Failure struct {
	Index  int          `json:"index"`
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

type ImportResult struct {
	Created  []Task    `json:"created"`
	Failures []Failure `json:"failures"`
}

// ErrorBody is the HTTP error envelope.
type ErrorBody struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

// NewTask renders t, classifying its due date against now.
func NewTask(t models.Task, now time.Time) Task {
	out := Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		CategoryID:  t.CategoryID,
		Priority:    string(t.Priority),
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		Overdue:     t.IsOverdue(now),
		DueToday:    t.IsDueToday(now),
	}
	if t.DueDate != nil {
		d := t.DueDate.Format(models.DateLayout)
		out.DueDate = &d
	}
	return out
}

func NewTasks(tasks []models.Task, now time.Time) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, NewTask(t, now))
	}
	return out
}

func NewCategory(c models.CategoryWithCount) Category {
	return Category{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		Icon:      c.Icon,
		TaskCount: c.TaskCount,
	}
}

func NewCategories(categories []models.CategoryWithCount) []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, NewCategory(c))
	}
	return out
}

func NewBoard(b *service.Board, now time.Time) Board {
	return Board{
		Categories: NewCategories(b.Categories),
		Active:     NewTasks(b.Active, now),
		Completed:  NewTasks(b.Completed, now),
		Total:      b.Total,
	}
}

func NewImportResult(res *service.BatchResult, now time.Time) ImportResult {
	out := ImportResult{
		Created:  NewTasks(res.Created, now),
		Failures: make([]Failure, 0, len(res.Failures)),
	}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, Failure{
			Index:  f.Index,
			Error:  f.Err.Error(),
			Fields: FieldErrors(f.Err),
		})
	}
	return out
}

// FieldErrors lists the field-level failures carried by err.
func FieldErrors(err error) []FieldError {
	details := errs.ValidationDetails(err)
	if len(details) == 0 {
		return nil
	}
	out := make([]FieldError, 0, len(details))
	for _, d := range details {
		out = append(out, FieldError{Field: d.Field, Reason: d.Reason})
	}
	return out
}

// ToMap converts v into the generic JSON object form.
func ToMap(v any) (map[string]any, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := sonic.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
