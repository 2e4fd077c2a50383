package schema

import (
	"fmt"

	"github.com/gurkanbulca/taskboard/internal/models"
)

// LocalTask is a task in the flat local shape; field names equal the
// logical names.
type LocalTask struct {
	ID          int     `json:"Id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	CategoryID  Ref     `json:"categoryId"`
	Priority    *string `json:"priority,omitempty"`
	DueDate     *string `json:"dueDate"`
	Completed   *bool   `json:"completed,omitempty"`
	CompletedAt *string `json:"completedAt"`
	CreatedAt   *string `json:"createdAt,omitempty"`
}

func (r LocalTask) RecordID() int { return r.ID }

func (r LocalTask) WithRecordID(id int) LocalTask {
	r.ID = id
	return r
}

// RemoteTask is a task in the remote shape. The db tags match the SQL table
// columns, which mirror the remote field names.
type RemoteTask struct {
	ID          int     `json:"Id" db:"Id"`
	Title       string  `json:"title_c" db:"title_c"`
	Description *string `json:"description_c,omitempty" db:"description_c"`
	CategoryID  Ref     `json:"category_id_c" db:"category_id_c"`
	Priority    *string `json:"priority_c,omitempty" db:"priority_c"`
	DueDate     *string `json:"due_date_c" db:"due_date_c"`
	Completed   *bool   `json:"completed_c,omitempty" db:"completed_c"`
	CompletedAt *string `json:"completed_at_c" db:"completed_at_c"`
	CreatedAt   *string `json:"created_at_c,omitempty" db:"created_at_c"`
}

func (r RemoteTask) RecordID() int { return r.ID }

func (r RemoteTask) WithRecordID(id int) RemoteTask {
	r.ID = id
	return r
}

// taskFields is the shape-independent intermediate both task mappers share.
type taskFields struct {
	id          int
	title       string
	description *string
	category    Ref
	priority    *string
	dueDate     *string
	completed   *bool
	completedAt *string
	createdAt   *string
}

func taskToFields(t models.Task) taskFields {
	f := taskFields{
		id:          t.ID,
		title:       t.Title,
		description: ptr(t.Description),
		category:    RefOf(t.CategoryID),
		priority:    ptr(string(t.Priority)),
		dueDate:     formatDatePtr(t.DueDate),
		completed:   ptr(t.Completed),
		completedAt: formatTimePtr(t.CompletedAt),
	}
	if t.Priority == "" {
		f.priority = ptr(string(models.DefaultPriority))
	}
	if !t.CreatedAt.IsZero() {
		f.createdAt = ptr(formatTime(t.CreatedAt))
	}
	return f
}

func taskFromFields(f taskFields, names [4]string) (models.Task, error) {
	t := models.Task{
		ID:          f.id,
		Title:       f.title,
		Description: deref(f.description),
		CategoryID:  f.category.Ptr(),
		Completed:   deref(f.completed),
	}
	var err error
	if t.Priority, err = parsePriority(names[0], f.priority); err != nil {
		return models.Task{}, fmt.Errorf("task %d: %w", f.id, err)
	}
	if t.DueDate, err = parseDate(names[1], f.dueDate); err != nil {
		return models.Task{}, fmt.Errorf("task %d: %w", f.id, err)
	}
	if t.Completed {
		if t.CompletedAt, err = parseTime(names[2], f.completedAt); err != nil {
			return models.Task{}, fmt.Errorf("task %d: %w", f.id, err)
		}
	}
	created, err := parseTime(names[3], f.createdAt)
	if err != nil {
		return models.Task{}, fmt.Errorf("task %d: %w", f.id, err)
	}
	if created != nil {
		t.CreatedAt = *created
	}
	return t, nil
}

// LocalTaskMapper maps tasks to LocalTask records.
type LocalTaskMapper struct{}

func (LocalTaskMapper) Shape() Shape { return ShapeLocal }

var _ Mapper[models.Task, LocalTask] = LocalTaskMapper{}

func (LocalTaskMapper) ToStorage(t models.Task) LocalTask {
	f := taskToFields(t)
	return LocalTask{
		ID:          f.id,
		Title:       f.title,
		Description: f.description,
		CategoryID:  f.category,
		Priority:    f.priority,
		DueDate:     f.dueDate,
		Completed:   f.completed,
		CompletedAt: f.completedAt,
		CreatedAt:   f.createdAt,
	}
}

func (LocalTaskMapper) FromStorage(r LocalTask) (models.Task, error) {
	return taskFromFields(taskFields{
		id:          r.ID,
		title:       r.Title,
		description: r.Description,
		category:    r.CategoryID,
		priority:    r.Priority,
		dueDate:     r.DueDate,
		completed:   r.Completed,
		completedAt: r.CompletedAt,
		createdAt:   r.CreatedAt,
	}, [4]string{"priority", "dueDate", "completedAt", "createdAt"})
}

// RemoteTaskMapper maps tasks to RemoteTask records.
type RemoteTaskMapper struct{}

func (RemoteTaskMapper) Shape() Shape { return ShapeRemote }

var _ Mapper[models.Task, RemoteTask] = RemoteTaskMapper{}

func (RemoteTaskMapper) ToStorage(t models.Task) RemoteTask {
	f := taskToFields(t)
	return RemoteTask{
		ID:          f.id,
		Title:       f.title,
		Description: f.description,
		CategoryID:  f.category,
		Priority:    f.priority,
		DueDate:     f.dueDate,
		Completed:   f.completed,
		CompletedAt: f.completedAt,
		CreatedAt:   f.createdAt,
	}
}

func (RemoteTaskMapper) FromStorage(r RemoteTask) (models.Task, error) {
	return taskFromFields(taskFields{
		id:          r.ID,
		title:       r.Title,
		description: r.Description,
		category:    r.CategoryID,
		priority:    r.Priority,
		dueDate:     r.DueDate,
		completed:   r.Completed,
		completedAt: r.CompletedAt,
		createdAt:   r.CreatedAt,
	}, [4]string{"priority_c", "due_date_c", "completed_at_c", "created_at_c"})
}
