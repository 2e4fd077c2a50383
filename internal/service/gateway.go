package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gurkanbulca/taskboard/internal/models"
	"github.com/gurkanbulca/taskboard/internal/storage"
)

// Store is the CRUD surface the gateway needs for one entity kind.
type Store[T any, P any] interface {
	GetAll(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id int) (T, error)
	Create(ctx context.Context, e T) (T, error)
	CreateMany(ctx context.Context, items []T) []storage.Outcome[T]
	Update(ctx context.Context, id int, patch P) (T, error)
	Delete(ctx context.Context, id int) (T, error)
}

type (
	TaskStore     = Store[models.Task, models.TaskPatch]
	CategoryStore = Store[models.Category, models.CategoryPatch]
)

// Gateway is the command surface over tasks and categories. It validates and
// enriches input before any write and answers the compound read queries.
type Gateway struct {
	tasks      TaskStore
	categories CategoryStore
	validation ValidationConfig
	now        func() time.Time
}

type GatewayOption func(*Gateway)

func WithValidation(cfg ValidationConfig) GatewayOption {
	return func(g *Gateway) { g.validation = cfg }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) { g.now = now }
}

func NewGateway(tasks TaskStore, categories CategoryStore, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		tasks:      tasks,
		categories: categories,
		validation: DefaultValidationConfig(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) clock() time.Time {
	return g.now().UTC()
}

// Now is the gateway's notion of the current time.
func (g *Gateway) Now() time.Time {
	return g.clock()
}

// CreateTask validates in and stores a new open task stamped with the
// current time. A caller re-creating a completed task may pass
// Completed=true, optionally with its original CompletedAt.
func (g *Gateway) CreateTask(ctx context.Context, in TaskInput) (models.Task, error) {
	task, err := g.newTask(in)
	if err != nil {
		return models.Task{}, err
	}

	created, err := g.tasks.Create(ctx, task)
	if err != nil {
		log.WithError(err).WithField("title", task.Title).Warn("create task failed")
		return models.Task{}, err
	}
	log.WithFields(log.Fields{"task": created.ID, "category": deref(created.CategoryID)}).Debug("task created")
	return created, nil
}

func (g *Gateway) newTask(in TaskInput) (models.Task, error) {
	c, err := g.validation.validateTask(in, true)
	if err != nil {
		return models.Task{}, err
	}
	now := g.clock()
	task := models.Task{
		Priority:  models.DefaultPriority,
		CreatedAt: now,
	}.Apply(c.patch)
	task.Completed = false
	task.CompletedAt = nil
	if in.Completed != nil && *in.Completed {
		task.Completed = true
		task.CompletedAt = models.TimePtr(now)
		if c.completedAt != nil {
			task.CompletedAt = c.completedAt
		}
	}
	return task, nil
}

// UpdateTask merges the supplied fields into task id. Completion changes keep
// CompletedAt in step with Completed; CreatedAt never changes.
func (g *Gateway) UpdateTask(ctx context.Context, rawID any, in TaskInput) (models.Task, error) {
	id, err := models.ParseID(rawID)
	if err != nil {
		return models.Task{}, err
	}
	c, err := g.validation.validateTask(in, false)
	if err != nil {
		return models.Task{}, err
	}

	patch := c.patch
	if patch.Completed != nil {
		current, err := g.tasks.GetByID(ctx, id)
		if err != nil {
			return models.Task{}, err
		}
		switch {
		case !*patch.Completed:
			patch.ClearCompletedAt = true
		case c.completedAt != nil:
			patch.CompletedAt = c.completedAt
		case !current.Completed || current.CompletedAt == nil:
			patch.CompletedAt = models.TimePtr(g.clock())
		}
	}

	updated, err := g.tasks.Update(ctx, id, patch)
	if err != nil {
		log.WithError(err).WithField("task", id).Warn("update task failed")
		return models.Task{}, err
	}
	log.WithField("task", id).Debug("task updated")
	return updated, nil
}

// ToggleTaskComplete flips completion in a single write carrying both
// Completed and CompletedAt.
func (g *Gateway) ToggleTaskComplete(ctx context.Context, rawID any) (models.Task, error) {
	id, err := models.ParseID(rawID)
	if err != nil {
		return models.Task{}, err
	}
	current, err := g.tasks.GetByID(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	done := !current.Completed
	patch := models.TaskPatch{Completed: &done}
	if done {
		patch.CompletedAt = models.TimePtr(g.clock())
	} else {
		patch.ClearCompletedAt = true
	}

	updated, err := g.tasks.Update(ctx, id, patch)
	if err != nil {
		log.WithError(err).WithField("task", id).Warn("toggle task failed")
		return models.Task{}, err
	}
	log.WithFields(log.Fields{"task": id, "completed": done}).Debug("task toggled")
	return updated, nil
}

func (g *Gateway) DeleteTask(ctx context.Context, rawID any) (models.Task, error) {
	id, err := models.ParseID(rawID)
	if err != nil {
		return models.Task{}, err
	}
	removed, err := g.tasks.Delete(ctx, id)
	if err != nil {
		log.WithError(err).WithField("task", id).Warn("delete task failed")
		return models.Task{}, err
	}
	log.WithField("task", id).Debug("task deleted")
	return removed, nil
}

func (g *Gateway) GetTask(ctx context.Context, rawID any) (models.Task, error) {
	id, err := models.ParseID(rawID)
	if err != nil {
		return models.Task{}, err
	}
	return g.tasks.GetByID(ctx, id)
}

// ListTasks returns the tasks matching f in storage order. Tasks whose
// category no longer exists never match a category selection.
func (g *Gateway) ListTasks(ctx context.Context, f Filter) ([]models.Task, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	tasks, err := g.tasks.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if f.IsEmpty() {
		return tasks, nil
	}
	var known CategorySet
	if len(f.Category) > 0 {
		categories, err := g.categories.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		known = CategoriesOf(categories)
	}
	return FilterAll(tasks, f, known), nil
}

// ItemFailure is one rejected record of a batch.
type ItemFailure struct {
	Index int
	Err   error
}

// BatchResult reports a batch create. Created keeps input order.
type BatchResult struct {
	Created  []models.Task
	Failures []ItemFailure
}

// ImportTasks creates many tasks at once. Invalid items are rejected before
// the write. The call fails as a whole only when every item failed;
// otherwise the created tasks come back with the per-item failures.
func (g *Gateway) ImportTasks(ctx context.Context, inputs []TaskInput) (*BatchResult, error) {
	res := &BatchResult{Created: []models.Task{}, Failures: []ItemFailure{}}
	if len(inputs) == 0 {
		return res, nil
	}

	var (
		pending []models.Task
		index   []int
	)
	for i, in := range inputs {
		task, err := g.newTask(in)
		if err != nil {
			res.Failures = append(res.Failures, ItemFailure{Index: i, Err: err})
			continue
		}
		pending = append(pending, task)
		index = append(index, i)
	}

	if len(pending) > 0 {
		for j, o := range g.tasks.CreateMany(ctx, pending) {
			if o.Err != nil {
				res.Failures = append(res.Failures, ItemFailure{Index: index[j], Err: o.Err})
				continue
			}
			res.Created = append(res.Created, o.Item)
		}
	}
	sort.Slice(res.Failures, func(i, j int) bool { return res.Failures[i].Index < res.Failures[j].Index })

	log.WithFields(log.Fields{"created": len(res.Created), "failed": len(res.Failures)}).Info("tasks imported")
	if len(res.Created) == 0 {
		all := make([]error, 0, len(res.Failures))
		for _, f := range res.Failures {
			all = append(all, fmt.Errorf("item %d: %w", f.Index, f.Err))
		}
		return res, fmt.Errorf("import: all %d items failed: %w", len(inputs), errors.Join(all...))
	}
	return res, nil
}

func (g *Gateway) CreateCategory(ctx context.Context, in CategoryInput) (models.CategoryWithCount, error) {
	patch, err := g.validation.validateCategory(in, true)
	if err != nil {
		return models.CategoryWithCount{}, err
	}
	created, err := g.categories.Create(ctx, models.Category{}.Apply(patch))
	if err != nil {
		log.WithError(err).Warn("create category failed")
		return models.CategoryWithCount{}, err
	}
	log.WithFields(log.Fields{"category": created.ID, "name": created.Name}).Debug("category created")
	return g.counted(ctx, created)
}

func (g *Gateway) UpdateCategory(ctx context.Context, rawID any, in CategoryInput) (models.CategoryWithCount, error) {
	id, err := models.ParseID(rawID)
	if err != nil {
		return models.CategoryWithCount{}, err
	}
	patch, err := g.validation.validateCategory(in, false)
	if err != nil {
		return models.CategoryWithCount{}, err
	}
	updated, err := g.categories.Update(ctx, id, patch)
	if err != nil {
		log.WithError(err).WithField("category", id).Warn("update category failed")
		return models.CategoryWithCount{}, err
	}
	return g.counted(ctx, updated)
}

// DeleteCategory removes the category only. Tasks that referenced it keep
// the dangling id, and the returned count is the number of such tasks.
func (g *Gateway) DeleteCategory(ctx context.Context, rawID any) (models.CategoryWithCount, error) {
	id, err := models.ParseID(rawID)
	if err != nil {
		return models.CategoryWithCount{}, err
	}
	removed, err := g.categories.Delete(ctx, id)
	if err != nil {
		log.WithError(err).WithField("category", id).Warn("delete category failed")
		return models.CategoryWithCount{}, err
	}
	log.WithField("category", id).Debug("category deleted")
	return g.counted(ctx, removed)
}

func (g *Gateway) GetCategory(ctx context.Context, rawID any) (models.CategoryWithCount, error) {
	id, err := models.ParseID(rawID)
	if err != nil {
		return models.CategoryWithCount{}, err
	}
	category, err := g.categories.GetByID(ctx, id)
	if err != nil {
		return models.CategoryWithCount{}, err
	}
	return g.counted(ctx, category)
}

// counted replaces the stored count hint with the number of tasks that
// reference c.
func (g *Gateway) counted(ctx context.Context, c models.Category) (models.CategoryWithCount, error) {
	tasks, err := g.tasks.GetAll(ctx)
	if err != nil {
		return models.CategoryWithCount{}, err
	}
	return WithTaskCounts([]models.Category{c}, tasks)[0], nil
}

// ListCategories returns every category with a freshly computed task count.
func (g *Gateway) ListCategories(ctx context.Context) ([]models.CategoryWithCount, error) {
	categories, err := g.categories.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := g.tasks.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return WithTaskCounts(categories, tasks), nil
}

// Board is one consistent read of everything a task board shows.
type Board struct {
	Categories []models.CategoryWithCount
	Groups
	Total int
}

// Board reads categories and tasks once and derives counts and the filtered,
// grouped task lists from that single snapshot.
func (g *Gateway) Board(ctx context.Context, f Filter) (*Board, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	categories, err := g.categories.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := g.tasks.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return &Board{
		Categories: WithTaskCounts(categories, tasks),
		Groups:     Group(FilterAll(tasks, f, CategoriesOf(categories))),
		Total:      len(tasks),
	}, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
