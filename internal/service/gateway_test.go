package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/taskboard/internal/errs"
	"github.com/gurkanbulca/taskboard/internal/models"
	"github.com/gurkanbulca/taskboard/internal/schema"
	"github.com/gurkanbulca/taskboard/internal/storage"
	"github.com/gurkanbulca/taskboard/internal/storage/memory"
)

var testNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

type fixture struct {
	gw         *Gateway
	tasks      *storage.Store[models.Task, models.TaskPatch, schema.LocalTask]
	categories *storage.Store[models.Category, models.CategoryPatch, schema.LocalCategory]
	now        time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: testNow}

	f.tasks = storage.NewStore[models.Task, models.TaskPatch, schema.LocalTask](
		"task", memory.New[schema.LocalTask]("task"), schema.LocalTaskMapper{},
		storage.WithIDs(storage.NewSequence(func(ctx context.Context) (int, error) { return f.tasks.MaxID(ctx) })),
	)
	f.categories = storage.NewStore[models.Category, models.CategoryPatch, schema.LocalCategory](
		"category", memory.New[schema.LocalCategory]("category"), schema.LocalCategoryMapper{},
	)
	f.gw = NewGateway(f.tasks, f.categories, WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) category(t *testing.T, name string) models.Category {
	t.Helper()
	c, err := f.gw.CreateCategory(context.Background(), CategoryInput{Name: &name})
	require.NoError(t, err)
	return c.Category
}

func (f *fixture) task(t *testing.T, title string, categoryID int) models.Task {
	t.Helper()
	task, err := f.gw.CreateTask(context.Background(), TaskInput{Title: &title, CategoryID: categoryID})
	require.NoError(t, err)
	return task
}

func TestCreateTaskAppliesDefaults(t *testing.T) {
	f := setup(t)
	cat := f.category(t, "Work")

	task, err := f.gw.CreateTask(context.Background(), TaskInput{
		Title:      models.StringPtr("  Write report  "),
		CategoryID: "1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, task.ID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, "", task.Description)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, cat.ID, *task.CategoryID)
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)
	assert.Nil(t, task.DueDate)
	assert.Equal(t, testNow, task.CreatedAt)
}

func TestCreateTaskValidation(t *testing.T) {
	long := strings.Repeat("x", 201)
	tests := []struct {
		name   string
		input  TaskInput
		fields []string
	}{
		{name: "empty title", input: TaskInput{Title: models.StringPtr(""), CategoryID: 1}, fields: []string{"title"}},
		{name: "blank title", input: TaskInput{Title: models.StringPtr("   "), CategoryID: 1}, fields: []string{"title"}},
		{name: "missing category", input: TaskInput{Title: models.StringPtr("x")}, fields: []string{"categoryId"}},
		{name: "non-numeric category", input: TaskInput{Title: models.StringPtr("x"), CategoryID: "abc"}, fields: []string{"categoryId"}},
		{name: "unknown priority", input: TaskInput{Title: models.StringPtr("x"), CategoryID: 1, Priority: models.StringPtr("urgent")}, fields: []string{"priority"}},
		{name: "bad due date", input: TaskInput{Title: models.StringPtr("x"), CategoryID: 1, DueDate: models.StringPtr("next week")}, fields: []string{"dueDate"}},
		{name: "title too long", input: TaskInput{Title: &long, CategoryID: 1}, fields: []string{"title"}},
		{name: "everything wrong", input: TaskInput{}, fields: []string{"title", "categoryId"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			_, err := f.gw.CreateTask(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, errs.IsValidation(err))

			var got []string
			for _, d := range errs.ValidationDetails(err) {
				got = append(got, d.Field)
			}
			assert.Equal(t, tt.fields, got)

			all, err := f.tasks.GetAll(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestCreateCompletedTaskKeepsInvariant(t *testing.T) {
	f := setup(t)
	done := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	task, err := f.gw.CreateTask(context.Background(), TaskInput{
		Title: models.StringPtr("old"), CategoryID: 1, Completed: models.BoolPtr(true), CompletedAt: &done,
	})
	require.NoError(t, err)
	assert.True(t, task.Completed)
	assert.Equal(t, done, *task.CompletedAt)

	task, err = f.gw.CreateTask(context.Background(), TaskInput{
		Title: models.StringPtr("old"), CategoryID: 1, Completed: models.BoolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, testNow, *task.CompletedAt)

	_, err = f.gw.CreateTask(context.Background(), TaskInput{
		Title: models.StringPtr("odd"), CategoryID: 1, CompletedAt: &done,
	})
	assert.True(t, errs.IsValidation(err))
}

func TestToggleIsItsOwnInverse(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	original := f.task(t, "Buy milk", 1)

	once, err := f.gw.ToggleTaskComplete(ctx, original.ID)
	require.NoError(t, err)
	assert.True(t, once.Completed)
	require.NotNil(t, once.CompletedAt)
	assert.Equal(t, testNow, *once.CompletedAt)

	f.now = testNow.Add(time.Hour)
	twice, err := f.gw.ToggleTaskComplete(ctx, float64(original.ID))
	require.NoError(t, err)
	assert.Equal(t, original.Completed, twice.Completed)
	assert.Equal(t, original.CompletedAt, twice.CompletedAt)
	assert.Equal(t, original, twice)
}

func TestToggleMissingTask(t *testing.T) {
	f := setup(t)
	_, err := f.gw.ToggleTaskComplete(context.Background(), 9)
	assert.True(t, errs.IsNotFound(err))

	_, err = f.gw.ToggleTaskComplete(context.Background(), "nine")
	assert.True(t, errs.IsValidation(err))
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	task := f.task(t, "Draft", 1)

	f.now = testNow.Add(2 * time.Hour)
	updated, err := f.gw.UpdateTask(ctx, "1", TaskInput{
		Description: models.StringPtr("with details"),
		Priority:    models.StringPtr("high"),
		DueDate:     models.StringPtr("2024-07-01"),
		Completed:   models.BoolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "Draft", updated.Title)
	assert.Equal(t, "with details", updated.Description)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, "2024-07-01", updated.DueDate.Format(models.DateLayout))
	assert.True(t, updated.Completed)
	assert.Equal(t, f.now, *updated.CompletedAt)
	assert.Equal(t, task.CreatedAt, updated.CreatedAt)

	// already completed: completion time is kept
	f.now = testNow.Add(5 * time.Hour)
	again, err := f.gw.UpdateTask(ctx, 1, TaskInput{Completed: models.BoolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, *updated.CompletedAt, *again.CompletedAt)

	reopened, err := f.gw.UpdateTask(ctx, 1, TaskInput{Completed: models.BoolPtr(false), DueDate: models.StringPtr("")})
	require.NoError(t, err)
	assert.False(t, reopened.Completed)
	assert.Nil(t, reopened.CompletedAt)
	assert.Nil(t, reopened.DueDate)
}

func TestUpdateTaskValidatesSuppliedFields(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.task(t, "Draft", 1)

	_, err := f.gw.UpdateTask(ctx, 1, TaskInput{Title: models.StringPtr("")})
	assert.True(t, errs.IsValidation(err))

	_, err = f.gw.UpdateTask(ctx, 1, TaskInput{Priority: models.StringPtr("someday")})
	assert.True(t, errs.IsValidation(err))

	_, err = f.gw.UpdateTask(ctx, 2, TaskInput{Title: models.StringPtr("x")})
	assert.True(t, errs.IsNotFound(err))

	_, err = f.gw.UpdateTask(ctx, "x", TaskInput{})
	var v *errs.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "id", v.Field)

	same, err := f.gw.UpdateTask(ctx, 1, TaskInput{})
	require.NoError(t, err)
	assert.Equal(t, "Draft", same.Title)
}

func TestDeleteTaskThenGet(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	task := f.task(t, "Temp", 1)

	removed, err := f.gw.DeleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task, removed)

	_, err = f.gw.GetTask(ctx, task.ID)
	assert.True(t, errs.IsNotFound(err))

	_, err = f.gw.DeleteTask(ctx, task.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestCategoryLifecycleAndCounts(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	hint := 42
	work, err := f.gw.CreateCategory(ctx, CategoryInput{Name: models.StringPtr("Work"), TaskCount: &hint})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCategoryColor, work.Color)
	assert.Equal(t, models.DefaultCategoryIcon, work.Icon)
	home := f.category(t, "Home")

	f.task(t, "a", work.ID)
	f.task(t, "b", work.ID)
	f.task(t, "c", home.ID)

	list, err := f.gw.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].TaskCount)
	assert.Equal(t, 1, list[1].TaskCount)

	one, err := f.gw.GetCategory(ctx, home.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, one.TaskCount)

	renamed, err := f.gw.UpdateCategory(ctx, home.ID, CategoryInput{Name: models.StringPtr("House"), Color: models.StringPtr("#0EA5E9")})
	require.NoError(t, err)
	assert.Equal(t, "House", renamed.Name)
	assert.Equal(t, "#0EA5E9", renamed.Color)
	assert.Equal(t, models.DefaultCategoryIcon, renamed.Icon)

	_, err = f.gw.CreateCategory(ctx, CategoryInput{Name: models.StringPtr(" ")})
	assert.True(t, errs.IsValidation(err))
}

func TestCategoryWritesIgnoreStoredCount(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	hint := 42
	work, err := f.gw.CreateCategory(ctx, CategoryInput{Name: models.StringPtr("Work"), TaskCount: &hint})
	require.NoError(t, err)
	assert.Equal(t, 0, work.TaskCount)

	same, err := f.gw.UpdateCategory(ctx, work.ID, CategoryInput{})
	require.NoError(t, err)
	assert.Equal(t, 0, same.TaskCount)

	f.task(t, "a", work.ID)
	renamed, err := f.gw.UpdateCategory(ctx, work.ID, CategoryInput{Name: models.StringPtr("Office"), TaskCount: &hint})
	require.NoError(t, err)
	assert.Equal(t, 1, renamed.TaskCount)

	removed, err := f.gw.DeleteCategory(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "Office", removed.Name)
	assert.Equal(t, 1, removed.TaskCount)
}

func TestDeletedCategoryLeavesDanglingTask(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	for i := 0; i < 4; i++ {
		f.category(t, "filler")
	}
	five := f.category(t, "Five")
	require.Equal(t, 5, five.ID)
	task := f.task(t, "Depends on five", 5)

	_, err := f.gw.DeleteCategory(ctx, 5)
	require.NoError(t, err)

	kept, err := f.gw.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, *kept.CategoryID)

	matched, err := f.gw.ListTasks(ctx, Filter{Category: []int{5}})
	require.NoError(t, err)
	assert.Empty(t, matched)

	all, err := f.gw.ListTasks(ctx, Filter{Category: []int{}})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	counts, err := f.gw.ListCategories(ctx)
	require.NoError(t, err)
	for _, c := range counts {
		assert.Equal(t, 0, c.TaskCount)
	}
}

func TestImportTasks(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	res, err := f.gw.ImportTasks(ctx, []TaskInput{
		{Title: models.StringPtr("one"), CategoryID: 1},
		{Title: models.StringPtr(""), CategoryID: 1},
		{Title: models.StringPtr("three"), CategoryID: 2, Priority: models.StringPtr("low")},
	})
	require.NoError(t, err)
	require.Len(t, res.Created, 2)
	assert.Equal(t, "one", res.Created[0].Title)
	assert.Equal(t, "three", res.Created[1].Title)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 1, res.Failures[0].Index)
	assert.True(t, errs.IsValidation(res.Failures[0].Err))

	res, err = f.gw.ImportTasks(ctx, []TaskInput{{}, {Title: models.StringPtr("x")}})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Empty(t, res.Created)
	assert.Len(t, res.Failures, 2)

	res, err = f.gw.ImportTasks(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Created)
}

func TestBoardUsesOneSnapshot(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	work := f.category(t, "Work")
	home := f.category(t, "Home")
	milk := f.task(t, "Buy milk", home.ID)
	rent := f.task(t, "Pay rent", work.ID)
	_, err := f.gw.ToggleTaskComplete(ctx, rent.ID)
	require.NoError(t, err)

	board, err := f.gw.Board(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, board.Total)
	assert.Equal(t, []int{milk.ID}, ids(board.Active))
	assert.Equal(t, []int{rent.ID}, ids(board.Completed))
	assert.Equal(t, 1, board.Categories[0].TaskCount)
	assert.Equal(t, 1, board.Categories[1].TaskCount)

	board, err = f.gw.Board(ctx, Filter{SearchText: "rent"})
	require.NoError(t, err)
	assert.Empty(t, board.Active)
	assert.Len(t, board.Completed, 1)

	_, err = f.gw.Board(ctx, Filter{Status: []models.Status{"archived"}})
	assert.True(t, errs.IsValidation(err))
}

func TestTaskInputFromMap(t *testing.T) {
	in, err := TaskInputFromMap(map[string]any{
		"title":       "Buy milk",
		"categoryId":  float64(2),
		"priority":    "low",
		"dueDate":     nil,
		"completed":   true,
		"completedAt": "2024-01-02T03:04:05Z",
		"unknown":     "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", *in.Title)
	assert.Equal(t, float64(2), in.CategoryID)
	assert.Equal(t, "", *in.DueDate)
	assert.True(t, *in.Completed)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), *in.CompletedAt)

	_, err = TaskInputFromMap(map[string]any{"title": 5, "categoryId": nil, "completed": "yes"})
	var fields []string
	for _, d := range errs.ValidationDetails(err) {
		fields = append(fields, d.Field)
	}
	assert.Equal(t, []string{"title", "categoryId", "completed"}, fields)

	cat, err := CategoryInputFromMap(map[string]any{"name": "Work", "taskCount": float64(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, *cat.TaskCount)

	_, err = CategoryInputFromMap(map[string]any{"taskCount": 1.5})
	assert.True(t, errs.IsValidation(err))
}
