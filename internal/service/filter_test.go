package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/taskboard/internal/errs"
	"github.com/gurkanbulca/taskboard/internal/models"
)

func scenarioTasks() []models.Task {
	return []models.Task{
		{ID: 1, Title: "Buy milk", Priority: models.PriorityLow, CategoryID: models.IntPtr(1)},
		{ID: 2, Title: "Pay rent", Completed: true, Priority: models.PriorityHigh, CategoryID: models.IntPtr(2)},
	}
}

func ids(tasks []models.Task) []int {
	out := make([]int, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestFilterAllScenarios(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{name: "empty filter keeps everything", filter: Filter{}, want: []int{1, 2}},
		{name: "active only", filter: Filter{Status: []models.Status{models.StatusActive}}, want: []int{1}},
		{name: "completed only", filter: Filter{Status: []models.Status{models.StatusCompleted}}, want: []int{2}},
		{name: "both statuses collapse", filter: Filter{Status: []models.Status{models.StatusActive, models.StatusCompleted}}, want: []int{1, 2}},
		{name: "search matches title", filter: Filter{SearchText: "rent"}, want: []int{2}},
		{name: "search is case-insensitive", filter: Filter{SearchText: "MILK"}, want: []int{1}},
		{name: "search keeps surrounding spaces", filter: Filter{SearchText: "milk "}, want: []int{}},
		{name: "whitespace search is a real query", filter: Filter{SearchText: "   "}, want: []int{}},
		{name: "priorities union keeps order", filter: Filter{Priority: []models.Priority{models.PriorityLow, models.PriorityHigh}}, want: []int{1, 2}},
		{name: "priority with no match", filter: Filter{Priority: []models.Priority{models.PriorityMedium}}, want: []int{}},
		{name: "category", filter: Filter{Category: []int{2}}, want: []int{2}},
		{name: "dimensions combine with and", filter: Filter{Category: []int{1, 2}, Status: []models.Status{models.StatusActive}}, want: []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterAll(scenarioTasks(), tt.filter, nil)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestBothStatusesEqualNoStatus(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Title: "Buy milk", Priority: models.PriorityLow, CategoryID: models.IntPtr(1)},
		{ID: 2, Title: "Buy bread", Completed: true, Priority: models.PriorityLow, CategoryID: models.IntPtr(1)},
		{ID: 3, Title: "Buy eggs", Completed: true, Priority: models.PriorityHigh, CategoryID: models.IntPtr(1)},
		{ID: 4, Title: "Pay rent", Priority: models.PriorityLow, CategoryID: models.IntPtr(2)},
		{ID: 5, Title: "Walk dog", Description: "buy treats", CategoryID: models.IntPtr(1), Priority: models.PriorityMedium},
	}
	known := CategoriesOf([]models.Category{{ID: 1}, {ID: 2}})
	both := []models.Status{models.StatusActive, models.StatusCompleted}

	tests := []struct {
		name  string
		fixed Filter
	}{
		{name: "no other dimension", fixed: Filter{}},
		{name: "priority", fixed: Filter{Priority: []models.Priority{models.PriorityLow}}},
		{name: "category", fixed: Filter{Category: []int{1}}},
		{name: "search", fixed: Filter{SearchText: "buy"}},
		{name: "all dimensions", fixed: Filter{SearchText: "buy", Priority: []models.Priority{models.PriorityLow, models.PriorityMedium}, Category: []int{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBoth := tt.fixed
			withBoth.Status = both
			assert.Equal(t, ids(FilterAll(tasks, tt.fixed, known)), ids(FilterAll(tasks, withBoth, known)))
		})
	}
}

func TestFilterIsEmpty(t *testing.T) {
	assert.True(t, Filter{}.IsEmpty())
	assert.True(t, Filter{Category: []int{}}.IsEmpty())
	assert.False(t, Filter{SearchText: " "}.IsEmpty())
	assert.False(t, Filter{Priority: []models.Priority{models.PriorityHigh}}.IsEmpty())
}

func TestSearchMatchesDescription(t *testing.T) {
	task := models.Task{ID: 1, Title: "Groceries", Description: "remember the Oat milk"}
	assert.True(t, Matches(task, Filter{SearchText: "oat"}, nil))
	assert.False(t, Matches(task, Filter{SearchText: "bread"}, nil))
}

func TestDanglingCategoryMatchesNoCategory(t *testing.T) {
	task := models.Task{ID: 1, Title: "Orphan", CategoryID: models.IntPtr(5)}
	known := CategoriesOf([]models.Category{{ID: 1, Name: "Work"}})

	assert.False(t, Matches(task, Filter{Category: []int{5}}, known))
	assert.True(t, Matches(task, Filter{Category: []int{}}, known))
	assert.True(t, Matches(task, Filter{}, known))
}

func TestTaskWithoutCategory(t *testing.T) {
	task := models.Task{ID: 1, Title: "Loose"}
	assert.False(t, Matches(task, Filter{Category: []int{1}}, nil))
	assert.True(t, Matches(task, Filter{}, nil))
}

func TestGroup(t *testing.T) {
	g := Group(scenarioTasks())
	assert.Equal(t, []int{1}, ids(g.Active))
	assert.Equal(t, []int{2}, ids(g.Completed))

	empty := Group(nil)
	assert.NotNil(t, empty.Active)
	assert.NotNil(t, empty.Completed)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("rent", []string{"Active"}, []string{"high", "LOW"}, []string{"2", "3"})
	require.NoError(t, err)
	assert.Equal(t, Filter{
		SearchText: "rent",
		Status:     []models.Status{models.StatusActive},
		Priority:   []models.Priority{models.PriorityHigh, models.PriorityLow},
		Category:   []int{2, 3},
	}, f)

	_, err = ParseFilter("", []string{"archived"}, []string{"urgent"}, []string{"abc"})
	require.Error(t, err)
	var fields []string
	for _, d := range errs.ValidationDetails(err) {
		fields = append(fields, d.Field)
	}
	assert.Equal(t, []string{"status", "priority", "category"}, fields)
}

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, Filter{}.Validate())
	err := Filter{Priority: []models.Priority{"urgent"}}.Validate()
	assert.True(t, errs.IsValidation(err))
}

func TestWithTaskCounts(t *testing.T) {
	categories := []models.Category{
		{ID: 2, Name: "Home", TaskCount: 99},
		{ID: 1, Name: "Work"},
		{ID: 3, Name: "Empty", TaskCount: 4},
	}
	tasks := append(scenarioTasks(),
		models.Task{ID: 3, Title: "Dangling", CategoryID: models.IntPtr(9)},
		models.Task{ID: 4, Title: "More work", CategoryID: models.IntPtr(1)},
		models.Task{ID: 5, Title: "Loose"},
	)

	got := WithTaskCounts(categories, tasks)
	require.Len(t, got, 3)
	assert.Equal(t, "Home", got[0].Name)
	assert.Equal(t, 1, got[0].TaskCount)
	assert.Equal(t, 2, got[1].TaskCount)
	assert.Equal(t, 0, got[2].TaskCount)

	assert.Empty(t, WithTaskCounts(nil, tasks))
}
