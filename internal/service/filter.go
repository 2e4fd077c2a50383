package service

import (
	"slices"
	"strings"

	"github.com/gurkanbulca/taskboard/internal/errs"
	"github.com/gurkanbulca/taskboard/internal/models"
)

// Filter selects tasks. Dimensions combine with AND, values within a
// dimension with OR. An empty dimension does not constrain.
type Filter struct {
	SearchText string
	Status     []models.Status
	Priority   []models.Priority
	Category   []int
}

// ParseFilter builds a Filter from transport strings.
func ParseFilter(search string, statuses, priorities, categories []string) (Filter, error) {
	f := Filter{SearchText: search}
	var v errs.ValidationErrors
	for _, s := range statuses {
		st, err := models.ParseStatus(s)
		if err != nil {
			v = append(v, errs.Invalid("status", err.Error()))
			continue
		}
		f.Status = append(f.Status, st)
	}
	for _, p := range priorities {
		if strings.TrimSpace(p) == "" {
			v = append(v, errs.Invalid("priority", "must not be empty"))
			continue
		}
		pr, err := models.ParsePriority(p)
		if err != nil {
			v = append(v, errs.Invalid("priority", err.Error()))
			continue
		}
		f.Priority = append(f.Priority, pr)
	}
	for _, c := range categories {
		id, err := models.ParseIDField("category", c)
		if err != nil {
			v = append(v, errs.ValidationDetails(err)...)
			continue
		}
		f.Category = append(f.Category, id)
	}
	return f, v.Err()
}

// Validate rejects unknown statuses, priorities and non-positive category ids.
func (f Filter) Validate() error {
	var v errs.ValidationErrors
	for _, s := range f.Status {
		if s != models.StatusActive && s != models.StatusCompleted {
			v = append(v, errs.Invalid("status", "unknown status "+string(s)))
		}
	}
	for _, p := range f.Priority {
		if !p.Valid() {
			v = append(v, errs.Invalid("priority", "unknown priority "+string(p)))
		}
	}
	for _, id := range f.Category {
		if id <= 0 {
			v = append(v, errs.Invalid("category", "must be positive"))
		}
	}
	return v.Err()
}

// IsEmpty reports whether f constrains nothing.
func (f Filter) IsEmpty() bool {
	return f.SearchText == "" && len(f.Status) == 0 && len(f.Priority) == 0 && len(f.Category) == 0
}

// CategorySet is the set of existing category ids. A nil set accepts every
// id; otherwise a task whose category is not in the set matches no category.
type CategorySet map[int]struct{}

func CategoriesOf(categories []models.Category) CategorySet {
	set := make(CategorySet, len(categories))
	for _, c := range categories {
		set[c.ID] = struct{}{}
	}
	return set
}

func (s CategorySet) Has(id int) bool {
	if s == nil {
		return true
	}
	_, ok := s[id]
	return ok
}

// Matches reports whether t satisfies every dimension of f.
func Matches(t models.Task, f Filter, known CategorySet) bool {
	if q := strings.ToLower(f.SearchText); q != "" {
		if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}

	// both statuses selected is the same as none
	wantActive := slices.Contains(f.Status, models.StatusActive)
	wantDone := slices.Contains(f.Status, models.StatusCompleted)
	if wantActive != wantDone {
		if wantActive && t.Completed || wantDone && !t.Completed {
			return false
		}
	}

	if len(f.Priority) > 0 && !slices.Contains(f.Priority, t.Priority) {
		return false
	}

	if len(f.Category) > 0 {
		if t.CategoryID == nil || !known.Has(*t.CategoryID) || !slices.Contains(f.Category, *t.CategoryID) {
			return false
		}
	}
	return true
}

// FilterAll keeps the tasks matching f, in input order.
func FilterAll(tasks []models.Task, f Filter, known CategorySet) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, f, known) {
			out = append(out, t)
		}
	}
	return out
}

// Groups splits tasks by completion state.
type Groups struct {
	Active    []models.Task
	Completed []models.Task
}

func Group(tasks []models.Task) Groups {
	g := Groups{Active: []models.Task{}, Completed: []models.Task{}}
	for _, t := range tasks {
		if t.Completed {
			g.Completed = append(g.Completed, t)
		} else {
			g.Active = append(g.Active, t)
		}
	}
	return g
}
