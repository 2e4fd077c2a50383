package service

import "github.com/gurkanbulca/taskboard/internal/models"

// WithTaskCounts pairs each category with the number of tasks referencing it.
// The stored TaskCount is ignored. Output order follows categories.
func WithTaskCounts(categories []models.Category, tasks []models.Task) []models.CategoryWithCount {
	counts := make(map[int]int, len(categories))
	for _, t := range tasks {
		if t.CategoryID != nil {
			counts[*t.CategoryID]++
		}
	}

	out := make([]models.CategoryWithCount, 0, len(categories))
	for _, c := range categories {
		c.TaskCount = counts[c.ID]
		out = append(out, models.CategoryWithCount{Category: c})
	}
	return out
}
