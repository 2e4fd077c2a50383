package models

// Category defaults applied when the caller leaves them blank.
const (
	DefaultCategoryColor = "#5B21B6"
	DefaultCategoryIcon  = "Folder"
)

// Category groups tasks. TaskCount mirrors whatever storage holds and is
// never trusted for display; see CategoryWithCount.
type Category struct {
	ID        int
	Name      string
	Color     string
	Icon      string
	TaskCount int
}

type CategoryPatch struct {
	Name      *string
	Color     *string
	Icon      *string
	TaskCount *int
}

func (p CategoryPatch) IsZero() bool {
	return p == CategoryPatch{}
}

func (c Category) EntityID() int { return c.ID }

func (c Category) WithEntityID(id int) Category {
	c.ID = id
	return c
}

func (c Category) Apply(p CategoryPatch) Category {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	if p.TaskCount != nil {
		c.TaskCount = *p.TaskCount
	}
	return c
}

// CategoryWithCount is a category whose TaskCount was recomputed from tasks.
type CategoryWithCount struct {
	Category
}
