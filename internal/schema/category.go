package schema

import "github.com/gurkanbulca/taskboard/internal/models"

type LocalCategory struct {
	ID        int    `json:"Id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	Icon      string `json:"icon,omitempty"`
	TaskCount *int   `json:"taskCount,omitempty"`
}

func (r LocalCategory) RecordID() int { return r.ID }

func (r LocalCategory) WithRecordID(id int) LocalCategory {
	r.ID = id
	return r
}

// RemoteCategory keeps the platform's unsuffixed Name field next to the
// suffixed custom fields.
type RemoteCategory struct {
	ID        int     `json:"Id" db:"Id"`
	Name      string  `json:"Name" db:"Name"`
	Color     *string `json:"color_c,omitempty" db:"color_c"`
	Icon      *string `json:"icon_c,omitempty" db:"icon_c"`
	TaskCount *int    `json:"task_count_c,omitempty" db:"task_count_c"`
}

func (r RemoteCategory) RecordID() int { return r.ID }

func (r RemoteCategory) WithRecordID(id int) RemoteCategory {
	r.ID = id
	return r
}

type LocalCategoryMapper struct{}

func (LocalCategoryMapper) Shape() Shape { return ShapeLocal }

var _ Mapper[models.Category, LocalCategory] = LocalCategoryMapper{}

func (LocalCategoryMapper) ToStorage(c models.Category) LocalCategory {
	return LocalCategory{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		Icon:      c.Icon,
		TaskCount: ptr(c.TaskCount),
	}
}

func (LocalCategoryMapper) FromStorage(r LocalCategory) (models.Category, error) {
	return models.Category{
		ID:        r.ID,
		Name:      r.Name,
		Color:     r.Color,
		Icon:      r.Icon,
		TaskCount: deref(r.TaskCount),
	}, nil
}

type RemoteCategoryMapper struct{}

func (RemoteCategoryMapper) Shape() Shape { return ShapeRemote }

var _ Mapper[models.Category, RemoteCategory] = RemoteCategoryMapper{}

func (RemoteCategoryMapper) ToStorage(c models.Category) RemoteCategory {
	return RemoteCategory{
		ID:        c.ID,
		Name:      c.Name,
		Color:     ptr(c.Color),
		Icon:      ptr(c.Icon),
		TaskCount: ptr(c.TaskCount),
	}
}

func (RemoteCategoryMapper) FromStorage(r RemoteCategory) (models.Category, error) {
	return models.Category{
		ID:        r.ID,
		Name:      r.Name,
		Color:     deref(r.Color),
		Icon:      deref(r.Icon),
		TaskCount: deref(r.TaskCount),
	}, nil
}
