package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gurkanbulca/taskboard/internal/errs"
	"github.com/gurkanbulca/taskboard/internal/models"
)

// ValidationConfig holds validation configuration
type ValidationConfig struct {
	MaxTitleLength       int
	MaxDescriptionLength int
	MaxNameLength        int
}

// DefaultValidationConfig returns default validation configuration
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxTitleLength:       200,
		MaxDescriptionLength: 5000,
		MaxNameLength:        100,
	}
}

// checked is a validated task input, ready to become a patch.
type checked struct {
	patch       models.TaskPatch
	completedAt *time.Time
}

// validateTask checks every supplied field of in. On create, title and
// categoryId are required.
func (c ValidationConfig) validateTask(in TaskInput, create bool) (checked, error) {
	var (
		out  checked
		errv errs.ValidationErrors
	)

	// Title validation
	if in.Title != nil || create {
		title := ""
		if in.Title != nil {
			title = strings.TrimSpace(*in.Title)
		}
		switch {
		case title == "":
			errv = append(errv, errs.Invalid("title", "is required"))
		case utf8.RuneCountInString(title) > c.MaxTitleLength:
			errv = append(errv, errs.Invalid("title", fmt.Sprintf("too long (max %d characters)", c.MaxTitleLength)))
		default:
			out.patch.Title = &title
		}
	}

	// Description validation
	if in.Description != nil {
		if utf8.RuneCountInString(*in.Description) > c.MaxDescriptionLength {
			errv = append(errv, errs.Invalid("description", fmt.Sprintf("too long (max %d characters)", c.MaxDescriptionLength)))
		} else {
			d := *in.Description
			out.patch.Description = &d
		}
	}

	if in.CategoryID != nil || create {
		id, err := models.ParseIDField("categoryId", in.CategoryID)
		if err != nil {
			errv = append(errv, errs.ValidationDetails(err)...)
		} else {
			out.patch.CategoryID = &id
		}
	}

	if in.Priority != nil {
		p, err := models.ParsePriority(*in.Priority)
		if err != nil {
			errv = append(errv, errs.Invalid("priority", err.Error()))
		} else {
			out.patch.Priority = &p
		}
	}

	if in.DueDate != nil {
		if strings.TrimSpace(*in.DueDate) == "" {
			out.patch.ClearDueDate = true
		} else if d, err := models.ParseDate(*in.DueDate); err != nil {
			errv = append(errv, errs.Invalid("dueDate", err.Error()))
		} else {
			out.patch.DueDate = &d
		}
	}

	if in.Completed != nil {
		done := *in.Completed
		out.patch.Completed = &done
	}
	if in.CompletedAt != nil {
		if in.Completed == nil || !*in.Completed {
			errv = append(errv, errs.Invalid("completedAt", "only allowed together with completed=true"))
		} else {
			ts := in.CompletedAt.UTC()
			out.completedAt = &ts
		}
	}

	return out, errv.Err()
}

// validateCategory checks every supplied field of in. On create, name is
// required. Blank color and icon fall back to the defaults.
func (c ValidationConfig) validateCategory(in CategoryInput, create bool) (models.CategoryPatch, error) {
	var (
		patch models.CategoryPatch
		errv  errs.ValidationErrors
	)

	if in.Name != nil || create {
		name := ""
		if in.Name != nil {
			name = strings.TrimSpace(*in.Name)
		}
		switch {
		case name == "":
			errv = append(errv, errs.Invalid("name", "is required"))
		case utf8.RuneCountInString(name) > c.MaxNameLength:
			errv = append(errv, errs.Invalid("name", fmt.Sprintf("too long (max %d characters)", c.MaxNameLength)))
		default:
			patch.Name = &name
		}
	}

	if in.Color != nil || create {
		color := models.DefaultCategoryColor
		if in.Color != nil && strings.TrimSpace(*in.Color) != "" {
			color = strings.TrimSpace(*in.Color)
		}
		patch.Color = &color
	}
	if in.Icon != nil || create {
		icon := models.DefaultCategoryIcon
		if in.Icon != nil && strings.TrimSpace(*in.Icon) != "" {
			icon = strings.TrimSpace(*in.Icon)
		}
		patch.Icon = &icon
	}

	if in.TaskCount != nil {
		if *in.TaskCount < 0 {
			errv = append(errv, errs.Invalid("taskCount", "must not be negative"))
		} else {
			n := *in.TaskCount
			patch.TaskCount = &n
		}
	}

	return patch, errv.Err()
}
