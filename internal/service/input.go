package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gurkanbulca/taskboard/internal/errs"
)

// TaskInput carries caller-supplied task fields. Nil means not supplied.
// CategoryID holds the id as the caller sent it (number or numeric string).
// An empty DueDate clears the due date.
type TaskInput struct {
	Title       *string
	Description *string
	CategoryID  any
	Priority    *string
	DueDate     *string
	Completed   *bool
	CompletedAt *time.Time
}

// CategoryInput carries caller-supplied category fields. TaskCount is stored
// as given but never read back as a count.
type CategoryInput struct {
	Name      *string
	Color     *string
	Icon      *string
	TaskCount *int
}

// TaskInputFromMap reads a decoded JSON object using the logical field names.
// Unknown keys are ignored.
func TaskInputFromMap(m map[string]any) (TaskInput, error) {
	var (
		in   TaskInput
		errv errs.ValidationErrors
		err  error
	)
	if in.Title, err = optString(m, "title"); err != nil {
		errv = append(errv, errs.ValidationDetails(err)...)
	}
	if in.Description, err = optString(m, "description"); err != nil {
		errv = append(errv, errs.ValidationDetails(err)...)
	}
	if v, ok := m["categoryId"]; ok {
		if v == nil {
			errv = append(errv, errs.Invalid("categoryId", "is required"))
		} else {
			in.CategoryID = v
		}
	}
	if in.Priority, err = optString(m, "priority"); err != nil {
		errv = append(errv, errs.ValidationDetails(err)...)
	}
	if v, ok := m["dueDate"]; ok {
		if v == nil {
			empty := ""
			in.DueDate = &empty
		} else if s, isStr := v.(string); isStr {
			in.DueDate = &s
		} else {
			errv = append(errv, errs.Invalid("dueDate", "must be a date string"))
		}
	}
	if v, ok := m["completed"]; ok && v != nil {
		if b, isBool := v.(bool); isBool {
			in.Completed = &b
		} else {
			errv = append(errv, errs.Invalid("completed", "must be a boolean"))
		}
	}
	if v, ok := m["completedAt"]; ok && v != nil {
		s, isStr := v.(string)
		ts, perr := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
		if !isStr || perr != nil {
			errv = append(errv, errs.Invalid("completedAt", "must be an RFC 3339 timestamp"))
		} else {
			in.CompletedAt = &ts
		}
	}
	return in, errv.Err()
}

// CategoryInputFromMap reads a decoded JSON object using the logical field
// names.
func CategoryInputFromMap(m map[string]any) (CategoryInput, error) {
	var (
		in   CategoryInput
		errv errs.ValidationErrors
		err  error
	)
	if in.Name, err = optString(m, "name"); err != nil {
		errv = append(errv, errs.ValidationDetails(err)...)
	}
	if in.Color, err = optString(m, "color"); err != nil {
		errv = append(errv, errs.ValidationDetails(err)...)
	}
	if in.Icon, err = optString(m, "icon"); err != nil {
		errv = append(errv, errs.ValidationDetails(err)...)
	}
	if v, ok := m["taskCount"]; ok && v != nil {
		n, isNum := v.(float64)
		if !isNum || n != math.Trunc(n) {
			errv = append(errv, errs.Invalid("taskCount", "must be an integer"))
		} else {
			count := int(n)
			in.TaskCount = &count
		}
	}
	return in, errv.Err()
}

func optString(m map[string]any, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, isStr := v.(string)
	if !isStr {
		return nil, errs.Invalid(key, fmt.Sprintf("must be a string, got %T", v))
	}
	return &s, nil
}

// TaskInputsFromList reads a decoded JSON array of task objects.
func TaskInputsFromList(v any) ([]TaskInput, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, errs.Invalid("tasks", "must be a list")
	}
	var errv errs.ValidationErrors
	inputs := make([]TaskInput, 0, len(raw))
	for i, item := range raw {
		obj, isObj := item.(map[string]any)
		if !isObj {
			errv = append(errv, errs.Invalid(fmt.Sprintf("tasks[%d]", i), "must be an object"))
			continue
		}
		in, err := TaskInputFromMap(obj)
		if err != nil {
			for _, d := range errs.ValidationDetails(err) {
				errv = append(errv, errs.Invalid(fmt.Sprintf("tasks[%d].%s", i, d.Field), d.Reason))
			}
			continue
		}
		inputs = append(inputs, in)
	}
	if err := errv.Err(); err != nil {
		return nil, err
	}
	return inputs, nil
}
