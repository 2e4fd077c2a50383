package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gurkanbulca/taskboard/internal/errs"
)

// ParseID coerces a transport-level id into a positive int. Numeric strings
// and integral floats are accepted; everything else is a validation failure
// on field "id".
func ParseID(v any) (int, error) {
	return ParseIDField("id", v)
}

// ParseIDField is ParseID reporting failures against field.
func ParseIDField(field string, v any) (int, error) {
	var id int
	switch x := v.(type) {
	case int:
		id = x
	case int32:
		id = int(x)
	case int64:
		id = int(x)
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, errs.Invalid(field, fmt.Sprintf("%v is not an integer", x))
		}
		id = int(x)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, errs.Invalid(field, fmt.Sprintf("%q is not numeric", x))
		}
		id = n
	case nil:
		return 0, errs.Invalid(field, "is required")
	default:
		return 0, errs.Invalid(field, fmt.Sprintf("unsupported id type %T", v))
	}
	if id <= 0 {
		return 0, errs.Invalid(field, "must be positive")
	}
	return id, nil
}
