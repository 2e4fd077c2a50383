package grpcapi

import (
	"fmt"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/gurkanbulca/taskboard/internal/dto"
	"github.com/gurkanbulca/taskboard/internal/errs"
	"github.com/gurkanbulca/taskboard/internal/service"
)

func toStruct(v any) (*structpb.Struct, error) {
	m, err := dto.ToMap(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return structpb.NewStruct(m)
}

// idOf returns the raw "id" field; the gateway coerces and validates it.
func idOf(req *structpb.Struct) any {
	v, ok := req.GetFields()["id"]
	if !ok {
		return nil
	}
	return v.AsInterface()
}

func filterOf(m map[string]any) (service.Filter, error) {
	var errv errs.ValidationErrors

	search := ""
	if v, ok := m["search"]; ok && v != nil {
		s, isStr := v.(string)
		if !isStr {
			errv = append(errv, errs.Invalid("search", "must be a string"))
		}
		search = s
	}
	statuses, err := stringList(m, "status")
	errv = append(errv, errs.ValidationDetails(err)...)
	priorities, err := stringList(m, "priority")
	errv = append(errv, errs.ValidationDetails(err)...)
	categories, err := stringList(m, "category")
	errv = append(errv, errs.ValidationDetails(err)...)
	if len(errv) > 0 {
		return service.Filter{}, errv
	}

	return service.ParseFilter(search, statuses, priorities, categories)
}

// stringList reads key as a list of strings or numbers. A single scalar is
// treated as a one-element list.
func stringList(m map[string]any, key string) ([]string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	items, isList := v.([]any)
	if !isList {
		items = []any{v}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch x := item.(type) {
		case string:
			out = append(out, x)
		case float64:
			out = append(out, strconv.FormatFloat(x, 'f', -1, 64))
		default:
			return nil, errs.Invalid(key, fmt.Sprintf("unsupported value %v", item))
		}
	}
	return out, nil
}
