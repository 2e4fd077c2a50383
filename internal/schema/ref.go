package schema

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Ref is a relation field. Remote backends deliver it either as a bare id or
// as an embedded object such as {"Id": 3, "Name": "Work"}; both decode to the
// same Ref. A Ref that is not Valid encodes as null.
type Ref struct {
	ID    int
	Valid bool
}

// RefOf builds a Ref from an optional id.
func RefOf(id *int) Ref {
	if id == nil {
		return Ref{}
	}
	return Ref{ID: *id, Valid: true}
}

// Ptr returns the id, or nil when the reference is empty.
func (r Ref) Ptr() *int {
	if !r.Valid {
		return nil
	}
	id := r.ID
	return &id
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(r.ID)), nil
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = Ref{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("relation object: %w", err)
		}
		raw, ok := obj["Id"]
		if !ok {
			raw, ok = obj["id"]
		}
		if !ok {
			return fmt.Errorf("relation object has no Id")
		}
		return r.UnmarshalJSON(raw)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		id, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("relation id %q is not numeric", s)
		}
		*r = Ref{ID: id, Valid: true}
		return nil
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("relation id: %w", err)
		}
		if f != float64(int(f)) {
			return fmt.Errorf("relation id %v is not an integer", f)
		}
		*r = Ref{ID: int(f), Valid: true}
		return nil
	}
}

// Scan implements sql.Scanner.
func (r *Ref) Scan(src any) error {
	*r = Ref{}
	switch v := src.(type) {
	case nil:
		return nil
	case int64:
		*r = Ref{ID: int(v), Valid: true}
	case int32:
		*r = Ref{ID: int(v), Valid: true}
	case []byte:
		return r.UnmarshalJSON(v)
	case string:
		return r.UnmarshalJSON([]byte(strconv.Quote(v)))
	default:
		return fmt.Errorf("cannot scan %T into Ref", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (r Ref) Value() (driver.Value, error) {
	if !r.Valid {
		return nil, nil
	}
	return int64(r.ID), nil
}
