package docstore

import (
	"encoding/json"
	"fmt"
	"time"
)

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Field names stamped by the store
const (
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldDeletedAt = "deletedAt"
)

type increment struct{ n int64 }

type arrayUnion struct{ values []string }

type arrayRemove struct{ values []string }

// Increment atomically adds n to a numeric field; a missing field counts as 0.
func Increment(n int64) any {
	return increment{n: n}
}

// ArrayUnion adds values to a string array field, skipping ones already present.
func ArrayUnion(values ...string) any {
	return arrayUnion{values: values}
}

// ArrayRemove removes every occurrence of values from a string array field.
func ArrayRemove(values ...string) any {
	return arrayRemove{values: values}
}

// FormatTime renders t the way the store persists timestamps
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// normalize converts a Go value to its stored JSON-compatible form.
func normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return FormatTime(x), nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return FormatTime(*x), nil
	case *string:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	case *int:
		if x == nil {
			return nil, nil
		}
		return int64(*x), nil
	case string, bool, float64, []string:
		return x, nil
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case fmt.Stringer:
		return x.String(), nil
	}

	// Named string types such as model.Status
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	switch out.(type) {
	case map[string]any:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return out, nil
}

// encodeJSON renders a normalized value as a JSON literal.
func encodeJSON(v any) (string, error) {
	n, err := normalize(v)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return string(b), nil
}

// sqlArg converts a filter value into a bind argument comparable with
// json_extract output.
func sqlArg(v any) (any, error) {
	n, err := normalize(v)
	if err != nil {
		return nil, err
	}
	switch x := n.(type) {
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case []string, []any:
		return nil, fmt.Errorf("%w: array in comparison", ErrUnsupportedValue)
	}
	return n, nil
}
