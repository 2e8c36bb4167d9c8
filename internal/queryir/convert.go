package queryir

import (
	"errors"
	"fmt"
)

// ErrUnsupportedValue is returned when a Go value has no Value variant.
var ErrUnsupportedValue = errors.New("unsupported value type")

// ValueOf converts a Go value into a Value.
//
// nil, bool, every integer and float kind, string, []any and existing
// Values are accepted. fmt.Stringer implementations become Custom values.
// Anything else yields an error wrapping ErrUnsupportedValue.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return Text(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		return uintValue(uint64(val))
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		return uintValue(val)
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			item, err := ValueOf(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = item
		}
		return list, nil
	case []string:
		list := make(List, len(val))
		for i, s := range val {
			list[i] = Text(s)
		}
		return list, nil
	case fmt.Stringer:
		return Custom{Stringer: val}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func uintValue(u uint64) (Value, error) {
	if u > 1<<63-1 {
		return nil, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, u)
	}
	return Int(int64(u)), nil
}

// MustValueOf is like ValueOf but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustValueOf(v any) Value {
	val, err := ValueOf(v)
	if err != nil {
		panic(err)
	}
	return val
}

// RowOf converts a map of Go values into a Row.
func RowOf(m map[string]any) (Row, error) {
	row := make(Row, len(m))
	for k, v := range m {
		val, err := ValueOf(v)
		if err != nil {
			return nil, fmt.Errorf("row[%q]: %w", k, err)
		}
		row[k] = val
	}
	return row, nil
}
