package serconv

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"
)

// A Map is a mapping from strings to values that remembers the order in which
// keys were first inserted.
//
// Together with []interface{}, nil, bool, int64, float64, string, and
// time.Time it forms the value tree that every Deserializer produces and every
// Serializer consumes.
type Map struct {
	keys   []string
	values map[string]interface{}
}

// NewMap returns a new empty Map.
func NewMap() *Map {
	return &Map{
		values: make(map[string]interface{}),
	}
}

// Get returns the value associated with key and whether key is present.
func (m *Map) Get(key string) (interface{}, bool) {
	value, ok := m.values[key]
	return value, ok
}

// Keys returns m's keys in insertion order.
func (m *Map) Keys() []string {
	return m.keys
}

// Len returns the number of keys in m.
func (m *Map) Len() int {
	return len(m.keys)
}

// Set sets the value of key. A key that is already present keeps its
// position.
func (m *Map) Set(key string, value interface{}) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// mergeMissing copies every key of source that is not already in m, in
// source's order.
func (m *Map) mergeMissing(source *Map) {
	for _, key := range source.keys {
		if _, ok := m.values[key]; !ok {
			m.Set(key, source.values[key])
		}
	}
}

// An UnsupportedValueError is returned when a value cannot be represented in
// the value tree or in a target format.
type UnsupportedValueError struct {
	Format string
	Value  interface{}
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("%s: unsupported value of type %T", e.Format, e.Value)
}

// integer returns the tree representation of an integer that may exceed the
// range of int64.
func integer(i *big.Int) interface{} {
	if i.IsInt64() {
		return i.Int64()
	}
	f, _ := new(big.Float).SetInt(i).Float64()
	return f
}

// keyString returns the string used as a mapping key for the scalar key.
func keyString(format string, key interface{}) (string, error) {
	switch key := key.(type) {
	case string:
		return key, nil
	case nil:
		return "null", nil
	case bool:
		return strconv.FormatBool(key), nil
	case int:
		return strconv.Itoa(key), nil
	case int64:
		return strconv.FormatInt(key, 10), nil
	case uint64:
		return strconv.FormatUint(key, 10), nil
	case *big.Int:
		return key.String(), nil
	case float64:
		return formatFloat(key), nil
	case time.Time:
		return key.Format(time.RFC3339Nano), nil
	default:
		return "", &UnsupportedValueError{
			Format: format,
			Value:  key,
		}
	}
}

// formatFloat formats f so that it is never mistaken for an integer.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	for _, r := range s {
		if r == '.' || r == 'e' || r == 'E' {
			return s
		}
	}
	return s + ".0"
}
