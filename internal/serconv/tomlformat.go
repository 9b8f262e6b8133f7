package serconv

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/pelletier/go-toml"
)

type tomlFormat struct{}

// TOMLFormat is the TOML serialization format.
var TOMLFormat tomlFormat

var (
	errTOMLTopLevel = errors.New("toml: top-level value must be a table")
	errTOMLEmptyKey = errors.New("toml: empty keys are not supported")
)

func (tomlFormat) Name() string {
	return "toml"
}

// Marshal returns data, which must be a *Map, as a TOML document. TOML has no
// null, so nil values in tables are omitted.
func (tomlFormat) Marshal(data interface{}) ([]byte, error) {
	m, ok := data.(*Map)
	if !ok {
		return nil, errTOMLTopLevel
	}
	tree, err := tomlTree(m)
	if err != nil {
		return nil, err
	}
	return tree.Marshal()
}

func (tomlFormat) Unmarshal(data []byte) (interface{}, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, err
	}
	return fromTOMLTree(tree)
}

// fromTOMLTree converts tree into a *Map whose keys are in the order they
// appear in the document.
func fromTOMLTree(tree *toml.Tree) (*Map, error) {
	type positionedKey struct {
		key      string
		position toml.Position
	}
	keys := tree.Keys()
	positionedKeys := make([]positionedKey, 0, len(keys))
	for _, key := range keys {
		positionedKeys = append(positionedKeys, positionedKey{
			key:      key,
			position: tree.GetPositionPath([]string{key}),
		})
	}
	sort.Slice(positionedKeys, func(i, j int) bool {
		pi, pj := positionedKeys[i].position, positionedKeys[j].position
		switch {
		case pi.Line != pj.Line:
			return pi.Line < pj.Line
		case pi.Col != pj.Col:
			return pi.Col < pj.Col
		default:
			return positionedKeys[i].key < positionedKeys[j].key
		}
	})

	m := NewMap()
	for _, pk := range positionedKeys {
		value, err := fromTOMLValue(tree.GetPath([]string{pk.key}))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pk.key, err)
		}
		m.Set(pk.key, value)
	}
	return m, nil
}

func fromTOMLValue(value interface{}) (interface{}, error) {
	switch value := value.(type) {
	case *toml.Tree:
		return fromTOMLTree(value)
	case []*toml.Tree:
		s := make([]interface{}, 0, len(value))
		for _, tree := range value {
			m, err := fromTOMLTree(tree)
			if err != nil {
				return nil, err
			}
			s = append(s, m)
		}
		return s, nil
	case []interface{}:
		s := make([]interface{}, 0, len(value))
		for _, element := range value {
			v, err := fromTOMLValue(element)
			if err != nil {
				return nil, err
			}
			s = append(s, v)
		}
		return s, nil
	case bool, int64, float64, string, time.Time:
		return value, nil
	case toml.LocalDate:
		return value.String(), nil
	case toml.LocalDateTime:
		return value.String(), nil
	case toml.LocalTime:
		return value.String(), nil
	}
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Slice {
		s := make([]interface{}, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			v, err := fromTOMLValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			s = append(s, v)
		}
		return s, nil
	}
	return nil, &UnsupportedValueError{
		Format: TOMLFormat.Name(),
		Value:  value,
	}
}

func tomlTree(m *Map) (*toml.Tree, error) {
	tree, err := toml.TreeFromMap(map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	for _, key := range m.Keys() {
		if key == "" {
			return nil, errTOMLEmptyKey
		}
		value, _ := m.Get(key)
		if value == nil {
			continue
		}
		tomlValue, err := toTOMLValue(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		tree.SetPath([]string{key}, tomlValue)
	}
	return tree, nil
}

func toTOMLValue(data interface{}) (interface{}, error) {
	switch data := data.(type) {
	case bool, int64, float64, string, time.Time:
		return data, nil
	case *Map:
		return tomlTree(data)
	case []interface{}:
		switch trees, err := tomlTrees(data); {
		case err != nil:
			return nil, err
		case trees != nil:
			return trees, nil
		}
		s := make([]interface{}, 0, len(data))
		for _, element := range data {
			if _, ok := element.(*Map); ok {
				return nil, fmt.Errorf("toml: cannot mix tables and values in an array")
			}
			v, err := toTOMLValue(element)
			if err != nil {
				return nil, err
			}
			s = append(s, v)
		}
		return s, nil
	default:
		return nil, &UnsupportedValueError{
			Format: TOMLFormat.Name(),
			Value:  data,
		}
	}
}

// tomlTrees returns s as an array of tables if s is non-empty and every
// element is a *Map, and nil otherwise.
func tomlTrees(s []interface{}) ([]*toml.Tree, error) {
	if len(s) == 0 {
		return nil, nil
	}
	for _, element := range s {
		if _, ok := element.(*Map); !ok {
			return nil, nil
		}
	}
	trees := make([]*toml.Tree, 0, len(s))
	for _, element := range s {
		tree, err := tomlTree(element.(*Map))
		if err != nil {
			return nil, err
		}
		trees = append(trees, tree)
	}
	return trees, nil
}

func init() {
	registerFormat(TOMLFormat)
}
