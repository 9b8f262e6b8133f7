package serconv

import (
	"fmt"
	"math/big"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"
)

// pickleFormat reads Python pickles. Only the builtin types that have an
// equivalent in the value tree are accepted. It cannot write pickles.
type pickleFormat struct{}

// PickleFormat is the Python pickle serialization format.
var PickleFormat pickleFormat

func (pickleFormat) Name() string {
	return "pickle"
}

func (pickleFormat) Unmarshal(data []byte) (interface{}, error) {
	object, err := pickle.Loads(string(data))
	if err != nil {
		return nil, err
	}
	pd := &pickleDecoder{
		containers: make(map[interface{}]bool),
	}
	return pd.fromObject(object)
}

// A pickleDecoder converts unpickled objects into a value tree. containers
// holds the containers on the current path so that self-referencing objects
// are rejected.
type pickleDecoder struct {
	containers map[interface{}]bool
}

func (pd *pickleDecoder) enter(container interface{}) error {
	if pd.containers[container] {
		return fmt.Errorf("pickle: circular reference to %T", container)
	}
	pd.containers[container] = true
	return nil
}

func (pd *pickleDecoder) leave(container interface{}) {
	delete(pd.containers, container)
}

func (pd *pickleDecoder) fromObject(object interface{}) (interface{}, error) {
	switch object := object.(type) {
	case nil:
		return nil, nil
	case bool, string, float64:
		return object, nil
	case int:
		return int64(object), nil
	case int64:
		return object, nil
	case *big.Int:
		return integer(object), nil
	case *types.Dict:
		if err := pd.enter(object); err != nil {
			return nil, err
		}
		defer pd.leave(object)
		m := NewMap()
		for _, rawKey := range object.Keys() {
			key, err := keyString(PickleFormat.Name(), rawKey)
			if err != nil {
				return nil, err
			}
			rawValue, _ := object.Get(rawKey)
			value, err := pd.fromObject(rawValue)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			m.Set(key, value)
		}
		return m, nil
	case *types.List:
		if err := pd.enter(object); err != nil {
			return nil, err
		}
		defer pd.leave(object)
		return pd.fromSequence(object.Len(), object.Get)
	case *types.Tuple:
		if err := pd.enter(object); err != nil {
			return nil, err
		}
		defer pd.leave(object)
		return pd.fromSequence(object.Len(), object.Get)
	default:
		return nil, &UnsupportedValueError{
			Format: PickleFormat.Name(),
			Value:  object,
		}
	}
}

func (pd *pickleDecoder) fromSequence(n int, get func(int) interface{}) ([]interface{}, error) {
	s := make([]interface{}, 0, n)
	for i := 0; i < n; i++ {
		element, err := pd.fromObject(get(i))
		if err != nil {
			return nil, err
		}
		s = append(s, element)
	}
	return s, nil
}

func init() {
	Deserializers[PickleFormat.Name()] = PickleFormat
}
