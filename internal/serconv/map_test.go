package serconv

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestMap returns a new Map populated from alternating keys and values.
func newTestMap(keyValues ...interface{}) *Map {
	m := NewMap()
	for i := 0; i+1 < len(keyValues); i += 2 {
		m.Set(keyValues[i].(string), keyValues[i+1])
	}
	return m
}

func TestMapSet(t *testing.T) {
	m := NewMap()
	m.Set("b", int64(1))
	m.Set("a", int64(2))
	m.Set("b", int64(3))
	assert.Equal(t, []string{"b", "a"}, m.Keys())
	assert.Equal(t, 2, m.Len())
	value, ok := m.Get("b")
	assert.True(t, ok)
	assert.Equal(t, int64(3), value)
	_, ok = m.Get("c")
	assert.False(t, ok)
}

func TestMapMergeMissing(t *testing.T) {
	m := newTestMap("a", int64(1))
	m.mergeMissing(newTestMap("b", int64(2), "a", int64(3)))
	assert.Equal(t, newTestMap("a", int64(1), "b", int64(2)), m)
}

func TestKeyString(t *testing.T) {
	for _, tc := range []struct {
		name        string
		key         interface{}
		expected    string
		expectedErr bool
	}{
		{
			name:     "string",
			key:      "a",
			expected: "a",
		},
		{
			name:     "nil",
			key:      nil,
			expected: "null",
		},
		{
			name:     "bool",
			key:      true,
			expected: "true",
		},
		{
			name:     "int",
			key:      1,
			expected: "1",
		},
		{
			name:     "int64",
			key:      int64(-2),
			expected: "-2",
		},
		{
			name:     "big_int",
			key:      new(big.Int).Lsh(big.NewInt(1), 70),
			expected: "1180591620717411303424",
		},
		{
			name:     "float64",
			key:      1.5,
			expected: "1.5",
		},
		{
			name:        "slice",
			key:         []interface{}{},
			expectedErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := keyString("test", tc.key)
			if tc.expectedErr {
				var unsupportedValueErr *UnsupportedValueError
				assert.ErrorAs(t, err, &unsupportedValueErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, actual)
			}
		})
	}
}

func TestFormatFloat(t *testing.T) {
	for f, expected := range map[float64]string{
		0:            "0.0",
		1:            "1.0",
		-3:           "-3.0",
		1.5:          "1.5",
		1e21:         "1e+21",
		0.0001:       "0.0001",
		math.Inf(1):  "Infinity",
		math.Inf(-1): "-Infinity",
	} {
		assert.Equal(t, expected, formatFloat(f))
	}
	assert.Equal(t, "NaN", formatFloat(math.NaN()))
}

func TestInteger(t *testing.T) {
	assert.Equal(t, int64(42), integer(big.NewInt(42)))
	assert.Equal(t, float64(1<<64), integer(new(big.Int).Lsh(big.NewInt(1), 64)))
}
