package serconv

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

type jsonFormat struct{}

// JSONFormat is the JSON serialization format.
var JSONFormat jsonFormat

const jsonIndent = "    "

func (jsonFormat) Name() string {
	return "json"
}

// Marshal returns data as indented JSON with keys in insertion order and no
// trailing newline.
func (jsonFormat) Marshal(data interface{}) ([]byte, error) {
	compact := &bytes.Buffer{}
	if err := appendJSON(compact, data); err != nil {
		return nil, err
	}
	indented := &bytes.Buffer{}
	if err := json.Indent(indented, compact.Bytes(), "", jsonIndent); err != nil {
		return nil, err
	}
	return indented.Bytes(), nil
}

// Unmarshal decodes a single JSON document.
func (jsonFormat) Unmarshal(data []byte) (interface{}, error) {
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	result, err := decodeJSON(d)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if _, err := d.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("json: invalid data after top-level value at offset %d", d.InputOffset())
	}
	return result, nil
}

func decodeJSON(d *json.Decoder) (interface{}, error) {
	token, err := d.Token()
	if err != nil {
		return nil, err
	}
	switch token := token.(type) {
	case json.Delim:
		switch token {
		case '{':
			m := NewMap()
			for d.More() {
				keyToken, err := d.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyToken.(string)
				if !ok {
					return nil, fmt.Errorf("json: unexpected %v at offset %d", keyToken, d.InputOffset())
				}
				value, err := decodeJSON(d)
				if err != nil {
					return nil, err
				}
				m.Set(key, value)
			}
			if _, err := d.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			s := []interface{}{}
			for d.More() {
				value, err := decodeJSON(d)
				if err != nil {
					return nil, err
				}
				s = append(s, value)
			}
			if _, err := d.Token(); err != nil {
				return nil, err
			}
			return s, nil
		default:
			return nil, fmt.Errorf("json: unexpected %v at offset %d", token, d.InputOffset())
		}
	case json.Number:
		if i, err := token.Int64(); err == nil {
			return i, nil
		}
		return token.Float64()
	default:
		// string, bool, or nil.
		return token, nil
	}
}

func appendJSON(b *bytes.Buffer, data interface{}) error {
	switch data := data.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(data))
	case int64:
		b.WriteString(strconv.FormatInt(data, 10))
	case float64:
		if math.IsNaN(data) || math.IsInf(data, 0) {
			// Let encoding/json report the value it cannot encode.
			_, err := json.Marshal(data)
			return err
		}
		b.WriteString(formatFloat(data))
	case string:
		return appendJSONString(b, data)
	case time.Time:
		return appendJSONString(b, data.Format(time.RFC3339Nano))
	case []interface{}:
		b.WriteByte('[')
		for i, element := range data {
			if i != 0 {
				b.WriteByte(',')
			}
			if err := appendJSON(b, element); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case *Map:
		b.WriteByte('{')
		for i, key := range data.Keys() {
			if i != 0 {
				b.WriteByte(',')
			}
			if err := appendJSONString(b, key); err != nil {
				return err
			}
			b.WriteByte(':')
			value, _ := data.Get(key)
			if err := appendJSON(b, value); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return &UnsupportedValueError{
			Format: JSONFormat.Name(),
			Value:  data,
		}
	}
	return nil
}

func appendJSONString(b *bytes.Buffer, s string) error {
	e := json.NewEncoder(b)
	e.SetEscapeHTML(false)
	if err := e.Encode(s); err != nil {
		return err
	}
	// Encode terminates each value with a newline.
	b.Truncate(b.Len() - 1)
	return nil
}

func init() {
	registerFormat(JSONFormat)
}
