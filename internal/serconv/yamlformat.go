package serconv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"time"

	"gopkg.in/yaml.v3"
)

type yamlFormat struct{}

// YAMLFormat is the YAML serialization format.
var YAMLFormat yamlFormat

const (
	yamlIndent   = 4
	yamlMergeTag = "!!merge"

	// yamlMaxNodes bounds the number of nodes visited, counting each
	// expansion of an alias.
	yamlMaxNodes = 1 << 20
)

var errYAMLTooManyNodes = fmt.Errorf("yaml: document expands to more than %d nodes", yamlMaxNodes)

// A yamlDecoder converts a parsed document into a value tree, expanding
// aliases.
type yamlDecoder struct {
	expanding map[*yaml.Node]bool
	nodes     int
}

func (yamlFormat) Name() string {
	return "yaml"
}

// Marshal returns data as a block style YAML document indented by four
// spaces.
func (yamlFormat) Marshal(data interface{}) ([]byte, error) {
	node, err := yamlNode(data)
	if err != nil {
		return nil, err
	}
	b := &bytes.Buffer{}
	e := yaml.NewEncoder(b)
	e.SetIndent(yamlIndent)
	if err := e.Encode(node); err != nil {
		return nil, err
	}
	if err := e.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Unmarshal decodes a single YAML document. An empty stream decodes to nil.
func (yamlFormat) Unmarshal(data []byte) (interface{}, error) {
	d := yaml.NewDecoder(bytes.NewReader(data))
	var document yaml.Node
	switch err := d.Decode(&document); {
	case errors.Is(err, io.EOF):
		return nil, nil
	case err != nil:
		return nil, err
	}
	var next yaml.Node
	switch err := d.Decode(&next); {
	case errors.Is(err, io.EOF):
	case err != nil:
		return nil, err
	default:
		return nil, fmt.Errorf("yaml: line %d: expected a single document in the stream", next.Line)
	}
	yd := &yamlDecoder{
		expanding: make(map[*yaml.Node]bool),
	}
	return yd.fromNode(&document)
}

// visit counts one more node against yamlMaxNodes.
func (yd *yamlDecoder) visit() error {
	yd.nodes++
	if yd.nodes > yamlMaxNodes {
		return errYAMLTooManyNodes
	}
	return nil
}

// expandAlias calls f with the node that the alias node refers to. It fails
// if that node is already being expanded.
func (yd *yamlDecoder) expandAlias(node *yaml.Node, f func(*yaml.Node) error) error {
	if yd.expanding[node.Alias] {
		return fmt.Errorf("yaml: line %d: circular reference to anchor %q", node.Line, node.Value)
	}
	yd.expanding[node.Alias] = true
	defer delete(yd.expanding, node.Alias)
	return f(node.Alias)
}

func (yd *yamlDecoder) fromNode(node *yaml.Node) (interface{}, error) {
	if err := yd.visit(); err != nil {
		return nil, err
	}
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return yd.fromNode(node.Content[0])
	case yaml.AliasNode:
		var value interface{}
		err := yd.expandAlias(node, func(target *yaml.Node) error {
			var err error
			value, err = yd.fromNode(target)
			return err
		})
		return value, err
	case yaml.SequenceNode:
		s := make([]interface{}, 0, len(node.Content))
		for _, elementNode := range node.Content {
			element, err := yd.fromNode(elementNode)
			if err != nil {
				return nil, err
			}
			s = append(s, element)
		}
		return s, nil
	case yaml.MappingNode:
		return yd.fromMappingNode(node)
	case yaml.ScalarNode:
		return fromYAMLScalarNode(node)
	default:
		return nil, fmt.Errorf("yaml: line %d: unknown node kind %d", node.Line, node.Kind)
	}
}

func (yd *yamlDecoder) fromMappingNode(node *yaml.Node) (*Map, error) {
	m := NewMap()
	var merges []*Map
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if keyNode.Kind == yaml.ScalarNode && keyNode.ShortTag() == yamlMergeTag {
			sources, err := yd.mergeSources(valueNode)
			if err != nil {
				return nil, err
			}
			merges = append(merges, sources...)
			continue
		}
		if keyNode.Kind == yaml.AliasNode {
			keyNode = keyNode.Alias
		}
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("yaml: line %d: mapping keys must be scalars", keyNode.Line)
		}
		rawKey, err := fromYAMLScalarNode(keyNode)
		if err != nil {
			return nil, err
		}
		key, err := keyString(YAMLFormat.Name(), rawKey)
		if err != nil {
			return nil, fmt.Errorf("yaml: line %d: %w", keyNode.Line, err)
		}
		value, err := yd.fromNode(valueNode)
		if err != nil {
			return nil, err
		}
		m.Set(key, value)
	}
	for _, source := range merges {
		m.mergeMissing(source)
	}
	return m, nil
}

// mergeSources returns the mappings referenced by the value of a << key,
// which is either a single mapping or a sequence of mappings.
func (yd *yamlDecoder) mergeSources(node *yaml.Node) ([]*Map, error) {
	if err := yd.visit(); err != nil {
		return nil, err
	}
	switch node.Kind {
	case yaml.AliasNode:
		var sources []*Map
		err := yd.expandAlias(node, func(target *yaml.Node) error {
			var err error
			sources, err = yd.mergeSources(target)
			return err
		})
		return sources, err
	case yaml.MappingNode:
		m, err := yd.fromMappingNode(node)
		if err != nil {
			return nil, err
		}
		return []*Map{m}, nil
	case yaml.SequenceNode:
		var sources []*Map
		for _, elementNode := range node.Content {
			elementSources, err := yd.mergeSources(elementNode)
			if err != nil {
				return nil, err
			}
			sources = append(sources, elementSources...)
		}
		return sources, nil
	default:
		return nil, fmt.Errorf("yaml: line %d: map merge requires map or sequence of maps as the value", node.Line)
	}
}

func fromYAMLScalarNode(node *yaml.Node) (interface{}, error) {
	var value interface{}
	if err := node.Decode(&value); err != nil {
		return nil, err
	}
	switch value := value.(type) {
	case nil, bool, string, float64, time.Time:
		return value, nil
	case int:
		return int64(value), nil
	case int64:
		return value, nil
	case uint64:
		if value <= math.MaxInt64 {
			return int64(value), nil
		}
		return integer(new(big.Int).SetUint64(value)), nil
	default:
		return nil, fmt.Errorf("yaml: line %d: %w", node.Line, &UnsupportedValueError{
			Format: YAMLFormat.Name(),
			Value:  value,
		})
	}
}

func yamlNode(data interface{}) (*yaml.Node, error) {
	switch data := data.(type) {
	case nil, bool, int64, string, time.Time:
		node := &yaml.Node{}
		if err := node.Encode(data); err != nil {
			return nil, err
		}
		return node, nil
	case float64:
		return &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!float",
			Value: yamlFloat(data),
		}, nil
	case []interface{}:
		node := &yaml.Node{
			Kind: yaml.SequenceNode,
			Tag:  "!!seq",
		}
		if len(data) == 0 {
			node.Style = yaml.FlowStyle
		}
		for _, element := range data {
			elementNode, err := yamlNode(element)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, elementNode)
		}
		return node, nil
	case *Map:
		node := &yaml.Node{
			Kind: yaml.MappingNode,
			Tag:  "!!map",
		}
		if data.Len() == 0 {
			node.Style = yaml.FlowStyle
		}
		for _, key := range data.Keys() {
			keyNode := &yaml.Node{}
			if err := keyNode.Encode(key); err != nil {
				return nil, err
			}
			value, _ := data.Get(key)
			valueNode, err := yamlNode(value)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, keyNode, valueNode)
		}
		return node, nil
	default:
		return nil, &UnsupportedValueError{
			Format: YAMLFormat.Name(),
			Value:  data,
		}
	}
}

func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	default:
		return formatFloat(f)
	}
}

func init() {
	registerFormat(YAMLFormat)
}
