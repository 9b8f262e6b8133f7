package serconv

import (
	"fmt"
	"strings"
)

// A Conversion converts documents from one format to another and knows how
// to name the converted file.
type Conversion struct {
	From             Deserializer
	To               Serializer
	SourceExtensions []string
	TargetExtension  string
}

// The supported conversions.
var (
	JSONToYAML = &Conversion{
		From:             JSONFormat,
		To:               YAMLFormat,
		SourceExtensions: []string{".json"},
		TargetExtension:  ".yml",
	}
	YAMLToJSON = &Conversion{
		From:             YAMLFormat,
		To:               JSONFormat,
		SourceExtensions: []string{".yaml", ".yml"},
		TargetExtension:  ".json",
	}
	JSONToTOML = &Conversion{
		From:             JSONFormat,
		To:               TOMLFormat,
		SourceExtensions: []string{".json"},
		TargetExtension:  ".toml",
	}
	TOMLToJSON = &Conversion{
		From:             TOMLFormat,
		To:               JSONFormat,
		SourceExtensions: []string{".toml"},
		TargetExtension:  ".json",
	}
	PickleToJSON = &Conversion{
		From:             PickleFormat,
		To:               JSONFormat,
		SourceExtensions: []string{".pickle"},
		TargetExtension:  ".json",
	}
	PickleToYAML = &Conversion{
		From:             PickleFormat,
		To:               YAMLFormat,
		SourceExtensions: []string{".pickle"},
		TargetExtension:  ".yml",
	}
	PickleToTOML = &Conversion{
		From:             PickleFormat,
		To:               TOMLFormat,
		SourceExtensions: []string{".pickle"},
		TargetExtension:  ".toml",
	}
)

// Conversions is every supported conversion, in order.
var Conversions = []*Conversion{
	JSONToYAML,
	YAMLToJSON,
	JSONToTOML,
	TOMLToJSON,
	PickleToJSON,
	PickleToYAML,
	PickleToTOML,
}

// An IllegalConversionError is returned when no Conversion exists between two
// formats.
type IllegalConversionError struct {
	From string
	To   string
}

func (e *IllegalConversionError) Error() string {
	return "Illegal conversion: " + conversionName(e.From, e.To)
}

// LookupConversion returns the Conversion from the format named from to the
// format named to.
func LookupConversion(from, to string) (*Conversion, error) {
	illegalConversionErr := &IllegalConversionError{
		From: from,
		To:   to,
	}
	deserializer, ok := Deserializers[from]
	if !ok {
		return nil, illegalConversionErr
	}
	serializer, ok := Serializers[to]
	if !ok {
		return nil, illegalConversionErr
	}
	for _, c := range Conversions {
		if c.From == deserializer && c.To == serializer {
			return c, nil
		}
	}
	return nil, illegalConversionErr
}

// ConversionNames returns the names of all Conversions, in order.
func ConversionNames() []string {
	names := make([]string, 0, len(Conversions))
	for _, c := range Conversions {
		names = append(names, c.String())
	}
	return names
}

// Convert decodes data with c's Deserializer and encodes the result with c's
// Serializer.
func (c *Conversion) Convert(data []byte) ([]byte, error) {
	value, err := c.From.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return c.To.Marshal(value)
}

func (c *Conversion) String() string {
	return conversionName(c.From.Name(), c.To.Name())
}

// TargetPath returns the path that the conversion of sourcePath is written
// to. The first of c's source extensions that sourcePath ends with is
// replaced by c's target extension. If none match, the target extension is
// appended.
func (c *Conversion) TargetPath(sourcePath string) string {
	for _, ext := range c.SourceExtensions {
		if strings.HasSuffix(sourcePath, ext) {
			return replaceLast(sourcePath, ext, c.TargetExtension)
		}
	}
	return sourcePath + c.TargetExtension
}

func conversionName(from, to string) string {
	return fmt.Sprintf("%s -> %s", from, to)
}

// replaceLast replaces the last instance of old in s with new.
func replaceLast(s, old, new string) string {
	i := strings.LastIndex(s, old)
	if i == -1 {
		return s
	}
	return s[:i] + new + s[i+len(old):]
}
