package serconv

// A Deserializer decodes a document into a value tree.
type Deserializer interface {
	Name() string
	Unmarshal(data []byte) (interface{}, error)
}

// A Serializer encodes a value tree into a document.
type Serializer interface {
	Marshal(data interface{}) ([]byte, error)
	Name() string
}

// A Format is a serialization format that can be both read and written.
type Format interface {
	Deserializer
	Serializer
}

// Deserializers is a map of all Deserializers by name.
var Deserializers = make(map[string]Deserializer)

// Serializers is a map of all Serializers by name.
var Serializers = make(map[string]Serializer)

func registerFormat(format Format) {
	Deserializers[format.Name()] = format
	Serializers[format.Name()] = format
}
