package rdf

import (
	"fmt"
	"maps"
	"mime"
	"slices"
	"strings"
	"sync"
)

// Parser turns serialized RDF into a dataset.
type Parser interface {
	Parse(data []byte) (*Dataset, error)
}

// Serializer turns a dataset into serialized RDF.
type Serializer interface {
	Serialize(ds *Dataset) ([]byte, error)
}

// ParserFunc adapts a function to a [Parser].
type ParserFunc func(data []byte) (*Dataset, error)

func (f ParserFunc) Parse(data []byte) (*Dataset, error) {
	return f(data)
}

// SerializerFunc adapts a function to a [Serializer].
type SerializerFunc func(ds *Dataset) ([]byte, error)

func (f SerializerFunc) Serialize(ds *Dataset) ([]byte, error) {
	return f(ds)
}

// Codec pairs a parser and a serializer for a media type. Either may be nil
// if the format can only be read or written.
type Codec struct {
	Parser     Parser
	Serializer Serializer
}

// Registry maps media types to codecs. It's safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// Media types of the codecs in [DefaultRegistry].
const (
	MediaTypeNQuads      = "application/n-quads"
	MediaTypeNQuadsAlias = "application/nquads"
	MediaTypeTurtle      = "text/turtle"
)

// DefaultRegistry is the process-wide registry. It has N-Quads and Turtle
// registered.
var DefaultRegistry = NewRegistry()

func init() {
	nq := Codec{Parser: NQuads{}, Serializer: NQuads{}}
	DefaultRegistry.Register(MediaTypeNQuads, nq)
	DefaultRegistry.Register(MediaTypeNQuadsAlias, nq)
	DefaultRegistry.Register(MediaTypeTurtle, Codec{Parser: Turtle{}, Serializer: Turtle{}})
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec, 4)}
}

func normalizeMediaType(mediaType string) string {
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// Register adds or replaces the codec for a media type.
func (r *Registry) Register(mediaType string, c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[normalizeMediaType(mediaType)] = c
}

// Unregister removes the codec for a media type.
func (r *Registry) Unregister(mediaType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.codecs, normalizeMediaType(mediaType))
}

// Lookup returns the codec for a media type. Media type parameters are
// ignored. It returns [ErrUnknownFormat] if nothing is registered.
func (r *Registry) Lookup(mediaType string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.codecs[normalizeMediaType(mediaType)]
	if !ok {
		return Codec{}, fmt.Errorf("%w: %s", ErrUnknownFormat, mediaType)
	}
	return c, nil
}

// Parser returns the parser for a media type.
func (r *Registry) Parser(mediaType string) (Parser, error) {
	c, err := r.Lookup(mediaType)
	if err != nil {
		return nil, err
	}
	if c.Parser == nil {
		return nil, fmt.Errorf("%w: %s can't be parsed", ErrUnknownFormat, mediaType)
	}
	return c.Parser, nil
}

// Serializer returns the serializer for a media type.
func (r *Registry) Serializer(mediaType string) (Serializer, error) {
	c, err := r.Lookup(mediaType)
	if err != nil {
		return nil, err
	}
	if c.Serializer == nil {
		return nil, fmt.Errorf("%w: %s can't be serialized", ErrUnknownFormat, mediaType)
	}
	return c.Serializer, nil
}

// Formats returns the registered media types in sorted order.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.codecs))
}
