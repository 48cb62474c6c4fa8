package convert

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/angeloszaimis/response-router/pkg/mediatype"
)

// ErrUnsupported is returned when no converter handles a type and media type.
var ErrUnsupported = errors.New("no converter for type and media type")

// Converter reads bodies into Go values and writes Go values as bodies.
type Converter interface {
	// CanRead reports whether bodies of media type mt can be decoded into t.
	CanRead(t reflect.Type, mt mediatype.MediaType) bool
	// Read decodes body into dst, which is a non-nil pointer.
	Read(dst any, mt mediatype.MediaType, body []byte) error
	// CanWrite reports whether values of type t can be encoded as mt.
	CanWrite(t reflect.Type, mt mediatype.MediaType) bool
	// Write encodes v as mt.
	Write(v any, mt mediatype.MediaType) ([]byte, error)
}

// Registry is an ordered list of converters. It is immutable and safe for
// concurrent use.
type Registry struct {
	converters []Converter
}

// NewRegistry returns a registry that consults converters in the given order.
func NewRegistry(converters ...Converter) *Registry {
	return &Registry{converters: append([]Converter(nil), converters...)}
}

// DefaultRegistry returns the built-in converters. Protobuf comes before JSON
// so that messages use protojson instead of encoding/json.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Bytes(),
		Text(),
		Protobuf(),
		XMLDocument(),
		JSON(),
		XML(),
		YAML(),
	)
}

// With returns a new registry with converters placed before the existing ones.
func (r *Registry) With(converters ...Converter) *Registry {
	all := make([]Converter, 0, len(converters)+len(r.converters))
	all = append(all, converters...)
	all = append(all, r.converters...)
	return &Registry{converters: all}
}

// CanRead reports whether some converter can decode mt into t.
func (r *Registry) CanRead(t reflect.Type, mt mediatype.MediaType) bool {
	return r.reader(t, orOctetStream(mt)) != nil
}

// Read decodes body into dst using the first converter that accepts the
// pointed-to type and mt. An absent media type is treated as
// application/octet-stream.
func (r *Registry) Read(dst any, mt mediatype.MediaType, body []byte) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("convert: destination must be a non-nil pointer, got %T", dst)
	}

	mt = orOctetStream(mt)
	t := rv.Type().Elem()

	c := r.reader(t, mt)
	if c == nil {
		return fmt.Errorf("convert: read %s as %s: %w", mt.Essence(), t, ErrUnsupported)
	}
	return c.Read(dst, mt, body)
}

// Write encodes v as mt using the first converter that accepts it.
func (r *Registry) Write(v any, mt mediatype.MediaType) ([]byte, error) {
	t := reflect.TypeOf(v)
	for _, c := range r.converters {
		if c.CanWrite(t, mt) {
			return c.Write(v, mt)
		}
	}
	return nil, fmt.Errorf("convert: write %T as %s: %w", v, mt.Essence(), ErrUnsupported)
}

func (r *Registry) reader(t reflect.Type, mt mediatype.MediaType) Converter {
	for _, c := range r.converters {
		if c.CanRead(t, mt) {
			return c
		}
	}
	return nil
}

func orOctetStream(mt mediatype.MediaType) mediatype.MediaType {
	if mt.IsZero() {
		return mediatype.OctetStream
	}
	return mt
}

// includesAny reports whether one of the patterns includes mt.
func includesAny(mt mediatype.MediaType, patterns ...mediatype.MediaType) bool {
	for _, p := range patterns {
		if p.Includes(mt) {
			return true
		}
	}
	return false
}
