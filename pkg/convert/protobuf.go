package convert

import (
	"fmt"
	"reflect"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/angeloszaimis/response-router/pkg/mediatype"
)

var (
	messageType = reflect.TypeFor[proto.Message]()

	protobufTypes = []mediatype.MediaType{
		mediatype.Protobuf,
		mediatype.New("application", "protobuf"),
		mediatype.New("application", "vnd.google.protobuf"),
	}
)

type protobufConverter struct {
	unmarshal protojson.UnmarshalOptions
}

// Protobuf handles proto.Message targets, in binary wire format for the
// protobuf media types and through protojson for JSON media types. Unknown
// JSON fields are ignored.
func Protobuf() Converter {
	return protobufConverter{unmarshal: protojson.UnmarshalOptions{DiscardUnknown: true}}
}

func (protobufConverter) handles(t reflect.Type, mt mediatype.MediaType) bool {
	if t == nil || !t.Implements(messageType) {
		return false
	}
	return includesAny(mt, protobufTypes...) || isJSON(mt)
}

func (c protobufConverter) CanRead(t reflect.Type, mt mediatype.MediaType) bool {
	return c.handles(t, mt)
}

func (c protobufConverter) Read(dst any, mt mediatype.MediaType, body []byte) error {
	rv := reflect.ValueOf(dst).Elem()
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		rv.Set(reflect.New(rv.Type().Elem()))
	}

	msg, ok := rv.Interface().(proto.Message)
	if !ok {
		return fmt.Errorf("protobuf: unsupported destination %T", dst)
	}

	if isJSON(mt) {
		if err := c.unmarshal.Unmarshal(body, msg); err != nil {
			return fmt.Errorf("protobuf: %w", err)
		}
		return nil
	}
	if err := proto.Unmarshal(body, msg); err != nil {
		return fmt.Errorf("protobuf: %w", err)
	}
	return nil
}

func (c protobufConverter) CanWrite(t reflect.Type, mt mediatype.MediaType) bool {
	return c.handles(t, mt)
}

func (protobufConverter) Write(v any, mt mediatype.MediaType) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("protobuf: unsupported value %T", v)
	}
	if isJSON(mt) {
		return protojson.Marshal(msg)
	}
	return proto.Marshal(msg)
}
