package convert

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/angeloszaimis/response-router/pkg/mediatype"
)

var bytesType = reflect.TypeFor[[]byte]()

type bytesConverter struct{}

// Bytes hands out the raw body for any media type.
func Bytes() Converter {
	return bytesConverter{}
}

func (bytesConverter) CanRead(t reflect.Type, _ mediatype.MediaType) bool {
	return t == bytesType
}

func (bytesConverter) Read(dst any, _ mediatype.MediaType, body []byte) error {
	p, ok := dst.(*[]byte)
	if !ok {
		return fmt.Errorf("bytes: unsupported destination %T", dst)
	}
	*p = bytes.Clone(body)
	return nil
}

func (bytesConverter) CanWrite(t reflect.Type, _ mediatype.MediaType) bool {
	return t == bytesType
}

func (bytesConverter) Write(v any, _ mediatype.MediaType) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("bytes: unsupported value %T", v)
	}
	return b, nil
}
