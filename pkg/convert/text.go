package convert

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/angeloszaimis/response-router/pkg/mediatype"
)

var textTypes = []mediatype.MediaType{
	mediatype.New("text", "*"),
	mediatype.OctetStream,
}

type textConverter struct{}

// Text reads text/* and application/octet-stream bodies into string kinds,
// decoding the charset parameter when it is not UTF-8.
func Text() Converter {
	return textConverter{}
}

func (textConverter) CanRead(t reflect.Type, mt mediatype.MediaType) bool {
	return t != nil && t.Kind() == reflect.String && includesAny(mt, textTypes...)
}

func (textConverter) Read(dst any, mt mediatype.MediaType, body []byte) error {
	rv := reflect.ValueOf(dst).Elem()
	if rv.Kind() != reflect.String {
		return fmt.Errorf("text: unsupported destination %T", dst)
	}

	cs := mt.Param("charset")
	if cs == "" || strings.EqualFold(cs, "utf-8") || strings.EqualFold(cs, "us-ascii") {
		rv.SetString(string(body))
		return nil
	}

	r, err := charset.NewReaderLabel(cs, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("text: charset %q: %w", cs, err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("text: decode %q: %w", cs, err)
	}
	rv.SetString(string(decoded))
	return nil
}

func (textConverter) CanWrite(t reflect.Type, mt mediatype.MediaType) bool {
	return t != nil && t.Kind() == reflect.String && includesAny(mt, textTypes...)
}

func (textConverter) Write(v any, _ mediatype.MediaType) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.String {
		return nil, fmt.Errorf("text: unsupported value %T", v)
	}
	return []byte(rv.String()), nil
}
