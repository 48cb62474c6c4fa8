package convert

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/angeloszaimis/response-router/pkg/mediatype"
)

var jsonTypes = []mediatype.MediaType{
	mediatype.JSON,
	mediatype.MustParse("application/*+json"),
}

type jsonConverter struct{}

// JSON handles application/json and every +json structured type.
func JSON() Converter {
	return jsonConverter{}
}

func isJSON(mt mediatype.MediaType) bool {
	return includesAny(mt, jsonTypes...)
}

func (jsonConverter) CanRead(t reflect.Type, mt mediatype.MediaType) bool {
	return t != nil && isJSON(mt)
}

func (jsonConverter) Read(dst any, _ mediatype.MediaType, body []byte) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("json: %w", err)
	}
	return nil
}

func (jsonConverter) CanWrite(t reflect.Type, mt mediatype.MediaType) bool {
	return t != nil && isJSON(mt)
}

func (jsonConverter) Write(v any, _ mediatype.MediaType) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return b, nil
}
