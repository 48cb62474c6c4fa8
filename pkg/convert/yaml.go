package convert

import (
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/angeloszaimis/response-router/pkg/mediatype"
)

var yamlTypes = []mediatype.MediaType{
	mediatype.YAML,
	mediatype.New("application", "x-yaml"),
	mediatype.New("text", "yaml"),
	mediatype.New("text", "x-yaml"),
	mediatype.MustParse("application/*+yaml"),
}

type yamlConverter struct{}

// YAML handles the YAML media types with gopkg.in/yaml.v3.
func YAML() Converter {
	return yamlConverter{}
}

func (yamlConverter) CanRead(t reflect.Type, mt mediatype.MediaType) bool {
	return t != nil && includesAny(mt, yamlTypes...)
}

func (yamlConverter) Read(dst any, _ mediatype.MediaType, body []byte) error {
	if err := yaml.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("yaml: %w", err)
	}
	return nil
}

func (yamlConverter) CanWrite(t reflect.Type, mt mediatype.MediaType) bool {
	return t != nil && includesAny(mt, yamlTypes...)
}

func (yamlConverter) Write(v any, _ mediatype.MediaType) ([]byte, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return b, nil
}
