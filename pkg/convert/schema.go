package convert

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/angeloszaimis/response-router/pkg/mediatype"
)

type schemaValidated struct {
	Converter
	schema *jsonschema.Schema
}

// SchemaValidated wraps c so that every JSON body it reads is first validated
// against the given JSON Schema (draft 2020-12). The url only names the
// schema resource; nothing is fetched.
func SchemaValidated(c Converter, url string, schema []byte) (Converter, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource(url, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("schema %s: %w", url, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", url, err)
	}

	return &schemaValidated{Converter: c, schema: compiled}, nil
}

func (s *schemaValidated) Read(dst any, mt mediatype.MediaType, body []byte) error {
	if isJSON(mt) {
		var doc any
		if err := json.Unmarshal(body, &doc); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
		if err := s.schema.Validate(doc); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return s.Converter.Read(dst, mt, body)
}
