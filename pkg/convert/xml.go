package convert

import (
	"encoding/xml"
	"fmt"
	"reflect"

	"github.com/beevik/etree"

	"github.com/angeloszaimis/response-router/pkg/mediatype"
)

var (
	xmlTypes = []mediatype.MediaType{
		mediatype.XML,
		mediatype.TextXML,
		mediatype.MustParse("application/*+xml"),
	}
	documentType = reflect.TypeFor[*etree.Document]()
)

func isXML(mt mediatype.MediaType) bool {
	return includesAny(mt, xmlTypes...)
}

type xmlConverter struct{}

// XML decodes XML bodies into structs with encoding/xml.
func XML() Converter {
	return xmlConverter{}
}

func (xmlConverter) CanRead(t reflect.Type, mt mediatype.MediaType) bool {
	return t != nil && isXML(mt)
}

func (xmlConverter) Read(dst any, _ mediatype.MediaType, body []byte) error {
	if err := xml.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("xml: %w", err)
	}
	return nil
}

func (xmlConverter) CanWrite(t reflect.Type, mt mediatype.MediaType) bool {
	return t != nil && isXML(mt)
}

func (xmlConverter) Write(v any, _ mediatype.MediaType) ([]byte, error) {
	b, err := xml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("xml: %w", err)
	}
	return append([]byte(xml.Header), b...), nil
}

type documentConverter struct{}

// XMLDocument reads XML bodies into *etree.Document for callers that want to
// walk the tree or query it with paths instead of binding to structs.
func XMLDocument() Converter {
	return documentConverter{}
}

func (documentConverter) CanRead(t reflect.Type, mt mediatype.MediaType) bool {
	return t == documentType && isXML(mt)
}

func (documentConverter) Read(dst any, _ mediatype.MediaType, body []byte) error {
	p, ok := dst.(**etree.Document)
	if !ok {
		return fmt.Errorf("xml document: unsupported destination %T", dst)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return fmt.Errorf("xml document: %w", err)
	}
	if doc.Root() == nil {
		return fmt.Errorf("xml document: no root element")
	}
	*p = doc
	return nil
}

func (documentConverter) CanWrite(t reflect.Type, mt mediatype.MediaType) bool {
	return t == documentType && isXML(mt)
}

func (documentConverter) Write(v any, _ mediatype.MediaType) ([]byte, error) {
	doc, ok := v.(*etree.Document)
	if !ok || doc == nil {
		return nil, fmt.Errorf("xml document: unsupported value %T", v)
	}
	return doc.WriteToBytes()
}
