// Package convert turns response bodies into Go values and request values
// into bodies.
//
// A Converter declares which Go types and media types it handles. A Registry
// holds converters in priority order and delegates to the first one that can
// handle the pair, in the same way an HTTP client consults its message
// converters. DefaultRegistry covers raw bytes, text, protobuf, JSON, XML and
// YAML:
//
//	reg := convert.DefaultRegistry()
//	var order Order
//	err := reg.Read(&order, mediatype.JSON, body)
//
// SchemaValidated wraps a converter so JSON payloads are checked against a
// JSON Schema before they are decoded.
package convert
