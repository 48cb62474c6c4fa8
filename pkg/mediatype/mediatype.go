package mediatype

import (
	"errors"
	"fmt"
	"maps"
	"mime"
	"strings"
)

const wildcard = "*"

// ErrInvalid is returned by Parse for values that are not type/subtype pairs.
var ErrInvalid = errors.New("invalid media type")

// MediaType is a parsed content type. The zero value means "absent".
type MediaType struct {
	Type    string
	Subtype string
	Params  map[string]string
}

// Well-known media types.
var (
	All         = New(wildcard, wildcard)
	JSON        = New("application", "json")
	Problem     = New("application", "problem+json")
	VndError    = New("application", "vnd.error+json")
	XML         = New("application", "xml")
	TextXML     = New("text", "xml")
	YAML        = New("application", "yaml")
	Text        = New("text", "plain")
	OctetStream = New("application", "octet-stream")
	Protobuf    = New("application", "x-protobuf")
)

// New returns the media type typ/subtype without parameters.
func New(typ, subtype string) MediaType {
	return MediaType{
		Type:    strings.ToLower(typ),
		Subtype: strings.ToLower(subtype),
	}
}

// Parse parses a Content-Type or Accept element such as
// "application/json; charset=utf-8". Malformed parameters are dropped
// rather than rejected.
func Parse(s string) (MediaType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MediaType{}, fmt.Errorf("%w: empty value", ErrInvalid)
	}

	full, params, err := mime.ParseMediaType(s)
	if err != nil && !errors.Is(err, mime.ErrInvalidMediaParameter) {
		return MediaType{}, fmt.Errorf("%w %q: %v", ErrInvalid, s, err)
	}

	typ, subtype, ok := strings.Cut(full, "/")
	if !ok || typ == "" || subtype == "" {
		return MediaType{}, fmt.Errorf("%w %q: missing subtype", ErrInvalid, s)
	}
	if typ == wildcard && subtype != wildcard {
		return MediaType{}, fmt.Errorf("%w %q: wildcard type requires wildcard subtype", ErrInvalid, s)
	}

	mt := MediaType{Type: typ, Subtype: subtype}
	if len(params) > 0 {
		mt.Params = params
	}
	return mt, nil
}

// MustParse is like Parse but panics on error. It is meant for package-level
// variables and binding keys.
func MustParse(s string) MediaType {
	mt, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return mt
}

// IsZero reports whether m is the absent media type.
func (m MediaType) IsZero() bool {
	return m.Type == "" && m.Subtype == ""
}

// IsWildcardType reports whether m is */*.
func (m MediaType) IsWildcardType() bool {
	return m.Type == wildcard
}

// IsWildcardSubtype reports whether the subtype is * or *+suffix.
func (m MediaType) IsWildcardSubtype() bool {
	return m.Subtype == wildcard || strings.HasPrefix(m.Subtype, wildcard+"+")
}

// Suffix returns the structured syntax suffix ("json" for problem+json).
func (m MediaType) Suffix() string {
	i := strings.LastIndexByte(m.Subtype, '+')
	if i < 0 {
		return ""
	}
	return m.Subtype[i+1:]
}

// Essence returns type/subtype without parameters.
func (m MediaType) Essence() string {
	if m.IsZero() {
		return ""
	}
	return m.Type + "/" + m.Subtype
}

// Param returns the named parameter or "".
func (m MediaType) Param(name string) string {
	return m.Params[strings.ToLower(name)]
}

// WithParam returns a copy of m with the parameter set.
func (m MediaType) WithParam(name, value string) MediaType {
	params := make(map[string]string, len(m.Params)+1)
	maps.Copy(params, m.Params)
	params[strings.ToLower(name)] = value
	m.Params = params
	return m
}

// String formats m as a header value. The absent media type formats as "".
func (m MediaType) String() string {
	if m.IsZero() {
		return ""
	}
	if s := mime.FormatMediaType(m.Essence(), m.Params); s != "" {
		return s
	}
	return m.Essence()
}

// Equal reports whether m and other have the same essence and parameters.
func (m MediaType) Equal(other MediaType) bool {
	return m.Essence() == other.Essence() && maps.Equal(m.Params, other.Params)
}

// Includes reports whether m, used as a pattern, covers other. The absent
// media type is included by nothing and includes nothing.
func (m MediaType) Includes(other MediaType) bool {
	if m.IsZero() || other.IsZero() {
		return false
	}
	return m.includesEssence(other) && m.includesParams(other)
}

func (m MediaType) includesEssence(other MediaType) bool {
	if m.IsWildcardType() {
		return true
	}
	if m.Type != other.Type {
		return false
	}
	if m.Subtype == other.Subtype || m.Subtype == wildcard {
		return true
	}

	// application/*+json covers application/problem+json and application/json
	if suffix, ok := strings.CutPrefix(m.Subtype, wildcard+"+"); ok {
		return other.Suffix() == suffix || other.Subtype == suffix
	}
	return false
}

func (m MediaType) includesParams(other MediaType) bool {
	for name, want := range m.Params {
		if name == "q" {
			continue
		}
		got, ok := other.Params[name]
		if !ok {
			return false
		}

		switch name {
		case "charset":
			if !strings.EqualFold(want, got) {
				return false
			}
		case "version":
			if !versionSatisfies(want, got) {
				return false
			}
		default:
			if want != got {
				return false
			}
		}
	}
	return true
}
