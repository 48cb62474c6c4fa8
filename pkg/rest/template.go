package rest

import (
	"fmt"
	"net/url"
	"strings"
)

// expand replaces each {name} placeholder of uri, in order, with the next
// value of vars, path-escaped.
func expand(uri string, vars []any) (string, error) {
	var b strings.Builder
	b.Grow(len(uri))

	used := 0
	rest := uri
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("%w %q: unclosed placeholder", ErrTemplate, uri)
		}
		end += open

		if used == len(vars) {
			return "", fmt.Errorf("%w %q: no value for %s", ErrTemplate, uri, rest[open:end+1])
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(fmt.Sprint(vars[used])))
		used++
		rest = rest[end+1:]
	}

	if used != len(vars) {
		return "", fmt.Errorf("%w %q: %d values for %d placeholders", ErrTemplate, uri, len(vars), used)
	}
	return b.String(), nil
}

// resolve joins ref to base unless ref is absolute.
func resolve(base *url.URL, ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	if u.IsAbs() || base == nil {
		return u, nil
	}

	joined := *base
	joined.Path = strings.TrimSuffix(base.Path, "/") + "/" + strings.TrimPrefix(u.Path, "/")
	joined.RawPath = ""
	if u.RawPath != "" {
		joined.RawPath = strings.TrimSuffix(base.EscapedPath(), "/") + "/" + strings.TrimPrefix(u.RawPath, "/")
	}
	joined.RawQuery = u.RawQuery
	joined.Fragment = u.Fragment
	return &joined, nil
}
