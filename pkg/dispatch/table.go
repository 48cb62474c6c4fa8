package dispatch

import (
	"fmt"
	"log/slog"
	"strings"
)

// Router is a routing table. It is implemented by *Table and built with
// Route.
type Router interface {
	fmt.Stringer
	route(x *exchange) error
}

// Table is an ordered list of bindings evaluated with one selector, plus an
// optional wildcard binding.
type Table[K any] struct {
	selector Selector[K]
	bindings []Binding[K]
	fallback *Binding[K]
}

// Route builds a routing table. Bindings are evaluated in the order given;
// the wildcard binding, wherever it appears, is evaluated last. Route panics
// if selector is nil or more than one wildcard binding is passed.
func Route[K any](selector Selector[K], bindings ...Binding[K]) *Table[K] {
	if selector == nil {
		panic("dispatch: nil selector")
	}

	t := &Table[K]{
		selector: selector,
		bindings: make([]Binding[K], 0, len(bindings)),
	}
	for _, b := range bindings {
		if !b.wildcard {
			t.bindings = append(t.bindings, b)
			continue
		}
		if t.fallback != nil {
			panic("dispatch: multiple wildcard bindings in " + selector.Name() + " table")
		}
		fallback := b
		t.fallback = &fallback
	}
	return t
}

// String lists the table's keys, e.g. "content type [application/json, *]".
func (t *Table[K]) String() string {
	keys := make([]string, 0, len(t.bindings)+1)
	for _, b := range t.bindings {
		keys = append(keys, describeKey(b.key))
	}
	if t.fallback != nil {
		keys = append(keys, "*")
	}
	return t.selector.Name() + " [" + strings.Join(keys, ", ") + "]"
}

func (t *Table[K]) route(x *exchange) error {
	key := t.selector.Select(x.resp)

	b, ok := t.match(key)
	if !ok {
		x.logger.Debug("no binding matched",
			slog.String("selector", t.selector.Name()),
			slog.String("key", describeKey(key)),
			slog.String("table", t.String()))

		return &RoutingError{
			Status:      x.resp.StatusCode,
			ContentType: contentTypeOf(x.resp),
			Selector:    t.selector.Name(),
			Key:         describeKey(key),
			Table:       t.String(),
		}
	}

	step := "*"
	if !b.wildcard {
		step = describeKey(b.key)
	}
	x.result.route = append(x.result.route, step)

	x.logger.Debug("binding matched",
		slog.String("selector", t.selector.Name()),
		slog.String("key", describeKey(key)),
		slog.String("binding", step))

	return b.action.execute(x)
}

// match returns the first binding whose key matches, then the wildcard.
func (t *Table[K]) match(key K) (Binding[K], bool) {
	for _, b := range t.bindings {
		if t.selector.Matches(key, b.key) {
			return b, true
		}
	}
	if t.fallback != nil {
		return *t.fallback, true
	}
	return Binding[K]{}, false
}

func describeKey(key any) string {
	s := fmt.Sprint(key)
	if s == "" {
		return "absent"
	}
	return s
}
