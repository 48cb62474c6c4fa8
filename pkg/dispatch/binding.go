package dispatch

import (
	"net/http"
	"reflect"

	"github.com/angeloszaimis/response-router/pkg/mediatype"
)

// Condition is the left-hand side of a binding: a key, or the wildcard.
// Its methods attach an action that receives the raw response.
type Condition[K any] struct {
	key      K
	wildcard bool
}

// On starts a binding for key.
func On[K any](key K) Condition[K] {
	return Condition[K]{key: key}
}

// Any starts the wildcard binding of a table.
func Any[K any]() Condition[K] {
	return Condition[K]{wildcard: true}
}

// AnyContentType is the wildcard for ContentType tables.
func AnyContentType() Condition[mediatype.MediaType] {
	return Any[mediatype.MediaType]()
}

// AnyStatus is the wildcard for StatusCode tables.
func AnyStatus() Condition[Status] {
	return Any[Status]()
}

// AnySeries is the wildcard for StatusSeries tables.
func AnySeries() Condition[Series] {
	return Any[Series]()
}

// Call runs fn with the raw response. The body is still unread.
func (c Condition[K]) Call(fn func(*http.Response) error) Binding[K] {
	return c.bind(action{
		kind: callAction,
		call: func(v any) error { return fn(v.(*http.Response)) },
	})
}

// Capture stores the raw response as the result of the dispatch.
func (c Condition[K]) Capture() Binding[K] {
	return c.bind(action{kind: captureAction})
}

// Dispatch hands the response to another routing table.
func (c Condition[K]) Dispatch(r Router) Binding[K] {
	return c.bind(action{kind: dispatchAction, nested: r})
}

// Pass accepts the response without doing anything.
func (c Condition[K]) Pass() Binding[K] {
	return c.bind(action{kind: passAction})
}

func (c Condition[K]) bind(a action) Binding[K] {
	return Binding[K]{key: c.key, wildcard: c.wildcard, action: a}
}

// TypedCondition is a condition whose actions receive the body converted
// to T.
type TypedCondition[T, K any] struct {
	cond Condition[K]
}

// As declares that the body of responses matching c is converted to T.
func As[T, K any](c Condition[K]) TypedCondition[T, K] {
	return TypedCondition[T, K]{cond: c}
}

// OnAs is shorthand for As[T](On(key)).
func OnAs[T, K any](key K) TypedCondition[T, K] {
	return As[T](On(key))
}

// Capture stores the converted body as the result of the dispatch.
func (c TypedCondition[T, K]) Capture() Binding[K] {
	return c.cond.bind(action{kind: captureAction, target: reflect.TypeFor[T]()})
}

// Call runs fn with the converted body. The error fn returns is returned by
// Dispatch as is.
func (c TypedCondition[T, K]) Call(fn func(T) error) Binding[K] {
	return c.cond.bind(action{
		kind:   callAction,
		target: reflect.TypeFor[T](),
		call: func(v any) error {
			t, _ := v.(T)
			return fn(t)
		},
	})
}

// Binding pairs a key with an action.
type Binding[K any] struct {
	key      K
	wildcard bool
	action   action
}

// Key returns the key the binding matches on.
func (b Binding[K]) Key() K {
	return b.key
}

// Wildcard reports whether the binding is a table's fallback.
func (b Binding[K]) Wildcard() bool {
	return b.wildcard
}
