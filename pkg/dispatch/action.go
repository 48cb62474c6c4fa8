package dispatch

import (
	"fmt"
	"net/http"
	"reflect"
)

type actionKind int

const (
	passAction actionKind = iota
	captureAction
	callAction
	dispatchAction
)

var responseType = reflect.TypeFor[*http.Response]()

// action is the right-hand side of a binding. target is nil when the action
// works on the raw response.
type action struct {
	kind   actionKind
	target reflect.Type
	call   func(any) error
	nested Router
}

func (a action) execute(x *exchange) error {
	var value any = x.resp
	valueType := responseType

	if a.target != nil {
		v, err := x.convert(a.target)
		if err != nil {
			return err
		}
		value, valueType = v, a.target
	}

	switch a.kind {
	case passAction:
		return nil
	case captureAction:
		return x.result.slot.store(value, valueType)
	case callAction:
		return a.call(value)
	case dispatchAction:
		if a.nested == nil {
			return fmt.Errorf("dispatch: nested binding without a routing table")
		}
		return a.nested.route(x)
	default:
		return fmt.Errorf("dispatch: unknown action kind %d", a.kind)
	}
}
