// Package dispatch routes HTTP responses to handlers.
//
// A routing table pairs keys extracted from a response with actions. The
// selector decides what the key is: the content type, the exact status code
// or the status series. The first binding whose key matches wins; a wildcard
// binding runs only when no other binding matched. A binding may declare a Go
// type, in which case the body is converted before its action runs.
//
//	result, err := dispatch.New().Dispatch(resp, dispatch.Route(dispatch.ContentType(),
//		dispatch.OnAs[Order](orderType).Capture(),
//		dispatch.OnAs[problem.Problem](mediatype.Problem).Call(problem.Raise),
//		dispatch.AnyContentType().Call(unexpected),
//	))
//	if err != nil {
//		return err // routing, conversion or handler error
//	}
//	order, err := dispatch.Retrieve[Order](result).Get()
//
// Tables nest: a binding can hand the same response to another table with a
// different selector, e.g. first by series and then by content type:
//
//	dispatch.Route(dispatch.StatusSeries(),
//		dispatch.On(dispatch.Successful).Dispatch(dispatch.Route(dispatch.ContentType(), ...)),
//		dispatch.On(dispatch.ClientError).Dispatch(problems),
//		dispatch.AnySeries().Call(fail),
//	)
//
// Errors returned by handlers leave Dispatch unchanged, so handlers can raise
// domain errors that callers match with errors.As. The core's own failures
// are *RoutingError, *ConversionError and *CaptureError.
//
// The response body is read at most once and is always closed before
// Dispatch returns. Tables and dispatchers are immutable and can be shared
// between goroutines; every Dispatch call gets its own Result.
package dispatch
