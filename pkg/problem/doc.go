// Package problem provides the two error payloads most APIs answer with,
// RFC 7807 problem details and vnd.error, together with bindings that turn
// them into Go errors.
//
//	router := dispatch.Route(dispatch.ContentType(),
//	    append(problem.Propagate(),
//	        dispatch.OnAs[Order](mediatype.JSON).Capture(),
//	    )...,
//	)
package problem
