// Package rest sends HTTP requests and routes the responses through
// dispatch tables.
//
//	client, err := rest.New(nil,
//	    rest.WithBaseURL("https://api.example.com"),
//	    rest.WithCircuitBreaker(circuitbreaker.NewRegistry(5, 30*time.Second)),
//	)
//
//	result, err := client.Execute(ctx, http.MethodGet, "/orders/{id}", id).
//	    Accept(mediatype.JSON, mediatype.Problem).
//	    Dispatch(dispatch.Route(dispatch.StatusSeries(),
//	        dispatch.OnAs[Order](dispatch.Successful).Capture(),
//	        dispatch.AnySeries().Dispatch(dispatch.Route(dispatch.ContentType(),
//	            problem.Propagate()...,
//	        )),
//	    ))
//
// Any status code is a valid response; only failures to exchange a request
// and response are reported as *TransportError.
package rest
