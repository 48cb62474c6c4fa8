// Package resttest provides a Doer for tests that must not reach the
// network.
package resttest

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/angeloszaimis/response-router/pkg/rest"
)

// Reply is one queued outcome of FakeDoer.Do.
type Reply struct {
	Response *http.Response
	Err      error
}

// TB is the part of testing.TB FakeDoer needs. GinkgoT() satisfies it.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// FakeDoer returns queued replies in order and records every request.
type FakeDoer struct {
	t        TB
	mu       sync.Mutex
	replies  []Reply
	requests []*http.Request
}

// NewFakeDoer returns a FakeDoer seeded with responses.
func NewFakeDoer(t TB, responses ...*http.Response) *FakeDoer {
	f := &FakeDoer{t: t}
	for _, resp := range responses {
		f.replies = append(f.replies, Reply{Response: resp})
	}
	return f
}

// Respond queues a response.
func (f *FakeDoer) Respond(resp *http.Response) *FakeDoer {
	return f.enqueue(Reply{Response: resp})
}

// Fail queues a transport error.
func (f *FakeDoer) Fail(err error) *FakeDoer {
	return f.enqueue(Reply{Err: err})
}

func (f *FakeDoer) enqueue(r Reply) *FakeDoer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, r)
	return f
}

// Do records the request and returns the next queued reply.
func (f *FakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if len(f.replies) == 0 {
		f.t.Helper()
		f.t.Fatalf("fake doer has no replies left for %s %s", req.Method, req.URL)
		return nil, io.ErrUnexpectedEOF
	}
	next := f.replies[0]
	f.replies = f.replies[1:]

	if next.Response != nil && next.Response.Request == nil {
		next.Response.Request = req
	}
	return next.Response, next.Err
}

// Requests returns the requests received so far.
func (f *FakeDoer) Requests() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Request(nil), f.requests...)
}

// NewResponse builds a response with the given status, content type and
// body. An empty content type leaves the header unset.
func NewResponse(status int, contentType, body string) *http.Response {
	header := make(http.Header)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

var _ rest.Doer = (*FakeDoer)(nil)
