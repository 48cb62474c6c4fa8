package problem

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/angeloszaimis/response-router/pkg/dispatch"
	"github.com/angeloszaimis/response-router/pkg/mediatype"
)

// DefaultType is the problem type used when a problem omits it.
const DefaultType = "about:blank"

// Problem is an application/problem+json body.
type Problem struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Status   int    `json:"status,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Error is an application/vnd.error+json body.
type Error struct {
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	Logref  string `json:"logref,omitempty"`
}

// Exception is the error raised for a received Problem.
type Exception struct {
	Problem Problem
}

func (e *Exception) Error() string {
	var b strings.Builder
	b.WriteString("problem")

	typ := e.Problem.Type
	if typ == "" {
		typ = DefaultType
	}
	fmt.Fprintf(&b, " %s", typ)

	if e.Problem.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Problem.Status)
	}
	if e.Problem.Title != "" {
		fmt.Fprintf(&b, ": %s", e.Problem.Title)
	}
	if e.Problem.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Problem.Detail)
	}
	return b.String()
}

// StatusCode returns the status declared by the problem, falling back to
// 500 Internal Server Error.
func (e *Exception) StatusCode() int {
	if e.Problem.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Problem.Status
}

// ErrorException is the error raised for a received vnd.error.
type ErrorException struct {
	Body Error
}

func (e *ErrorException) Error() string {
	msg := "vnd.error: " + e.Body.Message
	if e.Body.Logref != "" {
		msg += " [" + e.Body.Logref + "]"
	}
	if e.Body.Path != "" {
		msg += " at " + e.Body.Path
	}
	return msg
}

// Raise returns p as an *Exception. It fits TypedCondition.Call.
func Raise(p Problem) error {
	return &Exception{Problem: p}
}

// RaiseError returns e as an *ErrorException. It fits TypedCondition.Call.
func RaiseError(e Error) error {
	return &ErrorException{Body: e}
}

// Propagate returns content type bindings that raise problems and
// vnd.errors. Place them before broader bindings such as application/*+json.
func Propagate() []dispatch.Binding[mediatype.MediaType] {
	return []dispatch.Binding[mediatype.MediaType]{
		dispatch.OnAs[Problem](mediatype.Problem).Call(Raise),
		dispatch.OnAs[Error](mediatype.VndError).Call(RaiseError),
	}
}
