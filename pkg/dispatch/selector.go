package dispatch

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/angeloszaimis/response-router/pkg/mediatype"
)

// Selector extracts a classification key from a response and decides whether
// an observed key matches a binding's key. Select must return a key for
// every response.
type Selector[K any] interface {
	Name() string
	Select(resp *http.Response) K
	Matches(observed, candidate K) bool
}

// Status is an exact HTTP status code.
type Status int

func (s Status) String() string {
	if text := http.StatusText(int(s)); text != "" {
		return fmt.Sprintf("%d %s", int(s), text)
	}
	return strconv.Itoa(int(s))
}

// Series is the hundreds digit of a status code.
type Series int

const (
	SeriesUnknown Series = iota
	Informational
	Successful
	Redirection
	ClientError
	ServerError
)

// SeriesOf returns the series of code, or SeriesUnknown outside 100-599.
func SeriesOf(code int) Series {
	if code < 100 || code > 599 {
		return SeriesUnknown
	}
	return Series(code / 100)
}

func (s Series) String() string {
	if s >= Informational && s <= ServerError {
		return strconv.Itoa(int(s)) + "xx"
	}
	return "unknown series"
}

type contentTypeSelector struct{}

// ContentType selects on the Content-Type header. A missing or malformed
// header yields the zero MediaType, which no binding key includes, not even
// */*. Only the table's wildcard binding (AnyContentType) catches such
// responses.
func ContentType() Selector[mediatype.MediaType] {
	return contentTypeSelector{}
}

func (contentTypeSelector) Name() string {
	return "content type"
}

func (contentTypeSelector) Select(resp *http.Response) mediatype.MediaType {
	return contentTypeOf(resp)
}

func (contentTypeSelector) Matches(observed, candidate mediatype.MediaType) bool {
	return candidate.Includes(observed)
}

type statusCodeSelector struct{}

// StatusCode selects on the exact status code.
func StatusCode() Selector[Status] {
	return statusCodeSelector{}
}

func (statusCodeSelector) Name() string {
	return "status code"
}

func (statusCodeSelector) Select(resp *http.Response) Status {
	return Status(resp.StatusCode)
}

func (statusCodeSelector) Matches(observed, candidate Status) bool {
	return observed == candidate
}

type statusSeriesSelector struct{}

// StatusSeries selects on the status series (2xx, 4xx, ...).
func StatusSeries() Selector[Series] {
	return statusSeriesSelector{}
}

func (statusSeriesSelector) Name() string {
	return "status series"
}

func (statusSeriesSelector) Select(resp *http.Response) Series {
	return SeriesOf(resp.StatusCode)
}

func (statusSeriesSelector) Matches(observed, candidate Series) bool {
	return observed == candidate
}

func contentTypeOf(resp *http.Response) mediatype.MediaType {
	v := resp.Header.Get("Content-Type")
	if v == "" {
		return mediatype.MediaType{}
	}
	mt, err := mediatype.Parse(v)
	if err != nil {
		return mediatype.MediaType{}
	}
	return mt
}
