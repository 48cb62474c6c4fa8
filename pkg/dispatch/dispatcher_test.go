package dispatch_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/response-router/pkg/convert"
	"github.com/angeloszaimis/response-router/pkg/dispatch"
	"github.com/angeloszaimis/response-router/pkg/mediatype"
)

var _ = Describe("Dispatcher", func() {
	var (
		d        *dispatch.Dispatcher
		executed []string
	)

	record := func(name string) func(*http.Response) error {
		return func(*http.Response) error {
			executed = append(executed, name)
			return nil
		}
	}

	BeforeEach(func() {
		d = dispatch.New()
		executed = nil
	})

	Describe("content type dispatch", func() {
		var fail func(*http.Response) error

		perform := func(resp *http.Response) (Success, error) {
			result, err := d.Dispatch(resp, dispatch.Route(dispatch.ContentType(),
				dispatch.OnAs[Success](successType).Capture(),
				dispatch.OnAs[Problem](problemType).Call(func(p Problem) error {
					return &ProblemError{Problem: p}
				}),
				dispatch.OnAs[Error](errorType).Call(func(e Error) error {
					return &ErrorError{Body: e}
				}),
				dispatch.AnyContentType().Call(func(resp *http.Response) error {
					return fail(resp)
				}),
			))
			if err != nil {
				return Success{}, err
			}
			return dispatch.Retrieve[Success](result).Get()
		}

		BeforeEach(func() {
			fail = func(resp *http.Response) error {
				return errors.New("unexpected response: " + resp.Status)
			}
		})

		It("should capture a success", func() {
			resp, body := newResponse(http.StatusOK, successType.String(), `{"happy": true}`)

			success, err := perform(resp)
			Expect(err).NotTo(HaveOccurred())
			Expect(success.Happy).To(BeTrue())
			Expect(body.closed).To(Equal(1))
		})

		It("should raise a problem", func() {
			resp, body := newResponse(http.StatusUnprocessableEntity, problemType.String(), `{
				"type": "http://httpstatus.es/422",
				"title": "Unprocessable Entity",
				"status": 422,
				"detail": "A problem occcured."
			}`)

			_, err := perform(resp)

			var problemErr *ProblemError
			Expect(errors.As(err, &problemErr)).To(BeTrue())
			Expect(problemErr.Problem).To(Equal(Problem{
				Type:   "http://httpstatus.es/422",
				Title:  "Unprocessable Entity",
				Status: 422,
				Detail: "A problem occcured.",
			}))
			Expect(body.closed).To(Equal(1))
		})

		It("should raise an error", func() {
			resp, _ := newResponse(http.StatusUnprocessableEntity, errorType.String(),
				`{"message": "A problem occured.", "path": "https://api.example.com"}`)

			_, err := perform(resp)

			var errorErr *ErrorError
			Expect(errors.As(err, &errorErr)).To(BeTrue())
			Expect(errorErr.Body.Message).To(Equal("A problem occured."))
			Expect(errorErr.Body.Path).To(Equal("https://api.example.com"))
		})

		It("should fall back to the wildcard for unknown content types", func() {
			var seen *http.Response
			fail = func(resp *http.Response) error {
				seen = resp
				return nil
			}
			resp, body := newResponse(http.StatusOK, "application/x-unknown", `whatever`)

			_, err := perform(resp)

			Expect(err).To(MatchError(dispatch.ErrNotCaptured))
			Expect(seen).To(BeIdenticalTo(resp))
			Expect(body.reads).To(BeZero(), "the wildcard receives the unread response")
			Expect(body.closed).To(Equal(1))
		})

		It("should route a missing content type to the wildcard", func() {
			fail = record("fallback")
			resp, _ := newResponse(http.StatusOK, "", `{"happy": true}`)

			_, err := perform(resp)

			Expect(err).To(MatchError(dispatch.ErrNotCaptured))
			Expect(executed).To(Equal([]string{"fallback"}))
		})

		It("should treat a malformed content type as absent", func() {
			fail = record("fallback")
			resp, _ := newResponse(http.StatusOK, "not a media type", `{}`)

			_, err := perform(resp)

			Expect(err).To(MatchError(dispatch.ErrNotCaptured))
			Expect(executed).To(Equal([]string{"fallback"}))
		})

		It("should ignore parameters the binding does not declare", func() {
			resp, _ := newResponse(http.StatusOK, successType.String()+"; charset=utf-8", `{"happy": true}`)

			success, err := perform(resp)
			Expect(err).NotTo(HaveOccurred())
			Expect(success.Happy).To(BeTrue())
		})

		It("should reject a retrieve of another type", func() {
			resp, _ := newResponse(http.StatusOK, successType.String(), `{"happy": true}`)
			result, err := d.Dispatch(resp, dispatch.Route(dispatch.ContentType(),
				dispatch.OnAs[Success](successType).Capture(),
			))
			Expect(err).NotTo(HaveOccurred())

			holder := dispatch.Retrieve[Problem](result)
			_, err = holder.Get()
			Expect(err).To(MatchError(dispatch.ErrCaptureType))
			Expect(holder.Present()).To(BeFalse())
			Expect(holder.OrElse(Problem{Title: "none"}).Title).To(Equal("none"))

			var captureErr *dispatch.CaptureError
			Expect(errors.As(err, &captureErr)).To(BeTrue())
			Expect(captureErr.Requested).To(Equal(reflect.TypeFor[Problem]()))
			Expect(captureErr.Captured).To(Equal(reflect.TypeFor[Success]()))
			Expect(err.Error()).To(ContainSubstring("Success"))
		})

		It("should not match an absent content type with */*", func() {
			resp, body := newResponse(http.StatusOK, "", `{"happy": true}`)
			_, err := d.Dispatch(resp, dispatch.Route(dispatch.ContentType(),
				dispatch.On(mediatype.All).Call(record("all")),
			))

			Expect(err).To(MatchError(dispatch.ErrNoRoute))
			Expect(executed).To(BeEmpty())
			Expect(body.closed).To(Equal(1))
		})
	})

	Describe("binding order", func() {
		It("should run only the first matching binding", func() {
			resp, _ := newResponse(http.StatusOK, "application/problem+json", `{}`)

			_, err := d.Dispatch(resp, dispatch.Route(dispatch.ContentType(),
				dispatch.On(mediatype.JSON).Call(record("json")),
				dispatch.On(mediatype.MustParse("application/*+json")).Call(record("structured")),
				dispatch.On(mediatype.MustParse("application/*")).Call(record("application")),
				dispatch.On(mediatype.Problem).Call(record("problem")),
				dispatch.AnyContentType().Call(record("fallback")),
			))

			Expect(err).NotTo(HaveOccurred())
			Expect(executed).To(Equal([]string{"structured"}))
		})

		It("should evaluate the wildcard last wherever it is declared", func() {
			resp, _ := newResponse(http.StatusNotFound, "", ``)

			_, err := d.Dispatch(resp, dispatch.Route(dispatch.StatusCode(),
				dispatch.AnyStatus().Call(record("fallback")),
				dispatch.On(dispatch.Status(http.StatusNotFound)).Call(record("not found")),
			))

			Expect(err).NotTo(HaveOccurred())
			Expect(executed).To(Equal([]string{"not found"}))
		})

		It("should panic on a second wildcard", func() {
			Expect(func() {
				dispatch.Route(dispatch.StatusSeries(),
					dispatch.AnySeries().Pass(),
					dispatch.AnySeries().Pass(),
				)
			}).To(Panic())
		})

		It("should panic on a nil selector", func() {
			Expect(func() {
				dispatch.Route[dispatch.Status](nil)
			}).To(Panic())
		})
	})

	Describe("routing errors", func() {
		It("should fail when nothing matches and there is no wildcard", func() {
			resp, body := newResponse(http.StatusTeapot, "text/plain", `short and stout`)

			result, err := d.Dispatch(resp, dispatch.Route(dispatch.ContentType(),
				dispatch.On(mediatype.JSON).Call(record("json")),
			))

			Expect(result).To(BeNil())
			Expect(err).To(MatchError(dispatch.ErrNoRoute))

			var routingErr *dispatch.RoutingError
			Expect(errors.As(err, &routingErr)).To(BeTrue())
			Expect(routingErr.Status).To(Equal(http.StatusTeapot))
			Expect(routingErr.ContentType.Essence()).To(Equal("text/plain"))
			Expect(routingErr.Selector).To(Equal("content type"))
			Expect(routingErr.Table).To(Equal("content type [application/json]"))
			Expect(err.Error()).To(ContainSubstring("418"))
			Expect(executed).To(BeEmpty())
			Expect(body.closed).To(Equal(1))
		})

		It("should reject a nil response", func() {
			_, err := d.Dispatch(nil, dispatch.Route(dispatch.StatusCode()))
			Expect(err).To(HaveOccurred())
		})

		It("should close the body when the router is nil", func() {
			resp, body := newResponse(http.StatusOK, "", ``)
			_, err := d.Dispatch(resp, nil)
			Expect(err).To(HaveOccurred())
			Expect(body.closed).To(Equal(1))
		})
	})

	Describe("conversion", func() {
		It("should report the type, content type and a body sample", func() {
			resp, body := newResponse(http.StatusOK, successType.String(), `{"happy": "maybe"}`)

			_, err := d.Dispatch(resp, dispatch.Route(dispatch.ContentType(),
				dispatch.OnAs[Success](successType).Capture(),
			))

			Expect(err).To(MatchError(dispatch.ErrConversion))

			var conversionErr *dispatch.ConversionError
			Expect(errors.As(err, &conversionErr)).To(BeTrue())
			Expect(conversionErr.Type.String()).To(Equal("dispatch_test.Success"))
			Expect(conversionErr.ContentType.Equal(successType)).To(BeTrue())
			Expect(conversionErr.Sample).To(Equal(`{"happy": "maybe"}`))
			Expect(conversionErr.Truncated).To(BeFalse())

			var typeErr *json.UnmarshalTypeError
			Expect(errors.As(err, &typeErr)).To(BeTrue())
			Expect(body.closed).To(Equal(1))
		})

		It("should truncate long samples", func() {
			d = dispatch.New(dispatch.WithSampleLimit(8))
			resp, _ := newResponse(http.StatusOK, "application/json", `{"happy": `+strings.Repeat("x", 100))

			_, err := d.Dispatch(resp, dispatch.Route(dispatch.ContentType(),
				dispatch.OnAs[Success](mediatype.JSON).Capture(),
			))

			var conversionErr *dispatch.ConversionError
			Expect(errors.As(err, &conversionErr)).To(BeTrue())
			Expect(conversionErr.Sample).To(Equal(`{"happy"`))
			Expect(conversionErr.Truncated).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(`...`))
		})

		It("should fail when no converter handles the content type", func() {
			resp, _ := newResponse(http.StatusOK, "image/png", "\x89PNG")

			_, err := d.Dispatch(resp, dispatch.Route(dispatch.StatusSeries(),
				dispatch.OnAs[Success](dispatch.Successful).Capture(),
			))

			Expect(err).To(MatchError(dispatch.ErrConversion))
			Expect(err).To(MatchError(convert.ErrUnsupported))
		})

		It("should use the configured converters", func() {
			d = dispatch.New(dispatch.WithConverters(convert.NewRegistry(convert.YAML())))
			resp, _ := newResponse(http.StatusOK, "application/yaml", "happy: true\n")

			result, err := d.Dispatch(resp, dispatch.Route(dispatch.ContentType(),
				dispatch.OnAs[Success](mediatype.YAML).Capture(),
			))

			Expect(err).NotTo(HaveOccurred())
			Expect(dispatch.Retrieve[Success](result).OrElse(Success{})).To(Equal(Success{Happy: true}))
		})

		It("should produce the same value as the converter on its own", func() {
			payload := `{"happy": true}`
			resp, body := newResponse(http.StatusOK, successType.String(), payload)

			result, err := d.Dispatch(resp, dispatch.Route(dispatch.ContentType(),
				dispatch.OnAs[Success](successType).Capture(),
			))
			Expect(err).NotTo(HaveOccurred())

			var independent Success
			Expect(convert.DefaultRegistry().Read(&independent, successType, []byte(payload))).To(Succeed())

			captured, err := dispatch.Retrieve[Success](result).Get()
			Expect(err).NotTo(HaveOccurred())
			Expect(captured).To(Equal(independent))
			Expect(body.eof).To(Equal(1), "the body is read exactly once")
		})

		It("should convert pointers and strings", func() {
			resp, _ := newResponse(http.StatusOK, "application/json", `{"happy": true}`)
			result, err := d.Dispatch(resp, dispatch.Route(dispatch.ContentType(),
				dispatch.OnAs[*Success](mediatype.JSON).Capture(),
			))
			Expect(err).NotTo(HaveOccurred())
			ptr, err := dispatch.Retrieve[*Success](result).Get()
			Expect(err).NotTo(HaveOccurred())
			Expect(ptr).To(Equal(&Success{Happy: true}))

			resp, _ = newResponse(http.StatusOK, "text/plain", `hello`)
			result, err = d.Dispatch(resp, dispatch.Route(dispatch.ContentType(),
				dispatch.As[string](dispatch.AnyContentType()).Capture(),
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(dispatch.Retrieve[string](result).OrElse("")).To(Equal("hello"))
		})

		It("should not read the body for untyped bindings", func() {
			resp, body := newResponse(http.StatusNoContent, "", ``)

			_, err := d.Dispatch(resp, dispatch.Route(dispatch.StatusCode(),
				dispatch.On(dispatch.Status(http.StatusNoContent)).Pass(),
			))

			Expect(err).NotTo(HaveOccurred())
			Expect(body.reads).To(BeZero())
			Expect(body.closed).To(Equal(1))
		})
	})

	Describe("handler errors", func() {
		It("should return the handler's error unchanged", func() {
			raised := &ProblemError{Problem: Problem{Title: "Conflict", Status: 409}}
			resp, body := newResponse(http.StatusConflict, "application/problem+json", `{"title":"Conflict","status":409}`)

			_, err := d.Dispatch(resp, dispatch.Route(dispatch.StatusCode(),
				dispatch.OnAs[Problem](dispatch.Status(http.StatusConflict)).Call(func(Problem) error {
					return raised
				}),
			))

			Expect(err).To(BeIdenticalTo(raised))
			Expect(body.closed).To(Equal(1))
		})

		It("should return raw-response handler errors unchanged", func() {
			raised := errors.New("gone")
			resp, _ := newResponse(http.StatusGone, "", ``)

			_, err := d.Dispatch(resp, dispatch.Route(dispatch.StatusSeries(),
				dispatch.AnySeries().Call(func(*http.Response) error { return raised }),
			))

			Expect(err).To(BeIdenticalTo(raised))
		})
	})

	Describe("nested dispatch", func() {
		var router dispatch.Router

		BeforeEach(func() {
			router = dispatch.Route(dispatch.StatusSeries(),
				dispatch.On(dispatch.Successful).Dispatch(dispatch.Route(dispatch.StatusCode(),
					dispatch.On(dispatch.Status(http.StatusNoContent)).Call(record("no content")),
					dispatch.OnAs[Success](dispatch.Status(http.StatusOK)).Capture(),
				)),
				dispatch.On(dispatch.ClientError).Dispatch(dispatch.Route(dispatch.ContentType(),
					dispatch.OnAs[Problem](problemType).Call(func(p Problem) error { return &ProblemError{Problem: p} }),
					dispatch.AnyContentType().Call(record("client error")),
				)),
				dispatch.AnySeries().Call(record("other")),
			)
		})

		It("should capture through two levels", func() {
			resp, _ := newResponse(http.StatusOK, "application/json", `{"happy": true}`)

			result, err := d.Dispatch(resp, router)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Route()).To(Equal("2xx > 200 OK"))
			Expect(dispatch.Retrieve[Success](result).OrElse(Success{})).To(Equal(Success{Happy: true}))
		})

		It("should raise from the inner table", func() {
			resp, _ := newResponse(http.StatusBadRequest, "application/problem+json", `{"title":"Bad Request","status":400}`)

			_, err := d.Dispatch(resp, router)

			var problemErr *ProblemError
			Expect(errors.As(err, &problemErr)).To(BeTrue())
			Expect(problemErr.Problem.Status).To(Equal(400))
		})

		It("should use the inner wildcard", func() {
			resp, _ := newResponse(http.StatusNotFound, "text/html", `<html/>`)

			result, err := d.Dispatch(resp, router)

			Expect(err).NotTo(HaveOccurred())
			Expect(executed).To(Equal([]string{"client error"}))
			Expect(result.Route()).To(Equal("4xx > *"))
		})

		It("should fail in the inner table without a wildcard", func() {
			resp, _ := newResponse(http.StatusCreated, "", ``)

			_, err := d.Dispatch(resp, router)

			var routingErr *dispatch.RoutingError
			Expect(errors.As(err, &routingErr)).To(BeTrue())
			Expect(routingErr.Selector).To(Equal("status code"))
			Expect(routingErr.Key).To(Equal("201 Created"))
		})

		It("should use the outer wildcard for unknown series", func() {
			resp, _ := newResponse(799, "", ``)

			_, err := d.Dispatch(resp, router)

			Expect(err).NotTo(HaveOccurred())
			Expect(executed).To(Equal([]string{"other"}))
		})

		It("should reject a nested binding without a table", func() {
			resp, _ := newResponse(http.StatusOK, "", ``)

			_, err := d.Dispatch(resp, dispatch.Route(dispatch.StatusSeries(),
				dispatch.On(dispatch.Successful).Dispatch(nil),
			))

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("selectors", func() {
		DescribeTable("status series",
			func(code int, series dispatch.Series, name string) {
				Expect(dispatch.SeriesOf(code)).To(Equal(series))
				Expect(series.String()).To(Equal(name))
			},
			Entry("informational", 101, dispatch.Informational, "1xx"),
			Entry("successful", 204, dispatch.Successful, "2xx"),
			Entry("redirection", 302, dispatch.Redirection, "3xx"),
			Entry("client error", 422, dispatch.ClientError, "4xx"),
			Entry("server error", 503, dispatch.ServerError, "5xx"),
			Entry("below range", 42, dispatch.SeriesUnknown, "unknown series"),
			Entry("above range", 600, dispatch.SeriesUnknown, "unknown series"),
		)

		DescribeTable("status codes",
			func(status dispatch.Status, name string) {
				Expect(status.String()).To(Equal(name))
			},
			Entry("known", dispatch.Status(422), "422 Unprocessable Entity"),
			Entry("unknown", dispatch.Status(299), "299"),
		)

		It("should match exact status codes only", func() {
			sel := dispatch.StatusCode()
			resp, _ := newResponse(http.StatusAccepted, "", ``)

			key := sel.Select(resp)
			Expect(sel.Matches(key, dispatch.Status(http.StatusAccepted))).To(BeTrue())
			Expect(sel.Matches(key, dispatch.Status(http.StatusOK))).To(BeFalse())
		})

		It("should extract the content type", func() {
			sel := dispatch.ContentType()
			resp, _ := newResponse(http.StatusOK, "application/problem+json; charset=utf-8", ``)

			key := sel.Select(resp)
			Expect(key.Essence()).To(Equal("application/problem+json"))
			Expect(sel.Matches(key, mediatype.All)).To(BeTrue())
			Expect(sel.Matches(key, mediatype.JSON)).To(BeFalse())
		})
	})

	Describe("concurrent use", func() {
		It("should dispatch different responses through one table", func() {
			router := dispatch.Route(dispatch.ContentType(),
				dispatch.OnAs[Success](successType).Capture(),
			)

			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(happy bool) {
					defer GinkgoRecover()
					defer wg.Done()

					body := `{"happy": false}`
					if happy {
						body = `{"happy": true}`
					}
					resp, _ := newResponse(http.StatusOK, successType.String(), body)
					result, err := d.Dispatch(resp, router)
					Expect(err).NotTo(HaveOccurred())
					Expect(dispatch.Retrieve[Success](result).OrElse(Success{}).Happy).To(Equal(happy))
				}(i%2 == 0)
			}
			wg.Wait()
		})
	})

	Describe("package level Dispatch", func() {
		It("should use the default dispatcher", func() {
			resp, _ := newResponse(http.StatusOK, "application/json", `{"happy": true}`)

			result, err := dispatch.Dispatch(resp, dispatch.Route(dispatch.ContentType(),
				dispatch.OnAs[Success](mediatype.JSON).Capture(),
			))

			Expect(err).NotTo(HaveOccurred())
			Expect(result.StatusCode()).To(Equal(http.StatusOK))
			Expect(result.ContentType()).To(Equal(mediatype.JSON))
			Expect(result.Header().Get("Content-Type")).To(Equal("application/json"))
		})
	})
})
