package metrics_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/response-router/internal/metrics"
	"github.com/angeloszaimis/response-router/pkg/rest"
)

var _ = Describe("Collector", func() {
	const host = "api.example.com"

	var (
		collector *metrics.Collector
		log       *slog.Logger
		ctx       context.Context
		cancel    context.CancelFunc
	)

	exchanges := func() int64 {
		return collector.Snapshot().TotalExchanges
	}

	BeforeEach(func() {
		log = slog.New(slog.DiscardHandler)
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(func() { cancel() })
		collector = metrics.NewCollector(100, log)
	})

	Describe("Observe", func() {
		It("should record rest exchanges", func() {
			collector.Start(ctx)

			collector.Observe(rest.Exchange{
				Method:   http.MethodGet,
				Host:     host,
				Status:   200,
				Duration: 40 * time.Millisecond,
				Route:    "2xx > application/json",
			})
			collector.Observe(rest.Exchange{Host: host, Err: errors.New("refused")})

			Eventually(exchanges).Should(Equal(int64(2)))

			em := collector.Snapshot().Endpoints[host]
			Expect(em.Failures).To(Equal(int64(1)))
			Expect(em.StatusCodes[200]).To(Equal(int64(1)))
			Expect(em.Routes["2xx > application/json"]).To(Equal(int64(1)))
		})
	})

	Describe("health events", func() {
		It("should process health changes", func() {
			collector.Start(ctx)

			collector.Emit(metrics.MetricEvent{
				Type:     metrics.EventHealthChanged,
				Endpoint: host,
				Healthy:  true,
			})

			Eventually(func() bool {
				return collector.Snapshot().Endpoints[host].Healthy
			}).Should(BeTrue())
		})
	})

	Describe("Emit", func() {
		It("should drop events when the buffer is full", func() {
			collector = metrics.NewCollector(1, log)

			collector.Emit(metrics.MetricEvent{Type: metrics.EventExchangeCompleted, Endpoint: host})
			collector.Emit(metrics.MetricEvent{Type: metrics.EventExchangeCompleted, Endpoint: host})

			Expect(collector.Snapshot().DroppedEvents).To(Equal(int64(1)))

			collector.Start(ctx)
			Eventually(exchanges).Should(Equal(int64(1)))
		})
	})

	Describe("shutdown", func() {
		It("should drain buffered events", func() {
			for range 5 {
				collector.Emit(metrics.MetricEvent{Type: metrics.EventExchangeCompleted, Endpoint: host})
			}

			cancel()
			collector.Start(ctx)

			Eventually(exchanges).Should(Equal(int64(5)))
		})
	})

	Describe("Handler", func() {
		It("should serve the snapshot as JSON", func() {
			collector.Start(ctx)
			collector.Observe(rest.Exchange{Host: host, Status: 204})
			Eventually(exchanges).Should(Equal(int64(1)))

			rec := httptest.NewRecorder()
			collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))

			var snap metrics.Snapshot
			Expect(json.Unmarshal(rec.Body.Bytes(), &snap)).To(Succeed())
			Expect(snap.TotalExchanges).To(Equal(int64(1)))
			Expect(snap.Endpoints[host].StatusCodes[204]).To(Equal(int64(1)))
		})
	})
})
