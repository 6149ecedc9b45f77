package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestGinMiddlewareTracesNotificationOutcome(t *testing.T) {
	rec := recordSpans(t)
	gin.SetMode(gin.TestMode)

	outcome, status := "verified_created", http.StatusOK
	r := gin.New()
	r.Use(GinMiddleware())
	r.POST("/orders/paypal/ipn", func(c *gin.Context) {
		c.Set("txn_id", "TXN-1")
		c.Set("ipn_outcome", outcome)
		c.Status(status)
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/orders/paypal/ipn", nil))
	outcome, status = "failed", http.StatusInternalServerError
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/orders/paypal/ipn", nil))

	spans := rec.Ended()
	require.Len(t, spans, 2)

	ok := spans[0]
	assert.Equal(t, "POST /orders/paypal/ipn", ok.Name())
	assert.Equal(t, "TXN-1", spanAttrs(ok)["paypal.txn_id"].AsString())
	assert.Equal(t, "verified_created", spanAttrs(ok)["ipn.outcome"].AsString())
	assert.NotEqual(t, codes.Error, ok.Status().Code)

	failed := spans[1]
	assert.Equal(t, codes.Error, failed.Status().Code)
	assert.Equal(t, "notification failed", failed.Status().Description)
	assert.Equal(t, int64(http.StatusInternalServerError), spanAttrs(failed)["http.status_code"].AsInt64())
}
