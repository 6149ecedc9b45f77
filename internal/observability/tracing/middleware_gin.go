package tracing

import (
	"net/http"
	"strings"

	obscontext "github.com/NewAcropolis/api-sub000/internal/observability/context"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "na-api/http"

// Outcomes that mean PayPal will redeliver or the notification was refused
// outright. Anything else is a normal acknowledgement.
var failedOutcomes = map[string]bool{
	"failed":    true,
	"oversized": true,
}

// GinMiddleware starts one server span per routed request. Health and metrics
// scrapes are not traced.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "/health" || route == "/metrics" {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}
		method := strings.ToUpper(c.Request.Method)

		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := otel.Tracer(tracerName).Start(ctx, method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", method),
				attribute.String("http.route", route),
			),
		)
		defer span.End()

		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if txnID := strings.TrimSpace(c.GetString("txn_id")); txnID != "" {
			span.SetAttributes(attribute.String("paypal.txn_id", txnID))
		}
		outcome := strings.TrimSpace(c.GetString("ipn_outcome"))
		if outcome != "" {
			span.SetAttributes(attribute.String("ipn.outcome", outcome))
		}

		if status < http.StatusInternalServerError && !failedOutcomes[outcome] {
			return
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			if safeErr := SafeError(lastErr.Err); safeErr != nil {
				span.RecordError(safeErr)
			}
		}
		desc := "request error"
		if outcome != "" {
			desc = "notification " + outcome
		}
		span.SetStatus(codes.Error, desc)
	}
}
