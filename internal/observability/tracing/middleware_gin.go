package tracing

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/customerdesk/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// MiddlewareConfig controls request tracing.
type MiddlewareConfig struct {
	// SkipPaths are request paths that never get a span, e.g. /health.
	SkipPaths []string
	// ErrorClassifier maps the last handler error to a category and code,
	// recorded on the span for 4xx and 5xx responses.
	ErrorClassifier func(err error) (string, string)
	// APIKeyResultKey is the gin context key holding the delete-route key
	// check outcome.
	APIKeyResultKey string
}

// GinMiddleware starts one server span per request, named after the matched
// route, and tags it with the resource and customer the route addresses.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	tracer := otel.Tracer("customerdesk/http")
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		method := strings.ToUpper(c.Request.Method)
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			if member, err := baggage.NewMember("request_id", requestID); err == nil {
				if bag, err := baggage.New(member); err == nil {
					ctx = baggage.ContextWithBaggage(ctx, bag)
				}
			}
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		span.SetName("HTTP " + method + " " + route)

		attrs := []attribute.KeyValue{
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		}
		if resource := ResourceForRoute(route); resource != "" {
			attrs = append(attrs, attribute.String(AttrResource, resource))
		}
		if customerID, ok := customerIDFromParams(c); ok {
			attrs = append(attrs, attribute.Int64(AttrCustomerID, customerID))
		}
		if cfg.APIKeyResultKey != "" {
			if result := c.GetString(cfg.APIKeyResultKey); result != "" {
				attrs = append(attrs, attribute.String(AttrAPIKeyResult, result))
			}
		}

		lastErr := c.Errors.Last()
		if lastErr != nil && status >= http.StatusBadRequest && cfg.ErrorClassifier != nil {
			errorType, errorCode := cfg.ErrorClassifier(lastErr.Err)
			attrs = append(attrs,
				attribute.String(AttrErrorType, errorType),
				attribute.String(AttrErrorCode, errorCode),
			)
		}
		span.SetAttributes(SafeAttributes(attrs...)...)

		if status >= http.StatusInternalServerError {
			if lastErr != nil {
				span.RecordError(SafeError(lastErr.Err))
			}
			span.SetStatus(codes.Error, "request error")
		}
	}
}

// ResourceForRoute names the entity collection a route pattern addresses.
func ResourceForRoute(route string) string {
	switch {
	case strings.HasPrefix(route, "/api/customers"):
		return "customer"
	case strings.HasPrefix(route, "/api/invoices"):
		return "invoice"
	case strings.HasPrefix(route, "/api/phonenumbers"):
		return "phone_number"
	default:
		return ""
	}
}

// customerIDFromParams reads the owning customer from the route: ":customerId"
// on invoice and phone routes, ":id" on customer routes.
func customerIDFromParams(c *gin.Context) (int64, bool) {
	raw := c.Param("customerId")
	if raw == "" && strings.HasPrefix(c.FullPath(), "/api/customers/") {
		raw = c.Param("id")
	}
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
