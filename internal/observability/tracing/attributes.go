package tracing

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

const (
	AttrResource     = "customerdesk.resource"
	AttrCustomerID   = "customerdesk.customer_id"
	AttrAPIKeyResult = "customerdesk.api_key"
	AttrErrorType    = "customerdesk.error_type"
	AttrErrorCode    = "customerdesk.error_code"
)

// Names, emails and phone numbers never go on spans; only identifiers and
// outcome codes do.
var allowedAttributeKeys = map[attribute.Key]struct{}{
	"http.method":             {},
	"http.route":              {},
	"http.status_code":        {},
	"http.server_duration_ms": {},
	"request_id":              {},
	AttrResource:              {},
	AttrCustomerID:            {},
	AttrAPIKeyResult:          {},
	AttrErrorType:             {},
	AttrErrorCode:             {},
}

// SafeAttributes drops any attribute not on the allow list.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedAttributeKeys[attr.Key]; ok {
			out = append(out, attr)
		}
	}
	return out
}

// SafeError replaces err with a generic value so span events do not carry
// customer data.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New("internal_error")
}

// ExtractContext reads upstream trace context from carrier.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
