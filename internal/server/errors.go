package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/customerdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/customerdesk/internal/invoice/domain"
	obscontext "github.com/smallbiznis/customerdesk/internal/observability/context"
	"github.com/smallbiznis/customerdesk/internal/observability/logger"
	phonedomain "github.com/smallbiznis/customerdesk/internal/phonenumber/domain"
	"github.com/smallbiznis/customerdesk/internal/problem"
	"go.uber.org/zap"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

var (
	ErrAPIKeyMissing = errors.New("api_key_missing")
	ErrInvalidAPIKey = errors.New("invalid_api_key")
	ErrNotFound      = errors.New("not_found")
	ErrInternal      = errors.New("internal_error")
)

// Extension is an extra Problem Details member attached to an aborted
// request, such as the customerId the caller asked for.
type Extension struct {
	Key   string
	Value any
}

func ext(key string, value any) Extension {
	return Extension{Key: key, Value: value}
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		details, _ := mapError(lastErr.Err)
		if extensions, ok := lastErr.Meta.([]Extension); ok {
			for _, e := range extensions {
				if _, exists := details.Extensions[e.Key]; exists {
					continue
				}
				details.With(e.Key, e.Value)
			}
		}
		details.Instance = fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path)
		details.TraceID = traceID(c)

		if details.Status >= http.StatusInternalServerError {
			logger.FromContext(c.Request.Context()).Error("request failed",
				zap.Error(lastErr.Err),
				zap.String("instance", details.Instance),
			)
		}

		body, err := details.MarshalJSON()
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Abort()
		c.Data(details.Status, problem.ContentType, body)
	}
}

// AbortWithError records err for ErrorHandlingMiddleware and stops the
// handler chain. Extensions are copied onto the problem body unless the
// error mapping already set the same member.
func AbortWithError(c *gin.Context, err error, extensions ...Extension) {
	if err == nil {
		return
	}
	ginErr := c.Error(err)
	if len(extensions) > 0 {
		ginErr.SetMeta(extensions)
	}
	c.Abort()
}

func traceID(c *gin.Context) string {
	if id := logger.TraceID(c.Request.Context()); id != "" {
		return id
	}
	if id := obscontext.RequestIDFromContext(c.Request.Context()); id != "" {
		return id
	}
	return c.GetString("request_id")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// domainValidationError ties a domain sentinel to the field it reports on.
type domainValidationError struct {
	sentinel error
	field    string
	message  string
}

// domainValidationErrors is matched in order; the first sentinel that err
// wraps wins.
var domainValidationErrors = []domainValidationError{
	{invoicedomain.ErrInvoiceNumberRequired, "invoiceNumber", "The invoiceNumber field is required."},
	{invoicedomain.ErrInvalidInvoiceNumber, "invoiceNumber", "Invoice number must start with 'INV'."},
	{invoicedomain.ErrInvalidCustomerID, "customerId", "The customerId must be a positive integer."},
	{phonedomain.ErrInvalidType, "type", phoneTypeMessage},
	{phonedomain.ErrInvalidID, "id", "The id must be a positive integer."},
	{phonedomain.ErrInvalidCustomerID, "customerId", "The customerId must be a positive integer."},
	{customerdomain.ErrInvalidID, "id", "The id must be a positive integer."},
}

func matchDomainValidation(err error) (domainValidationError, bool) {
	for _, dv := range domainValidationErrors {
		if errors.Is(err, dv.sentinel) {
			return dv, true
		}
	}
	return domainValidationError{}, false
}

// mapError turns an error into a Problem Details body and a stable code
// used for request logging.
func mapError(err error) (*problem.Details, string) {
	if err == nil {
		return internalProblem(), ErrInternal.Error()
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return validationProblem(vErr.Errors), vErr.Errors[0].Code
	}

	if dv, ok := matchDomainValidation(err); ok {
		return validationProblem([]ValidationError{{
			Field:   dv.field,
			Code:    dv.sentinel.Error(),
			Message: dv.message,
		}}), dv.sentinel.Error()
	}

	var dupCustomer *customerdomain.DuplicateError
	if errors.As(err, &dupCustomer) {
		p := problem.New(http.StatusConflict, dupCustomer.Error())
		p.Title = "Duplicate Customer"
		p.With("duplicateFields", dupCustomer.Fields).
			With("existingCustomerId", dupCustomer.ExistingCustomerID).
			With("suggestion", "Use a different name and email, or update the existing customer.")
		return p, customerdomain.ErrDuplicate.Error()
	}

	var dupNumber *invoicedomain.DuplicateNumberError
	if errors.As(err, &dupNumber) {
		p := problem.New(http.StatusConflict, dupNumber.Error())
		p.Title = "Duplicate Invoice Number"
		p.With("invoiceNumber", dupNumber.InvoiceNumber)
		if dupNumber.CustomerID > 0 {
			p.With("existingCustomerId", dupNumber.CustomerID)
		}
		p.With("suggestion", "Invoice numbers are unique across all customers; choose another number.")
		return p, invoicedomain.ErrDuplicateNumber.Error()
	}

	switch {
	case errors.Is(err, ErrAPIKeyMissing):
		p := problem.New(http.StatusUnauthorized, "The X-API-Key header is required for this operation.")
		p.Title = "API Key Missing"
		return p, ErrAPIKeyMissing.Error()
	case errors.Is(err, ErrInvalidAPIKey):
		p := problem.New(http.StatusUnauthorized, "The provided API key is not valid.")
		p.Title = "Invalid API Key"
		return p, ErrInvalidAPIKey.Error()
	case errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrCustomerNotFound),
		errors.Is(err, phonedomain.ErrCustomerNotFound):
		return notFoundProblem("Customer Not Found", "No customer exists with the requested id."), "customer_not_found"
	case errors.Is(err, invoicedomain.ErrNotFound):
		return notFoundProblem("Invoice Not Found", "No invoice exists with the requested number for this customer."), "invoice_not_found"
	case errors.Is(err, phonedomain.ErrNotFound):
		return notFoundProblem("Phone Number Not Found", "No phone number exists with the requested id for this customer."), "phone_number_not_found"
	case errors.Is(err, ErrNotFound):
		return notFoundProblem("Not Found", "The requested resource does not exist."), ErrNotFound.Error()
	default:
		return internalProblem(), ErrInternal.Error()
	}
}

func validationProblem(items []ValidationError) *problem.Details {
	p := problem.New(http.StatusBadRequest, "One or more validation errors occurred.")
	p.Title = "Validation Failed"
	for _, item := range items {
		p.AddError(item.Field, item.Message)
	}
	return p
}

func notFoundProblem(title, detail string) *problem.Details {
	p := problem.New(http.StatusNotFound, detail)
	p.Title = title
	return p
}

func internalProblem() *problem.Details {
	return problem.New(http.StatusInternalServerError, "An unexpected error occurred while processing the request.")
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil && len(vErr.Errors) > 0 {
		return vErr
	}
	return nil
}

func classifyErrorForLog(err error) (string, string) {
	details, code := mapError(err)
	switch details.Status {
	case http.StatusBadRequest:
		return "validation", code
	case http.StatusUnauthorized:
		return "unauthorized", code
	case http.StatusNotFound:
		return "not_found", code
	case http.StatusConflict:
		return "conflict", code
	default:
		return "internal", code
	}
}
