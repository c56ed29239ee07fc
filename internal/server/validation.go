package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	invoicedomain "github.com/smallbiznis/customerdesk/internal/invoice/domain"
	phonedomain "github.com/smallbiznis/customerdesk/internal/phonenumber/domain"
)

const phoneTypeMessage = "Type must be one of: Mobile, Work, DirectDial."

var setupValidatorOnce sync.Once

// setupValidator registers JSON field names and the domain validators on
// gin's shared validator engine.
func setupValidator() {
	setupValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("invoicenumber", func(fl validator.FieldLevel) bool {
			return invoicedomain.IsValidNumber(fl.Field().String())
		})
		_ = v.RegisterValidation("phonetype", func(fl validator.FieldLevel) bool {
			return phonedomain.IsValidType(fl.Field().String())
		})
	})
}

// bindJSONBody decodes and validates the request body. An empty body and the
// literal null are rejected before decoding.
func bindJSONBody(c *gin.Context, obj any) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return newValidationError("body", "unreadable_body", "The request body could not be read.")
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return newValidationError("body", "body_required", "A non-empty JSON request body is required.")
	}
	if err := binding.JSON.BindBody(trimmed, obj); err != nil {
		return bindingError(err)
	}
	return nil
}

func bindingError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := &ValidationErrors{Errors: make([]ValidationError, 0, len(fieldErrs))}
		for _, fe := range fieldErrs {
			out.Errors = append(out.Errors, ValidationError{
				Field:   fieldPath(fe),
				Code:    fe.Tag(),
				Message: validationMessage(fe),
			})
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return newValidationError(typeErr.Field, "invalid_type", "The value has the wrong JSON type for "+typeErr.Field+".")
	}

	return newValidationError("body", "invalid_json", "The request body is not valid JSON: "+err.Error())
}

// fieldPath drops the Go struct name from the validator namespace, leaving
// e.g. "invoices[0].invoiceNumber".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "The " + fe.Field() + " field is required."
	case "invoicenumber":
		return "Invoice number must start with 'INV'."
	case "phonetype":
		return phoneTypeMessage
	case "gt":
		return "The " + fe.Field() + " must be greater than " + fe.Param() + "."
	case "max":
		return "The " + fe.Field() + " must be at most " + fe.Param() + " characters."
	default:
		return "The " + fe.Field() + " field is invalid."
	}
}
