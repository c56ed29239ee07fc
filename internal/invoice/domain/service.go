package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

type CreateInvoiceRequest struct {
	InvoiceNumber string
	CustomerID    int64
	InvoiceDate   time.Time
	Amount        decimal.Decimal
}

type GetInvoiceRequest struct {
	CustomerID    int64
	InvoiceNumber string
}

type Service interface {
	List(context.Context) ([]Invoice, error)
	Get(context.Context, GetInvoiceRequest) (Invoice, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Invoice, error)
	Create(context.Context, CreateInvoiceRequest) (Invoice, error)
	Delete(ctx context.Context, invoiceNumber string) error
	DeleteByCustomer(ctx context.Context, customerID int64) error
	RenderPDF(context.Context, GetInvoiceRequest) (io.Reader, error)
}

var (
	ErrNotFound              = errors.New("not_found")
	ErrCustomerNotFound      = errors.New("customer_not_found")
	ErrInvoiceNumberRequired = errors.New("invoice_number_required")
	ErrInvalidInvoiceNumber  = errors.New("invalid_invoice_number")
	ErrInvalidCustomerID     = errors.New("invalid_customer_id")
	ErrDuplicateNumber       = errors.New("duplicate_invoice_number")
	ErrRendererNotConfigured = errors.New("renderer_not_configured")
)

// DuplicateNumberError reports an invoice number that is already taken.
// CustomerID is the owner of the existing invoice.
type DuplicateNumberError struct {
	InvoiceNumber string
	CustomerID    int64
}

func (e *DuplicateNumberError) Error() string {
	if e.CustomerID > 0 {
		return fmt.Sprintf("invoice number %q already exists for customer %d", e.InvoiceNumber, e.CustomerID)
	}
	return fmt.Sprintf("invoice number %q is used more than once", e.InvoiceNumber)
}

func (e *DuplicateNumberError) Is(target error) bool {
	return target == ErrDuplicateNumber
}
