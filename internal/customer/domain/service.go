package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/customerdesk/internal/invoice/domain"
	phonedomain "github.com/smallbiznis/customerdesk/internal/phonenumber/domain"
)

type CreateInvoiceItem struct {
	InvoiceNumber string
	InvoiceDate   time.Time
	Amount        decimal.Decimal
}

type CreatePhoneNumberItem struct {
	Type   string
	Number string
}

type CreateCustomerRequest struct {
	Name         string
	Email        string
	Invoices     []CreateInvoiceItem
	PhoneNumbers []CreatePhoneNumberItem
}

type UpdateCustomerRequest struct {
	ID    int64
	Name  string
	Email string
}

type Service interface {
	List(context.Context) ([]Customer, error)
	GetByID(ctx context.Context, id int64) (Customer, error)
	ListInvoices(ctx context.Context, id int64) ([]invoicedomain.Invoice, error)
	ListPhoneNumbers(ctx context.Context, id int64) ([]phonedomain.PhoneNumber, error)
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	Delete(ctx context.Context, id int64) error
}

var (
	ErrInvalidID = errors.New("invalid_id")
	ErrNotFound  = errors.New("not_found")
	ErrDuplicate = errors.New("duplicate_customer")
)

// DuplicateError names the fields ("name", "email") that collide with
// another customer.
type DuplicateError struct {
	Fields             []string
	ExistingCustomerID int64
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("customer with the same %s already exists (id %d)",
		strings.Join(e.Fields, " and "), e.ExistingCustomerID)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}
