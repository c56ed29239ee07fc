package domain

import (
	"context"
	"errors"
)

type CreatePhoneNumberRequest struct {
	CustomerID int64
	Type       string
	Number     string
}

type GetPhoneNumberRequest struct {
	CustomerID int64
	ID         int64
}

type Service interface {
	List(context.Context) ([]PhoneNumber, error)
	Get(context.Context, GetPhoneNumberRequest) (PhoneNumber, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]PhoneNumber, error)
	Create(context.Context, CreatePhoneNumberRequest) (PhoneNumber, error)
	Delete(ctx context.Context, id int64) error
	DeleteByCustomer(ctx context.Context, customerID int64) error
}

var (
	ErrNotFound          = errors.New("not_found")
	ErrCustomerNotFound  = errors.New("customer_not_found")
	ErrInvalidType       = errors.New("invalid_phone_type")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidCustomerID = errors.New("invalid_customer_id")
)
