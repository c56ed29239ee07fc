package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	invoicedomain "github.com/smallbiznis/customerdesk/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/customerdesk/internal/observability/metrics"
	"github.com/smallbiznis/customerdesk/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log       *zap.Logger
	Repo      invoicedomain.Repository
	Customers CustomerLookup
	Renderer  pdf.Provider        `optional:"true"`
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log *zap.Logger

	repo      invoicedomain.Repository
	customers CustomerLookup
	renderer  pdf.Provider
	metrics   *obsmetrics.Metrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		log:       p.Log.Named("invoice.service"),
		repo:      p.Repo,
		customers: p.Customers,
		renderer:  p.Renderer,
		metrics:   p.Metrics,
	}
}

func (s *Service) List(ctx context.Context) ([]invoicedomain.Invoice, error) {
	return s.repo.ListInvoices(), nil
}

// Get returns the invoice only when it belongs to the given customer.
func (s *Service) Get(ctx context.Context, req invoicedomain.GetInvoiceRequest) (invoicedomain.Invoice, error) {
	if req.CustomerID <= 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidCustomerID
	}
	if strings.TrimSpace(req.InvoiceNumber) == "" {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNumberRequired
	}

	invoice, ok := s.repo.FindInvoiceByNumber(req.InvoiceNumber)
	if !ok || invoice.CustomerID != req.CustomerID {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}
	return invoice, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]invoicedomain.Invoice, error) {
	if customerID <= 0 {
		return nil, invoicedomain.ErrInvalidCustomerID
	}
	if !s.repo.CustomerExists(customerID) {
		return nil, invoicedomain.ErrCustomerNotFound
	}
	return s.repo.ListInvoicesByCustomer(customerID), nil
}

// Create runs format validation here; the owning customer check and the
// global invoice number uniqueness check run inside the repository insert.
func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	if err := invoicedomain.ValidateNumber(req.InvoiceNumber); err != nil {
		s.metrics.RecordRejected(ctx, obsmetrics.ResourceInvoice, err.Error())
		return invoicedomain.Invoice{}, err
	}
	if req.CustomerID <= 0 {
		s.metrics.RecordRejected(ctx, obsmetrics.ResourceInvoice, invoicedomain.ErrInvalidCustomerID.Error())
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidCustomerID
	}

	created, err := s.repo.InsertInvoiceChecked(invoicedomain.Invoice{
		InvoiceNumber: req.InvoiceNumber,
		CustomerID:    req.CustomerID,
		InvoiceDate:   req.InvoiceDate,
		Amount:        req.Amount,
	})
	switch {
	case err == nil:
	case errors.Is(err, invoicedomain.ErrDuplicateNumber):
		s.metrics.RecordConflict(ctx, obsmetrics.ResourceInvoice, invoicedomain.ErrDuplicateNumber.Error())
		return invoicedomain.Invoice{}, err
	case errors.Is(err, invoicedomain.ErrCustomerNotFound):
		return invoicedomain.Invoice{}, err
	default:
		return invoicedomain.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}

	s.metrics.RecordCreated(ctx, obsmetrics.ResourceInvoice, obsmetrics.SourceDirect, 1)
	s.log.Info("invoice created",
		zap.Int64("invoice_id", created.ID),
		zap.String("invoice_number", created.InvoiceNumber),
		zap.Int64("customer_id", created.CustomerID),
	)
	return created, nil
}

func (s *Service) Delete(ctx context.Context, invoiceNumber string) error {
	if strings.TrimSpace(invoiceNumber) == "" {
		return invoicedomain.ErrInvoiceNumberRequired
	}
	if !s.repo.DeleteInvoiceByNumber(invoiceNumber) {
		return invoicedomain.ErrNotFound
	}

	s.metrics.RecordDeleted(ctx, obsmetrics.ResourceInvoice, 1)
	s.log.Info("invoice deleted", zap.String("invoice_number", invoiceNumber))
	return nil
}

// DeleteByCustomer removes every invoice of an existing customer. It succeeds
// when the customer has no invoices.
func (s *Service) DeleteByCustomer(ctx context.Context, customerID int64) error {
	if customerID <= 0 {
		return invoicedomain.ErrInvalidCustomerID
	}
	if !s.repo.CustomerExists(customerID) {
		return invoicedomain.ErrCustomerNotFound
	}

	removed := len(s.repo.ListInvoicesByCustomer(customerID))
	if !s.repo.DeleteInvoicesByCustomer(customerID) {
		return invoicedomain.ErrInvalidCustomerID
	}

	s.metrics.RecordDeleted(ctx, obsmetrics.ResourceInvoice, removed)
	s.log.Info("customer invoices deleted",
		zap.Int64("customer_id", customerID),
		zap.Int("count", removed),
	)
	return nil
}
