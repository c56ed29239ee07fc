package service

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/customerdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/customerdesk/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/customerdesk/internal/observability/metrics"
	phonedomain "github.com/smallbiznis/customerdesk/internal/phonenumber/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Repo    domain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	repo    domain.Repository
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("customer.service"),
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (domain.Customer, error) {
	if id <= 0 {
		return domain.Customer{}, domain.ErrInvalidID
	}
	customer, ok := s.repo.FindCustomer(id)
	if !ok {
		return domain.Customer{}, domain.ErrNotFound
	}
	return customer, nil
}

func (s *Service) ListInvoices(ctx context.Context, id int64) ([]invoicedomain.Invoice, error) {
	customer, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return customer.Invoices, nil
}

func (s *Service) ListPhoneNumbers(ctx context.Context, id int64) ([]phonedomain.PhoneNumber, error) {
	customer, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return customer.PhoneNumbers, nil
}

// Create validates embedded children, then hands the customer to the
// repository, which rejects name/email collisions and taken invoice numbers
// in the same step as the insert.
func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)

	invoices := make([]invoicedomain.Invoice, 0, len(req.Invoices))
	for _, item := range req.Invoices {
		if err := invoicedomain.ValidateNumber(item.InvoiceNumber); err != nil {
			s.metrics.RecordRejected(ctx, obsmetrics.ResourceInvoice, err.Error())
			return domain.Customer{}, err
		}
		invoices = append(invoices, invoicedomain.Invoice{
			InvoiceNumber: item.InvoiceNumber,
			InvoiceDate:   item.InvoiceDate,
			Amount:        item.Amount,
		})
	}

	phones := make([]phonedomain.PhoneNumber, 0, len(req.PhoneNumbers))
	for _, item := range req.PhoneNumbers {
		if !phonedomain.IsValidType(item.Type) {
			s.metrics.RecordRejected(ctx, obsmetrics.ResourcePhoneNumber, phonedomain.ErrInvalidType.Error())
			return domain.Customer{}, phonedomain.ErrInvalidType
		}
		phones = append(phones, phonedomain.PhoneNumber{
			Type:   phonedomain.Type(item.Type),
			Number: item.Number,
		})
	}

	created, err := s.repo.CreateCustomer(domain.Customer{
		Name:         name,
		Email:        email,
		Invoices:     invoices,
		PhoneNumbers: phones,
	})
	if err != nil {
		s.recordConflict(ctx, err)
		return domain.Customer{}, err
	}

	s.metrics.RecordCreated(ctx, obsmetrics.ResourceCustomer, obsmetrics.SourceDirect, 1)
	s.metrics.RecordCreated(ctx, obsmetrics.ResourceInvoice, obsmetrics.SourceEmbedded, len(created.Invoices))
	s.metrics.RecordCreated(ctx, obsmetrics.ResourcePhoneNumber, obsmetrics.SourceEmbedded, len(created.PhoneNumbers))
	s.log.Info("customer created",
		zap.Int64("customer_id", created.ID),
		zap.Int("invoices", len(created.Invoices)),
		zap.Int("phone_numbers", len(created.PhoneNumbers)),
	)
	return created, nil
}

// Update replaces name and email. The customer being updated is excluded from
// duplicate detection so it can keep its current values.
func (s *Service) Update(ctx context.Context, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	if req.ID <= 0 {
		return domain.Customer{}, domain.ErrInvalidID
	}

	updated, err := s.repo.UpdateCustomerChecked(req.ID, domain.Customer{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
	})
	if err != nil {
		s.recordConflict(ctx, err)
		return domain.Customer{}, err
	}

	s.log.Info("customer updated", zap.Int64("customer_id", req.ID))
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrInvalidID
	}
	existing, ok := s.repo.FindCustomer(id)
	if !ok {
		return domain.ErrNotFound
	}
	if !s.repo.DeleteCustomer(id) {
		return domain.ErrNotFound
	}

	s.metrics.RecordDeleted(ctx, obsmetrics.ResourceCustomer, 1)
	s.metrics.RecordDeleted(ctx, obsmetrics.ResourceInvoice, len(existing.Invoices))
	s.metrics.RecordDeleted(ctx, obsmetrics.ResourcePhoneNumber, len(existing.PhoneNumbers))
	s.log.Info("customer deleted",
		zap.Int64("customer_id", id),
		zap.Int("cascaded_invoices", len(existing.Invoices)),
		zap.Int("cascaded_phone_numbers", len(existing.PhoneNumbers)),
	)
	return nil
}

func (s *Service) recordConflict(ctx context.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		s.metrics.RecordConflict(ctx, obsmetrics.ResourceCustomer, domain.ErrDuplicate.Error())
	case errors.Is(err, invoicedomain.ErrDuplicateNumber):
		s.metrics.RecordConflict(ctx, obsmetrics.ResourceInvoice, invoicedomain.ErrDuplicateNumber.Error())
	}
}
