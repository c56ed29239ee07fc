package service

import (
	"context"
	"errors"
	"fmt"

	obsmetrics "github.com/smallbiznis/customerdesk/internal/observability/metrics"
	"github.com/smallbiznis/customerdesk/internal/phonenumber/domain"
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
		log:     p.Log.Named("phonenumber.service"),
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.PhoneNumber, error) {
	return s.repo.ListPhoneNumbers(), nil
}

// Get returns the phone number only when it belongs to the given customer.
func (s *Service) Get(ctx context.Context, req domain.GetPhoneNumberRequest) (domain.PhoneNumber, error) {
	if req.CustomerID <= 0 {
		return domain.PhoneNumber{}, domain.ErrInvalidCustomerID
	}
	if req.ID <= 0 {
		return domain.PhoneNumber{}, domain.ErrInvalidID
	}

	phone, ok := s.repo.FindPhoneNumber(req.ID)
	if !ok || phone.CustomerID != req.CustomerID {
		return domain.PhoneNumber{}, domain.ErrNotFound
	}
	return phone, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]domain.PhoneNumber, error) {
	if customerID <= 0 {
		return nil, domain.ErrInvalidCustomerID
	}
	if !s.repo.CustomerExists(customerID) {
		return nil, domain.ErrCustomerNotFound
	}
	return s.repo.ListPhoneNumbersByCustomer(customerID), nil
}

// Create checks the type against the fixed, case-sensitive set before the
// repository resolves the owning customer and inserts.
func (s *Service) Create(ctx context.Context, req domain.CreatePhoneNumberRequest) (domain.PhoneNumber, error) {
	if req.CustomerID <= 0 {
		s.metrics.RecordRejected(ctx, obsmetrics.ResourcePhoneNumber, domain.ErrInvalidCustomerID.Error())
		return domain.PhoneNumber{}, domain.ErrInvalidCustomerID
	}
	if !domain.IsValidType(req.Type) {
		s.metrics.RecordRejected(ctx, obsmetrics.ResourcePhoneNumber, domain.ErrInvalidType.Error())
		return domain.PhoneNumber{}, domain.ErrInvalidType
	}

	created, err := s.repo.InsertPhoneNumberChecked(domain.PhoneNumber{
		CustomerID: req.CustomerID,
		Type:       domain.Type(req.Type),
		Number:     req.Number,
	})
	if errors.Is(err, domain.ErrCustomerNotFound) {
		return domain.PhoneNumber{}, err
	}
	if err != nil {
		return domain.PhoneNumber{}, fmt.Errorf("insert phone number: %w", err)
	}

	s.metrics.RecordCreated(ctx, obsmetrics.ResourcePhoneNumber, obsmetrics.SourceDirect, 1)
	s.log.Info("phone number created",
		zap.Int64("phone_number_id", created.ID),
		zap.Int64("customer_id", created.CustomerID),
		zap.String("type", string(created.Type)),
	)
	return created, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrInvalidID
	}
	if !s.repo.DeletePhoneNumber(id) {
		return domain.ErrNotFound
	}

	s.metrics.RecordDeleted(ctx, obsmetrics.ResourcePhoneNumber, 1)
	s.log.Info("phone number deleted", zap.Int64("phone_number_id", id))
	return nil
}

func (s *Service) DeleteByCustomer(ctx context.Context, customerID int64) error {
	if customerID <= 0 {
		return domain.ErrInvalidCustomerID
	}
	if !s.repo.CustomerExists(customerID) {
		return domain.ErrCustomerNotFound
	}

	removed := len(s.repo.ListPhoneNumbersByCustomer(customerID))
	if !s.repo.DeletePhoneNumbersByCustomer(customerID) {
		return domain.ErrInvalidCustomerID
	}

	s.metrics.RecordDeleted(ctx, obsmetrics.ResourcePhoneNumber, removed)
	s.log.Info("customer phone numbers deleted",
		zap.Int64("customer_id", customerID),
		zap.Int("count", removed),
	)
	return nil
}
