package service

import (
	"context"
	"testing"

	customerdomain "github.com/smallbiznis/customerdesk/internal/customer/domain"
	"github.com/smallbiznis/customerdesk/internal/phonenumber/domain"
	"github.com/smallbiznis/customerdesk/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, *repository.AppDB) {
	t.Helper()

	db := repository.New()
	return New(Params{Log: zap.NewNop(), Repo: db}), db
}

func TestCreatePhoneNumberType(t *testing.T) {
	svc, db := newTestService(t)
	owner := db.InsertCustomer(customerdomain.Customer{Name: "Owner"})

	cases := []struct {
		phoneType string
		valid     bool
	}{
		{phoneType: "Mobile", valid: true},
		{phoneType: "Work", valid: true},
		{phoneType: "DirectDial", valid: true},
		{phoneType: "mobile"},
		{phoneType: "WORK"},
		{phoneType: "Fax"},
		{phoneType: ""},
	}

	for _, tc := range cases {
		t.Run(tc.phoneType, func(t *testing.T) {
			_, err := svc.Create(context.Background(), domain.CreatePhoneNumberRequest{
				CustomerID: owner.ID,
				Type:       tc.phoneType,
				Number:     "555-0100",
			})
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrInvalidType)
		})
	}
}

func TestCreatePhoneNumberValidatesBeforeCustomerLookup(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreatePhoneNumberRequest{CustomerID: 99, Type: "Pager"})
	assert.ErrorIs(t, err, domain.ErrInvalidType)

	_, err = svc.Create(ctx, domain.CreatePhoneNumberRequest{CustomerID: 99, Type: "Work"})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestPhoneNumberLookupsAndDeletes(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := db.InsertCustomer(customerdomain.Customer{Name: "Owner"})
	stranger := db.InsertCustomer(customerdomain.Customer{Name: "Stranger"})

	created, err := svc.Create(ctx, domain.CreatePhoneNumberRequest{CustomerID: owner.ID, Type: "Work", Number: "1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreatePhoneNumberRequest{CustomerID: owner.ID, Type: "Mobile", Number: "2"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, domain.GetPhoneNumberRequest{CustomerID: owner.ID, ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.TypeWork, got.Type)

	_, err = svc.Get(ctx, domain.GetPhoneNumberRequest{CustomerID: stranger.ID, ID: created.ID})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), domain.ErrNotFound)

	require.NoError(t, svc.DeleteByCustomer(ctx, owner.ID))
	phones, err := svc.ListByCustomer(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, phones)

	_, err = svc.ListByCustomer(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}
