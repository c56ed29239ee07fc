package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	customerdomain "github.com/smallbiznis/customerdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/customerdesk/internal/invoice/domain"
	phonedomain "github.com/smallbiznis/customerdesk/internal/phonenumber/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorDomainValidationFields(t *testing.T) {
	cases := []struct {
		err   error
		field string
	}{
		{invoicedomain.ErrInvoiceNumberRequired, "invoiceNumber"},
		{invoicedomain.ErrInvalidInvoiceNumber, "invoiceNumber"},
		{invoicedomain.ErrInvalidCustomerID, "customerId"},
		{phonedomain.ErrInvalidType, "type"},
		{phonedomain.ErrInvalidID, "id"},
		{phonedomain.ErrInvalidCustomerID, "customerId"},
		{customerdomain.ErrInvalidID, "id"},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			details, code := mapError(fmt.Errorf("handler: %w", tc.err))
			require.Equal(t, http.StatusBadRequest, details.Status)
			assert.Equal(t, tc.err.Error(), code)
			assert.Contains(t, details.Errors, tc.field)
		})
	}
}

func TestMapErrorPicksFirstMatchingSentinel(t *testing.T) {
	err := errors.Join(customerdomain.ErrInvalidID, invoicedomain.ErrInvalidInvoiceNumber)

	for i := 0; i < 50; i++ {
		details, code := mapError(err)
		require.Equal(t, invoicedomain.ErrInvalidInvoiceNumber.Error(), code)
		require.Len(t, details.Errors, 1)
		require.Contains(t, details.Errors, "invoiceNumber")
	}
}
