package domain

import (
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/customerdesk/internal/invoice/domain"
	phonedomain "github.com/smallbiznis/customerdesk/internal/phonenumber/domain"
)

// Customer is the aggregate returned to callers. Invoices, PhoneNumbers and
// Balance are projections filled by the repository on read; only ID, Name
// and Email are stored on the customer record itself.
type Customer struct {
	ID           int64                     `json:"id"`
	Name         string                    `json:"name"`
	Email        string                    `json:"email"`
	Balance      decimal.Decimal           `json:"balance"`
	Invoices     []invoicedomain.Invoice   `json:"invoices"`
	PhoneNumbers []phonedomain.PhoneNumber `json:"phoneNumbers"`
}
