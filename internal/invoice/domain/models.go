// Package domain contains the invoice model and its validation rules.
package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NumberPrefix is the literal, case-sensitive prefix every invoice number starts with.
const NumberPrefix = "INV"

var numberPattern = regexp.MustCompile(`^INV.*`)

// Invoice represents an invoice owned by a single customer.
type Invoice struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	CustomerID    int64           `json:"customerId"`
	InvoiceDate   time.Time       `json:"invoiceDate"`
	Amount        decimal.Decimal `json:"amount"`
}

// IsValidNumber reports whether value carries the INV prefix.
// "INVOICE-1" and "INV" are valid, "inv-1" is not.
func IsValidNumber(value string) bool {
	return numberPattern.MatchString(value)
}

// ValidateNumber checks presence first, then format.
func ValidateNumber(value string) error {
	if strings.TrimSpace(value) == "" {
		return ErrInvoiceNumberRequired
	}
	if !IsValidNumber(value) {
		return ErrInvalidInvoiceNumber
	}
	return nil
}

// Total sums invoice amounts.
func Total(invoices []Invoice) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range invoices {
		total = total.Add(inv.Amount)
	}
	return total
}
