package seed

import (
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/customerdesk/internal/clock"
	"github.com/smallbiznis/customerdesk/internal/config"
	customerdomain "github.com/smallbiznis/customerdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/customerdesk/internal/invoice/domain"
	phonedomain "github.com/smallbiznis/customerdesk/internal/phonenumber/domain"
	"github.com/smallbiznis/customerdesk/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func TestGenerateShape(t *testing.T) {
	cfg := config.SeedConfig{Customers: 25, MaxInvoices: 4, MaxPhoneNumbers: 3, RandomSeed: 42}
	customers := Generate(cfg, now)
	require.Len(t, customers, 25)

	names := map[string]bool{}
	emails := map[string]bool{}
	numbers := map[string]bool{}
	var lastInvoiceID, lastPhoneID int64

	for i, c := range customers {
		assert.Equal(t, int64(i+1), c.ID)
		assert.False(t, names[strings.ToLower(c.Name)], "duplicate name %q", c.Name)
		assert.False(t, emails[strings.ToLower(c.Email)], "duplicate email %q", c.Email)
		names[strings.ToLower(c.Name)] = true
		emails[strings.ToLower(c.Email)] = true

		assert.LessOrEqual(t, len(c.Invoices), cfg.MaxInvoices)
		assert.LessOrEqual(t, len(c.PhoneNumbers), cfg.MaxPhoneNumbers)

		for _, inv := range c.Invoices {
			assert.Equal(t, c.ID, inv.CustomerID)
			assert.Greater(t, inv.ID, lastInvoiceID)
			lastInvoiceID = inv.ID
			assert.NoError(t, invoicedomain.ValidateNumber(inv.InvoiceNumber))
			assert.False(t, numbers[inv.InvoiceNumber])
			numbers[inv.InvoiceNumber] = true
			assert.True(t, inv.Amount.IsPositive())
			assert.False(t, inv.InvoiceDate.After(now))
		}
		for _, phone := range c.PhoneNumbers {
			assert.Equal(t, c.ID, phone.CustomerID)
			assert.Greater(t, phone.ID, lastPhoneID)
			lastPhoneID = phone.ID
			assert.True(t, phonedomain.IsValidType(string(phone.Type)))
		}
		assert.True(t, invoicedomain.Total(c.Invoices).Equal(c.Balance))
	}
}

func TestGenerateIsReproducibleWithSeed(t *testing.T) {
	cfg := config.SeedConfig{Customers: 5, MaxInvoices: 2, MaxPhoneNumbers: 2, RandomSeed: 7}
	assert.Equal(t, Generate(cfg, now), Generate(cfg, now))
}

func TestGenerateEmpty(t *testing.T) {
	assert.Empty(t, Generate(config.SeedConfig{}, now))
	customers := Generate(config.SeedConfig{Customers: 3, RandomSeed: 1}, now)
	require.Len(t, customers, 3)
	for _, c := range customers {
		assert.Empty(t, c.Invoices)
		assert.Empty(t, c.PhoneNumbers)
	}
}

func TestRunLoadsStoreAndAdvancesCounters(t *testing.T) {
	db := repository.New()
	cfg := config.Config{Seed: config.SeedConfig{
		Enabled: true, Customers: 4, MaxInvoices: 2, MaxPhoneNumbers: 2, RandomSeed: 3,
	}}

	Run(Params{Cfg: cfg, DB: db, Log: zap.NewNop()})

	counts := db.Counts()
	assert.Equal(t, 4, counts.Customers)

	created := db.InsertCustomer(customerdomain.Customer{Name: "After Seed"})
	assert.Equal(t, int64(5), created.ID)

	inv, err := db.InsertInvoice(invoicedomain.Invoice{InvoiceNumber: "INV-NEW", CustomerID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(counts.Invoices+1), inv.ID)
}

func TestRunDisabled(t *testing.T) {
	db := repository.New()
	Run(Params{Cfg: config.Config{Seed: config.SeedConfig{Customers: 10}}, DB: db, Log: zap.NewNop()})
	assert.Equal(t, repository.Counts{}, db.Counts())
}

func TestRunDatesInvoicesFromClock(t *testing.T) {
	db := repository.New()
	cfg := config.Config{Seed: config.SeedConfig{
		Enabled: true, Customers: 8, MaxInvoices: 3, MaxPhoneNumbers: 1, RandomSeed: 9,
	}}

	Run(Params{Cfg: cfg, DB: db, Log: zap.NewNop(), Clock: clock.NewFakeClock(now)})

	invoices := db.ListInvoices()
	require.NotEmpty(t, invoices)
	for _, inv := range invoices {
		assert.False(t, inv.InvoiceDate.After(now), "invoice %s dated %s", inv.InvoiceNumber, inv.InvoiceDate)
		assert.True(t, inv.InvoiceDate.After(now.AddDate(-1, 0, -1)))
	}
}
