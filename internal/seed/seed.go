// Package seed fills the in-memory store with sample customers at startup.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/customerdesk/internal/clock"
	"github.com/smallbiznis/customerdesk/internal/config"
	customerdomain "github.com/smallbiznis/customerdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/customerdesk/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/customerdesk/internal/observability/metrics"
	phonedomain "github.com/smallbiznis/customerdesk/internal/phonenumber/domain"
	"github.com/smallbiznis/customerdesk/internal/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("seed",
	fx.Invoke(Run),
)

type Params struct {
	fx.In

	Cfg     config.Config
	DB      *repository.AppDB
	Log     *zap.Logger
	Clock   clock.Clock         `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
}

// Run loads generated customers into the store when seeding is enabled.
func Run(p Params) {
	log := p.Log.Named("seed")
	if !p.Cfg.Seed.Enabled {
		log.Debug("seeding disabled")
		return
	}

	var now time.Time
	if p.Clock != nil {
		now = p.Clock.Now()
	} else {
		now = time.Now().UTC()
	}

	customers := Generate(p.Cfg.Seed, now)
	p.DB.Load(customers)

	var invoices, phones int
	for _, c := range customers {
		invoices += len(c.Invoices)
		phones += len(c.PhoneNumbers)
	}

	ctx := context.Background()
	p.Metrics.RecordCreated(ctx, obsmetrics.ResourceCustomer, obsmetrics.SourceSeed, len(customers))
	p.Metrics.RecordCreated(ctx, obsmetrics.ResourceInvoice, obsmetrics.SourceSeed, invoices)
	p.Metrics.RecordCreated(ctx, obsmetrics.ResourcePhoneNumber, obsmetrics.SourceSeed, phones)

	log.Info("sample data loaded",
		zap.Int("customers", len(customers)),
		zap.Int("invoices", invoices),
		zap.Int("phone_numbers", phones),
		zap.Int64("random_seed", p.Cfg.Seed.RandomSeed),
	)
}

// Generate builds customers with IDs already assigned, ready for
// repository.AppDB.Load. Customer names and emails are unique
// case-insensitively and invoice numbers are unique across the batch.
// Invoice dates fall within the year before now.
func Generate(cfg config.SeedConfig, now time.Time) []customerdomain.Customer {
	if cfg.Customers <= 0 {
		return nil
	}

	f := gofakeit.New(uint64(cfg.RandomSeed))
	names := newUniqueSet()
	emails := newUniqueSet()

	var invoiceID, phoneID int64
	customers := make([]customerdomain.Customer, 0, cfg.Customers)
	for i := 1; i <= cfg.Customers; i++ {
		customerID := int64(i)
		customer := customerdomain.Customer{
			ID:    customerID,
			Name:  names.claim(f.Company, customerID),
			Email: emails.claim(f.Email, customerID),
		}

		for n := count(f, cfg.MaxInvoices); n > 0; n-- {
			invoiceID++
			customer.Invoices = append(customer.Invoices, invoicedomain.Invoice{
				ID:            invoiceID,
				CustomerID:    customerID,
				InvoiceNumber: fmt.Sprintf("%s-%06d", invoicedomain.NumberPrefix, invoiceID),
				InvoiceDate:   f.DateRange(now.AddDate(-1, 0, 0), now).Truncate(24 * time.Hour),
				Amount:        decimal.NewFromFloat(f.Price(10, 5000)).Round(2),
			})
		}

		for n := count(f, cfg.MaxPhoneNumbers); n > 0; n-- {
			phoneID++
			customer.PhoneNumbers = append(customer.PhoneNumbers, phonedomain.PhoneNumber{
				ID:         phoneID,
				CustomerID: customerID,
				Type:       phonedomain.Types[f.IntRange(0, len(phonedomain.Types)-1)],
				Number:     f.Phone(),
			})
		}

		customer.Balance = invoicedomain.Total(customer.Invoices)
		customers = append(customers, customer)
	}
	return customers
}

func count(f *gofakeit.Faker, max int) int {
	if max <= 0 {
		return 0
	}
	return f.IntRange(0, max)
}

type uniqueSet map[string]struct{}

func newUniqueSet() uniqueSet {
	return uniqueSet{}
}

// claim draws values until one is unused. After a few collisions it makes
// the last draw unique by suffixing the customer ID.
func (s uniqueSet) claim(next func() string, id int64) string {
	var value string
	for attempt := 0; attempt < 5; attempt++ {
		value = next()
		if s.add(value) {
			return value
		}
	}
	value = fmt.Sprintf("%s %d", value, id)
	s.add(value)
	return value
}

func (s uniqueSet) add(value string) bool {
	key := strings.ToLower(strings.TrimSpace(value))
	if _, taken := s[key]; taken {
		return false
	}
	s[key] = struct{}{}
	return true
}
