// Package scenario drives the API through a fixed sequence of demo calls,
// some of which are meant to fail.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/customerdesk/internal/client"
	customerdomain "github.com/smallbiznis/customerdesk/internal/customer/domain"
	"github.com/smallbiznis/customerdesk/pkg/telemetry/correlation"
	"go.uber.org/zap"
)

var errSkipped = errors.New("skipped")

// Step is one API interaction. ExpectStatus is the HTTP status the step is
// supposed to fail with; zero means the step should succeed.
type Step struct {
	Name         string
	ExpectStatus int
	Run          func(ctx context.Context, st *State) error
}

// State is shared between steps of one run.
type State struct {
	Client *client.Client
	APIKey string
	Suffix string

	Customer       customerdomain.Customer
	InvoiceNumber  string
	ListedCustomer int64
}

func (s *State) requireCustomer() error {
	if s.Customer.ID <= 0 {
		return fmt.Errorf("%w: no customer was created", errSkipped)
	}
	return nil
}

type Report struct {
	Succeeded        int
	ExpectedFailures int
	Unexpected       int
	Skipped          int
}

// Failed reports whether any step behaved differently than expected.
func (r Report) Failed() bool {
	return r.Unexpected > 0
}

type Runner struct {
	client *client.Client
	apiKey string
	log    *zap.Logger
	steps  []Step
}

func NewRunner(c *client.Client, apiKey string, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		client: c,
		apiKey: apiKey,
		log:    log.Named("scenario"),
		steps:  DefaultSteps(),
	}
}

// Run executes every step in order. A failing step never stops the run.
func (r *Runner) Run(ctx context.Context) Report {
	st := &State{
		Client: r.client,
		APIKey: r.apiKey,
		Suffix: strings.ToLower(ulid.Make().String()[16:]),
	}

	var report Report
	for i, step := range r.steps {
		stepCtx, requestID := correlation.EnsureCorrelationID(ctx)
		log := r.log.With(
			zap.Int("step", i+1),
			zap.String("scenario", step.Name),
			zap.String("request_id", requestID),
		)

		err := step.Run(stepCtx, st)
		switch {
		case errors.Is(err, errSkipped):
			report.Skipped++
			log.Warn("scenario skipped", zap.String("reason", err.Error()))
		case step.ExpectStatus == 0 && err == nil:
			report.Succeeded++
			log.Info("scenario succeeded")
		case step.ExpectStatus == 0:
			report.Unexpected++
			log.Error("scenario failed", failureFields(err)...)
		case err == nil:
			report.Unexpected++
			log.Error("expected failure did not occur", zap.Int("expected_status", step.ExpectStatus))
		case client.StatusCode(err) == step.ExpectStatus:
			report.ExpectedFailures++
			log.Info("scenario failed as expected", failureFields(err)...)
		default:
			report.Unexpected++
			log.Error("scenario failed with unexpected status",
				append(failureFields(err), zap.Int("expected_status", step.ExpectStatus))...)
		}
	}

	r.log.Info("scenarios finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("expected_failures", report.ExpectedFailures),
		zap.Int("unexpected", report.Unexpected),
		zap.Int("skipped", report.Skipped),
	)
	return report
}

func failureFields(err error) []zap.Field {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return []zap.Field{zap.Error(err)}
	}
	fields := []zap.Field{zap.Int("status", apiErr.StatusCode)}
	if p := apiErr.Problem; p != nil {
		fields = append(fields,
			zap.String("title", p.Title),
			zap.String("detail", p.Detail),
			zap.String("trace_id", p.TraceID),
		)
		if len(p.Extensions) > 0 {
			fields = append(fields, zap.Any("extensions", p.Extensions))
		}
		if len(p.Errors) > 0 {
			fields = append(fields, zap.Any("errors", p.Errors))
		}
	}
	return fields
}

// DefaultSteps is the console client's demo sequence.
func DefaultSteps() []Step {
	return []Step{
		{Name: "list customers", Run: listCustomers},
		{Name: "get customer", Run: getListedCustomer},
		{Name: "create customer with invoices and phone numbers", Run: createCustomer},
		{Name: "create duplicate customer", ExpectStatus: 409, Run: createDuplicateCustomer},
		{Name: "add invoice", Run: addInvoice},
		{Name: "add duplicate invoice", ExpectStatus: 409, Run: addDuplicateInvoice},
		{Name: "add invoice with invalid number", ExpectStatus: 400, Run: addInvalidInvoice},
		{Name: "add phone number with invalid type", ExpectStatus: 400, Run: addInvalidPhoneNumber},
		{Name: "delete customer without api key", ExpectStatus: 401, Run: deleteWithoutKey},
		{Name: "delete customer", Run: deleteWithKey},
		{Name: "delete customer again", ExpectStatus: 404, Run: deleteWithKey},
		{Name: "add invoice for deleted customer", ExpectStatus: 404, Run: addInvoiceForDeletedCustomer},
	}
}

func listCustomers(ctx context.Context, st *State) error {
	customers, err := st.Client.ListCustomers(ctx)
	if err != nil {
		return err
	}
	if len(customers) > 0 {
		st.ListedCustomer = customers[0].ID
	}
	return nil
}

func getListedCustomer(ctx context.Context, st *State) error {
	if st.ListedCustomer <= 0 {
		return fmt.Errorf("%w: no customers listed", errSkipped)
	}
	_, err := st.Client.GetCustomer(ctx, st.ListedCustomer)
	return err
}

func (s *State) customerInput() client.CustomerInput {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	return client.CustomerInput{
		Name:  "Demo Customer " + s.Suffix,
		Email: "demo-" + s.Suffix + "@example.com",
		Invoices: []client.InvoiceInput{
			{InvoiceNumber: "INV-" + s.Suffix + "-A", InvoiceDate: now, Amount: decimal.RequireFromString("120.00")},
			{InvoiceNumber: "INV-" + s.Suffix + "-B", InvoiceDate: now, Amount: decimal.RequireFromString("75.50")},
			{InvoiceNumber: "INV-" + s.Suffix + "-C", InvoiceDate: now, Amount: decimal.RequireFromString("9.99")},
		},
		PhoneNumbers: []client.PhoneNumberInput{
			{Type: "Mobile", Number: "+1 555 0100"},
			{Type: "Work", Number: "+1 555 0101"},
			{Type: "DirectDial", Number: "+1 555 0102"},
		},
	}
}

func createCustomer(ctx context.Context, st *State) error {
	created, err := st.Client.CreateCustomer(ctx, st.customerInput())
	if err != nil {
		return err
	}
	if len(created.Invoices) != 3 || len(created.PhoneNumbers) != 3 {
		return fmt.Errorf("created customer %d has %d invoices and %d phone numbers, want 3 and 3",
			created.ID, len(created.Invoices), len(created.PhoneNumbers))
	}
	st.Customer = created
	return nil
}

func createDuplicateCustomer(ctx context.Context, st *State) error {
	_, err := st.Client.CreateCustomer(ctx, client.CustomerInput{
		Name:  st.customerInput().Name,
		Email: st.customerInput().Email,
	})
	return err
}

func addInvoice(ctx context.Context, st *State) error {
	if err := st.requireCustomer(); err != nil {
		return err
	}
	number := "INV-" + st.Suffix + "-D"
	_, err := st.Client.CreateInvoice(ctx, client.InvoiceInput{
		InvoiceNumber: number,
		CustomerID:    st.Customer.ID,
		InvoiceDate:   time.Now().UTC().Truncate(24 * time.Hour),
		Amount:        decimal.RequireFromString("42.00"),
	})
	if err != nil {
		return err
	}
	st.InvoiceNumber = number
	return nil
}

func addDuplicateInvoice(ctx context.Context, st *State) error {
	if err := st.requireCustomer(); err != nil {
		return err
	}
	number := st.InvoiceNumber
	if number == "" {
		number = st.Customer.Invoices[0].InvoiceNumber
	}
	_, err := st.Client.CreateInvoice(ctx, client.InvoiceInput{
		InvoiceNumber: number,
		CustomerID:    st.Customer.ID,
		Amount:        decimal.RequireFromString("1.00"),
	})
	return err
}

func addInvalidInvoice(ctx context.Context, st *State) error {
	if err := st.requireCustomer(); err != nil {
		return err
	}
	_, err := st.Client.CreateInvoice(ctx, client.InvoiceInput{
		InvoiceNumber: "ORDER-" + st.Suffix,
		CustomerID:    st.Customer.ID,
		Amount:        decimal.RequireFromString("1.00"),
	})
	return err
}

func addInvalidPhoneNumber(ctx context.Context, st *State) error {
	if err := st.requireCustomer(); err != nil {
		return err
	}
	_, err := st.Client.CreatePhoneNumber(ctx, client.PhoneNumberInput{
		CustomerID: st.Customer.ID,
		Type:       "Fax",
		Number:     "+1 555 0199",
	})
	return err
}

func deleteWithoutKey(ctx context.Context, st *State) error {
	if err := st.requireCustomer(); err != nil {
		return err
	}
	return st.Client.WithAPIKey("").DeleteCustomer(ctx, st.Customer.ID)
}

func deleteWithKey(ctx context.Context, st *State) error {
	if err := st.requireCustomer(); err != nil {
		return err
	}
	return st.Client.WithAPIKey(st.APIKey).DeleteCustomer(ctx, st.Customer.ID)
}

func addInvoiceForDeletedCustomer(ctx context.Context, st *State) error {
	if err := st.requireCustomer(); err != nil {
		return err
	}
	_, err := st.Client.CreateInvoice(ctx, client.InvoiceInput{
		InvoiceNumber: "INV-" + st.Suffix + "-LATE",
		CustomerID:    st.Customer.ID,
		Amount:        decimal.RequireFromString("5.00"),
	})
	return err
}
