package scenario

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/customerdesk/internal/client"
	"github.com/smallbiznis/customerdesk/internal/config"
	customerdomain "github.com/smallbiznis/customerdesk/internal/customer/domain"
	customerservice "github.com/smallbiznis/customerdesk/internal/customer/service"
	invoiceservice "github.com/smallbiznis/customerdesk/internal/invoice/service"
	"github.com/smallbiznis/customerdesk/internal/observability"
	phoneservice "github.com/smallbiznis/customerdesk/internal/phonenumber/service"
	"github.com/smallbiznis/customerdesk/internal/providers/pdf"
	"github.com/smallbiznis/customerdesk/internal/repository"
	"github.com/smallbiznis/customerdesk/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const apiKey = "scenario-key"

func startAPI(t *testing.T, seedCustomer bool) (*httptest.Server, *repository.AppDB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := repository.New()
	security, err := config.NewStaticSecurityHolder(apiKey)
	require.NoError(t, err)

	log := zap.NewNop()
	customers := customerservice.New(customerservice.Params{Log: log, Repo: db})
	engine := server.NewEngine(observability.Config{}, nil)
	server.NewServer(server.ServerParams{
		Gin:         engine,
		Security:    security,
		CustomerSvc: customers,
		InvoiceSvc: invoiceservice.NewService(invoiceservice.ServiceParam{
			Log:       log,
			Repo:      db,
			Customers: db,
			Renderer:  pdf.New(),
		}),
		PhoneNumberSvc: phoneservice.New(phoneservice.Params{Log: log, Repo: db}),
	})

	if seedCustomer {
		_, err := customers.Create(context.Background(), customerdomain.CreateCustomerRequest{
			Name:  "Existing Co",
			Email: "existing@example.com",
		})
		require.NoError(t, err)
	}

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv, db
}

func newClient(t *testing.T, baseURL string) *client.Client {
	t.Helper()
	c, err := client.New(client.Config{BaseURL: baseURL, APIKey: apiKey, Timeout: 5 * time.Second}, nil)
	require.NoError(t, err)
	return c
}

func TestRunAgainstLiveServer(t *testing.T) {
	srv, db := startAPI(t, true)

	core, logs := observer.New(zap.InfoLevel)
	report := NewRunner(newClient(t, srv.URL), apiKey, zap.New(core)).Run(context.Background())

	assert.False(t, report.Failed(), "unexpected failures: %d", report.Unexpected)
	assert.Equal(t, 5, report.Succeeded)
	assert.Equal(t, 7, report.ExpectedFailures)
	assert.Zero(t, report.Skipped)

	// the demo customer is gone again and only the seeded one remains
	assert.Equal(t, 1, db.Counts().Customers)

	expected := logs.FilterMessage("scenario failed as expected").All()
	require.Len(t, expected, 7)
	titles := make([]string, 0, len(expected))
	for _, entry := range expected {
		fields := entry.ContextMap()
		titles = append(titles, fields["title"].(string))
		assert.NotEmpty(t, fields["trace_id"])
	}
	assert.Equal(t, []string{
		"Duplicate Customer",
		"Duplicate Invoice Number",
		"Validation Failed",
		"Validation Failed",
		"API Key Missing",
		"Customer Not Found",
		"Customer Not Found",
	}, titles)
}

func TestRunSkipsLookupOnEmptyStore(t *testing.T) {
	srv, _ := startAPI(t, false)

	report := NewRunner(newClient(t, srv.URL), apiKey, nil).Run(context.Background())
	assert.False(t, report.Failed())
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 4, report.Succeeded)
	assert.Equal(t, 7, report.ExpectedFailures)
}

func TestRunReportsWrongAPIKey(t *testing.T) {
	srv, _ := startAPI(t, true)

	report := NewRunner(newClient(t, srv.URL), "wrong", nil).Run(context.Background())
	assert.True(t, report.Failed())
	// delete with key fails 401, so the customer survives and the
	// "delete again" and "deleted customer" steps see unexpected statuses
	assert.Equal(t, 3, report.Unexpected)
}

func TestRunWithUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	report := NewRunner(newClient(t, srv.URL), apiKey, nil).Run(context.Background())
	assert.True(t, report.Failed())
	assert.Zero(t, report.Succeeded)
}
