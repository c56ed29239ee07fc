package pdf

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInvoiceProducesPDF(t *testing.T) {
	provider := New()

	r, err := provider.GenerateInvoice(context.Background(), InvoiceData{
		InvoiceNumber: "INV-001",
		IssueDate:     "2026-01-02",
		CustomerID:    "7",
		BillToName:    "Acme",
		Amount:        "125.50",
		Balance:       "300.00",
	})
	require.NoError(t, err)

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestGenerateInvoiceHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().GenerateInvoice(ctx, InvoiceData{InvoiceNumber: "INV-1"})
	assert.ErrorIs(t, err, context.Canceled)
}
