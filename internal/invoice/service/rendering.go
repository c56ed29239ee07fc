package service

import (
	"context"
	"io"
	"strconv"

	customerdomain "github.com/smallbiznis/customerdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/customerdesk/internal/invoice/domain"
	"github.com/smallbiznis/customerdesk/internal/providers/pdf"
	"go.uber.org/zap"
)

// CustomerLookup resolves the bill-to party of an invoice.
type CustomerLookup interface {
	FindCustomer(id int64) (customerdomain.Customer, bool)
}

const issueDateLayout = "2006-01-02"

func (s *Service) RenderPDF(ctx context.Context, req invoicedomain.GetInvoiceRequest) (io.Reader, error) {
	invoice, err := s.Get(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.renderer == nil {
		return nil, invoicedomain.ErrRendererNotConfigured
	}

	data := pdf.InvoiceData{
		InvoiceNumber: invoice.InvoiceNumber,
		CustomerID:    strconv.FormatInt(invoice.CustomerID, 10),
		Amount:        invoice.Amount.StringFixed(2),
		Balance:       invoice.Amount.StringFixed(2),
	}
	if !invoice.InvoiceDate.IsZero() {
		data.IssueDate = invoice.InvoiceDate.UTC().Format(issueDateLayout)
	}
	if s.customers != nil {
		if customer, ok := s.customers.FindCustomer(invoice.CustomerID); ok {
			data.BillToName = customer.Name
			data.BillToEmail = customer.Email
			data.Balance = customer.Balance.StringFixed(2)
		}
	}

	doc, err := s.renderer.GenerateInvoice(ctx, data)
	if err != nil {
		s.log.Error("failed to render invoice",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Int64("customer_id", invoice.CustomerID),
			zap.Error(err),
		)
		return nil, err
	}
	return doc, nil
}
