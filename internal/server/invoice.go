package server

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/customerdesk/internal/invoice/domain"
)

type createInvoiceRequest struct {
	InvoiceNumber string          `json:"invoiceNumber" binding:"required,invoicenumber"`
	CustomerID    int64           `json:"customerId" binding:"required,gt=0"`
	InvoiceDate   time.Time       `json:"invoiceDate"`
	Amount        decimal.Decimal `json:"amount"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := bindJSONBody(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		InvoiceNumber: req.InvoiceNumber,
		CustomerID:    req.CustomerID,
		InvoiceDate:   req.InvoiceDate,
		Amount:        req.Amount,
	})
	if err != nil {
		AbortWithError(c, err, ext("customerId", req.CustomerID), ext("invoiceNumber", req.InvoiceNumber))
		return
	}

	c.Header("Location", "/api/invoices/"+strconv.FormatInt(resp.CustomerID, 10)+"/"+url.PathEscape(resp.InvoiceNumber))
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListInvoices(c *gin.Context) {
	resp, err := s.invoiceSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetInvoice(c *gin.Context) {
	req, ok := invoiceLookup(c)
	if !ok {
		return
	}

	resp, err := s.invoiceSvc.Get(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err, ext("customerId", req.CustomerID), ext("invoiceNumber", req.InvoiceNumber))
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetInvoicePDF(c *gin.Context) {
	req, ok := invoiceLookup(c)
	if !ok {
		return
	}

	doc, err := s.invoiceSvc.RenderPDF(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err, ext("customerId", req.CustomerID), ext("invoiceNumber", req.InvoiceNumber))
		return
	}

	body, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+req.InvoiceNumber+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", body)
}

func (s *Server) ListInvoicesByCustomer(c *gin.Context) {
	customerID, err := parsePathID(c, "customerId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		AbortWithError(c, err, ext("customerId", customerID))
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	number, err := pathString(c, "invoiceNumber")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.invoiceSvc.Delete(c.Request.Context(), number); err != nil {
		AbortWithError(c, err, ext("invoiceNumber", number))
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) DeleteInvoicesByCustomer(c *gin.Context) {
	customerID, err := parsePathID(c, "customerId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.invoiceSvc.DeleteByCustomer(c.Request.Context(), customerID); err != nil {
		AbortWithError(c, err, ext("customerId", customerID))
		return
	}

	c.Status(http.StatusNoContent)
}

func invoiceLookup(c *gin.Context) (invoicedomain.GetInvoiceRequest, bool) {
	customerID, err := parsePathID(c, "customerId")
	if err != nil {
		AbortWithError(c, err)
		return invoicedomain.GetInvoiceRequest{}, false
	}
	number, err := pathString(c, "invoiceNumber")
	if err != nil {
		AbortWithError(c, err)
		return invoicedomain.GetInvoiceRequest{}, false
	}
	return invoicedomain.GetInvoiceRequest{CustomerID: customerID, InvoiceNumber: number}, true
}
