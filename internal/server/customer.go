package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/customerdesk/internal/customer/domain"
)

type customerInvoiceRequest struct {
	InvoiceNumber string          `json:"invoiceNumber" binding:"required,invoicenumber"`
	InvoiceDate   time.Time       `json:"invoiceDate"`
	Amount        decimal.Decimal `json:"amount"`
}

type customerPhoneNumberRequest struct {
	Type   string `json:"type" binding:"required,phonetype"`
	Number string `json:"number"`
}

type createCustomerRequest struct {
	Name         string                       `json:"name" binding:"max=256"`
	Email        string                       `json:"email" binding:"max=256"`
	Invoices     []customerInvoiceRequest     `json:"invoices" binding:"omitempty,dive"`
	PhoneNumbers []customerPhoneNumberRequest `json:"phoneNumbers" binding:"omitempty,dive"`
}

type updateCustomerRequest struct {
	Name  string `json:"name" binding:"max=256"`
	Email string `json:"email" binding:"max=256"`
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := bindJSONBody(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	create := customerdomain.CreateCustomerRequest{
		Name:         req.Name,
		Email:        req.Email,
		Invoices:     make([]customerdomain.CreateInvoiceItem, 0, len(req.Invoices)),
		PhoneNumbers: make([]customerdomain.CreatePhoneNumberItem, 0, len(req.PhoneNumbers)),
	}
	for _, item := range req.Invoices {
		create.Invoices = append(create.Invoices, customerdomain.CreateInvoiceItem{
			InvoiceNumber: item.InvoiceNumber,
			InvoiceDate:   item.InvoiceDate,
			Amount:        item.Amount,
		})
	}
	for _, item := range req.PhoneNumbers {
		create.PhoneNumbers = append(create.PhoneNumbers, customerdomain.CreatePhoneNumberItem{
			Type:   item.Type,
			Number: item.Number,
		})
	}

	resp, err := s.customerSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Location", "/api/customers/"+strconv.FormatInt(resp.ID, 10))
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListCustomers(c *gin.Context) {
	resp, err := s.customerSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.customerSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err, ext("customerId", id))
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListCustomerInvoices(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.customerSvc.ListInvoices(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err, ext("customerId", id))
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListCustomerPhoneNumbers(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.customerSvc.ListPhoneNumbers(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err, ext("customerId", id))
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) UpdateCustomer(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateCustomerRequest
	if err := bindJSONBody(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.customerSvc.Update(c.Request.Context(), customerdomain.UpdateCustomerRequest{
		ID:    id,
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		AbortWithError(c, err, ext("customerId", id))
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteCustomer(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.customerSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err, ext("customerId", id))
		return
	}

	c.Status(http.StatusNoContent)
}
