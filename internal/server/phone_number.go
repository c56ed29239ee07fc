package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	phonedomain "github.com/smallbiznis/customerdesk/internal/phonenumber/domain"
)

type createPhoneNumberRequest struct {
	CustomerID int64  `json:"customerId" binding:"required,gt=0"`
	Type       string `json:"type" binding:"required,phonetype"`
	Number     string `json:"number"`
}

func (s *Server) CreatePhoneNumber(c *gin.Context) {
	var req createPhoneNumberRequest
	if err := bindJSONBody(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.phoneNumberSvc.Create(c.Request.Context(), phonedomain.CreatePhoneNumberRequest{
		CustomerID: req.CustomerID,
		Type:       req.Type,
		Number:     req.Number,
	})
	if err != nil {
		AbortWithError(c, err, ext("customerId", req.CustomerID))
		return
	}

	c.Header("Location", "/api/phonenumbers/"+strconv.FormatInt(resp.CustomerID, 10)+"/"+strconv.FormatInt(resp.ID, 10))
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListPhoneNumbers(c *gin.Context) {
	resp, err := s.phoneNumberSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetPhoneNumber(c *gin.Context) {
	customerID, err := parsePathID(c, "customerId")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.phoneNumberSvc.Get(c.Request.Context(), phonedomain.GetPhoneNumberRequest{
		CustomerID: customerID,
		ID:         id,
	})
	if err != nil {
		AbortWithError(c, err, ext("customerId", customerID), ext("phoneNumberId", id))
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListPhoneNumbersByCustomer(c *gin.Context) {
	customerID, err := parsePathID(c, "customerId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.phoneNumberSvc.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		AbortWithError(c, err, ext("customerId", customerID))
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeletePhoneNumber(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.phoneNumberSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err, ext("phoneNumberId", id))
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) DeletePhoneNumbersByCustomer(c *gin.Context) {
	customerID, err := parsePathID(c, "customerId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.phoneNumberSvc.DeleteByCustomer(c.Request.Context(), customerID); err != nil {
		AbortWithError(c, err, ext("customerId", customerID))
		return
	}

	c.Status(http.StatusNoContent)
}
