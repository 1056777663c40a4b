package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/creditdash/internal/customer/domain"
	"github.com/smallbiznis/creditdash/pkg/db/pagination"
)

type customerRequest struct {
	Name             string         `json:"name"`
	APIKey           string         `json:"api_key"`
	ManagedAccountID string         `json:"managed_account_id"`
	CustomerNumber   *string        `json:"customer_number"`
	Plan             *string        `json:"plan"`
	Email            *string        `json:"email"`
	OpeningCredit    float64        `json:"opening_credit"`
	CurrentCredit    float64        `json:"current_credit"`
	Metadata         map[string]any `json:"metadata"`
}

func (r customerRequest) fields() customerdomain.CustomerFields {
	return customerdomain.CustomerFields{
		Name:             strings.TrimSpace(r.Name),
		APIKey:           strings.TrimSpace(r.APIKey),
		ManagedAccountID: strings.TrimSpace(r.ManagedAccountID),
		CustomerNumber:   r.CustomerNumber,
		Plan:             r.Plan,
		Email:            r.Email,
		OpeningCredit:    r.OpeningCredit,
		CurrentCredit:    r.CurrentCredit,
		Metadata:         r.Metadata,
	}
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateCustomerRequest{
		CustomerFields: req.fields(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomers(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.customerSvc.GetByID(c.Request.Context(), customerdomain.GetCustomerRequest{
		ID: id,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Update(c.Request.Context(), customerdomain.UpdateCustomerRequest{
		ID:             strings.TrimSpace(c.Param("id")),
		CustomerFields: req.fields(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteCustomer(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.customerSvc.Delete(c.Request.Context(), customerdomain.DeleteCustomerRequest{
		ID: id,
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
