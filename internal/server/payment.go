package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/paylane/internal/payment/domain"
)

func (s *Server) CreatePayment(c *gin.Context) {
	var req paymentdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.ApplicationID = applicationIDFromContext(c)
	req.Method = paymentdomain.Method(strings.TrimSpace(string(req.Method)))
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.SubscriptionID = strings.TrimSpace(req.SubscriptionID)

	payment, err := s.paymentSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": paymentdomain.ToResponse(*payment)})
}

func (s *Server) ListPayments(c *gin.Context) {
	var query struct {
		Status string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	items, err := s.paymentSvc.List(c.Request.Context(), paymentdomain.ListRequest{
		ApplicationID: applicationIDFromContext(c),
		Status:        strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": paymentResponses(items)})
}

func (s *Server) GetPayment(c *gin.Context) {
	payment, err := s.paymentSvc.Get(c.Request.Context(), applicationIDFromContext(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": paymentdomain.ToResponse(*payment)})
}

func (s *Server) UpdatePaymentStatus(c *gin.Context) {
	var req paymentdomain.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ApplicationID = applicationIDFromContext(c)
	req.PaymentID = c.Param("id")
	req.Status = paymentdomain.Status(strings.TrimSpace(string(req.Status)))

	payment, err := s.paymentSvc.UpdateStatus(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": paymentdomain.ToResponse(*payment)})
}

func (s *Server) SyncPaymentStatus(c *gin.Context) {
	payment, err := s.paymentSvc.SyncStatus(c.Request.Context(), applicationIDFromContext(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": paymentdomain.ToResponse(*payment)})
}

func (s *Server) ListSubscriptionPayments(c *gin.Context) {
	items, err := s.paymentSvc.ListBySubscription(c.Request.Context(), applicationIDFromContext(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": paymentResponses(items)})
}

func paymentResponses(items []paymentdomain.Payment) []paymentdomain.Response {
	out := make([]paymentdomain.Response, 0, len(items))
	for _, item := range items {
		out = append(out, paymentdomain.ToResponse(item))
	}
	return out
}
