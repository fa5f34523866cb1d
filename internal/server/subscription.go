package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	subscriptiondomain "github.com/smallbiznis/paylane/internal/subscription/domain"
)

type subscriptionTransition func(ctx context.Context, appID snowflake.ID, id string) (*subscriptiondomain.Subscription, error)

func (s *Server) CreateSubscription(c *gin.Context) {
	var req subscriptiondomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.ApplicationID = applicationIDFromContext(c)
	req.PlanName = strings.TrimSpace(req.PlanName)
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.BillingCycle = subscriptiondomain.BillingCycle(strings.TrimSpace(string(req.BillingCycle)))

	sub, err := s.subscriptionSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": subscriptiondomain.ToResponse(*sub)})
}

func (s *Server) ListSubscriptions(c *gin.Context) {
	var query struct {
		Status string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	items, err := s.subscriptionSvc.List(c.Request.Context(), subscriptiondomain.ListRequest{
		ApplicationID: applicationIDFromContext(c),
		Status:        strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": subscriptionResponses(items)})
}

func (s *Server) GetSubscription(c *gin.Context) {
	sub, err := s.subscriptionSvc.Get(c.Request.Context(), applicationIDFromContext(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": subscriptiondomain.ToResponse(*sub)})
}

func (s *Server) ListCustomerSubscriptions(c *gin.Context) {
	items, err := s.subscriptionSvc.ListByCustomer(c.Request.Context(), applicationIDFromContext(c), c.Param("customer_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": subscriptionResponses(items)})
}

func (s *Server) ListSubscriptionsDueForRenewal(c *gin.Context) {
	asOf, err := parseOptionalTime(c.Query("as_of"), true)
	if err != nil {
		AbortWithError(c, newValidationError("as_of", "invalid_as_of", "invalid as_of"))
		return
	}

	items, err := s.subscriptionSvc.DueForRenewal(c.Request.Context(), applicationIDFromContext(c), asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": subscriptionResponses(items)})
}

func (s *Server) CancelSubscription(c *gin.Context) {
	s.transitionSubscription(c, s.subscriptionSvc.Cancel)
}

func (s *Server) SuspendSubscription(c *gin.Context) {
	s.transitionSubscription(c, s.subscriptionSvc.Suspend)
}

func (s *Server) transitionSubscription(c *gin.Context, fn subscriptionTransition) {
	sub, err := fn(c.Request.Context(), applicationIDFromContext(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": subscriptiondomain.ToResponse(*sub)})
}

func subscriptionResponses(items []subscriptiondomain.Subscription) []subscriptiondomain.Response {
	out := make([]subscriptiondomain.Response, 0, len(items))
	for _, item := range items {
		out = append(out, subscriptiondomain.ToResponse(item))
	}
	return out
}
