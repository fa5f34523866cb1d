package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	applicationdomain "github.com/smallbiznis/paylane/internal/application/domain"
)

func (s *Server) CreateApplication(c *gin.Context) {
	var req applicationdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.applicationSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListApplications(c *gin.Context) {
	items, err := s.applicationSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]applicationdomain.Response, 0, len(items))
	for _, item := range items {
		out = append(out, applicationdomain.ToResponse(item))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (s *Server) GetApplication(c *gin.Context) {
	app, err := s.applicationSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": applicationdomain.ToResponse(*app)})
}

func (s *Server) DeactivateApplication(c *gin.Context) {
	app, err := s.applicationSvc.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": applicationdomain.ToResponse(*app)})
}
