package domain

import (
	"context"
	"time"
)

type CreateRequest struct {
	Name     string `json:"name"`
	APIKey   string `json:"api_key,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}

type Response struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SecretResponse carries the raw API key. It is only returned on creation.
type SecretResponse struct {
	Response
	APIKey string `json:"api_key"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*SecretResponse, error)
	Get(ctx context.Context, id string) (*Application, error)
	List(ctx context.Context) ([]Application, error)
	Deactivate(ctx context.Context, id string) (*Application, error)
	// Authenticate resolves an active application from a raw API key.
	Authenticate(ctx context.Context, rawKey string) (*Application, error)
}

func ToResponse(app Application) Response {
	return Response{
		ID:        app.ID.String(),
		Name:      app.Name,
		IsActive:  app.IsActive,
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
	}
}
