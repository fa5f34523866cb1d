package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paylane/internal/application/domain"
	"github.com/smallbiznis/paylane/internal/clock"
	"github.com/smallbiznis/paylane/internal/entity"
	"github.com/smallbiznis/paylane/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	apiKeyPrefix      = "pk_live_"
	apiKeySecretBytes = 32
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("application.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.SecretResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	id := s.genID.Generate()
	plain := strings.TrimSpace(req.APIKey)
	if plain == "" {
		generated, err := generateAPIKey(id)
		if err != nil {
			return nil, err
		}
		plain = generated
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	app := &domain.Application{
		Record:     entity.NewRecord(id, s.clock.Now()),
		Name:       name,
		APIKeyHash: domain.HashAPIKey(plain),
		IsActive:   isActive,
	}
	if err := s.repo.Save(ctx, s.db, app); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateKey
		}
		return nil, err
	}

	s.log.Info("application created", zap.String("application_id", app.ID.String()), zap.Bool("is_active", app.IsActive))
	return &domain.SecretResponse{Response: domain.ToResponse(*app), APIKey: plain}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Application, error) {
	appID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrNotFound
	}
	app, err := s.repo.FindByID(ctx, s.db, appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, domain.ErrNotFound
	}
	return app, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Application, error) {
	return s.repo.FindAll(ctx, s.db)
}

func (s *Service) Deactivate(ctx context.Context, id string) (*domain.Application, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !app.IsActive {
		return app, nil
	}

	updated := app.Deactivate(s.clock.Now())
	if err := s.repo.Update(ctx, s.db, &updated); err != nil {
		return nil, err
	}
	s.log.Info("application deactivated", zap.String("application_id", updated.ID.String()))
	return &updated, nil
}

func (s *Service) Authenticate(ctx context.Context, rawKey string) (*domain.Application, error) {
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		return nil, domain.ErrInvalidAPIKey
	}
	app, err := s.repo.FindByAPIKeyHash(ctx, s.db, domain.HashAPIKey(rawKey))
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, domain.ErrInvalidAPIKey
	}
	if !app.IsActive {
		return nil, domain.ErrInactive
	}
	return app, nil
}

func generateAPIKey(id snowflake.ID) (string, error) {
	secret := make([]byte, apiKeySecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s_%s", apiKeyPrefix, strconv.FormatInt(int64(id), 36), hex.EncodeToString(secret)), nil
}
