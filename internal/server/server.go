package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	applicationdomain "github.com/smallbiznis/paylane/internal/application/domain"
	"github.com/smallbiznis/paylane/internal/clock"
	"github.com/smallbiznis/paylane/internal/config"
	"github.com/smallbiznis/paylane/internal/observability"
	obslogger "github.com/smallbiznis/paylane/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/paylane/internal/observability/metrics"
	obstracing "github.com/smallbiznis/paylane/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/paylane/internal/payment/domain"
	"github.com/smallbiznis/paylane/internal/ratelimit"
	subscriptiondomain "github.com/smallbiznis/paylane/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(debug bool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           debug,
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg.Debug())
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	clock           clock.Clock
	applicationSvc  applicationdomain.Service
	paymentSvc      paymentdomain.Service
	subscriptionSvc subscriptiondomain.Service
	limiter         *ratelimit.ApplicationLimiter
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Clock           clock.Clock
	ApplicationSvc  applicationdomain.Service
	PaymentSvc      paymentdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	Limiter         *ratelimit.ApplicationLimiter `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics           `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		clock:           p.Clock,
		applicationSvc:  p.ApplicationSvc,
		paymentSvc:      p.PaymentSvc,
		subscriptionSvc: p.SubscriptionSvc,
		limiter:         p.Limiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/v1", s.APIKeyRequired(), s.ApplicationRateLimit())

	// -------- Payments --------
	api.POST("/payments", s.CreatePayment)
	api.GET("/payments", s.ListPayments)
	api.GET("/payments/:id", s.GetPayment)
	api.PUT("/payments/:id/status", s.UpdatePaymentStatus)
	api.POST("/payments/:id/sync", s.SyncPaymentStatus)

	// -------- Subscriptions --------
	api.POST("/subscriptions", s.CreateSubscription)
	api.GET("/subscriptions", s.ListSubscriptions)
	api.GET("/subscriptions/renewals/due", s.ListSubscriptionsDueForRenewal)
	api.GET("/subscriptions/:id", s.GetSubscription)
	api.GET("/subscriptions/:id/payments", s.ListSubscriptionPayments)
	api.PUT("/subscriptions/:id/cancel", s.CancelSubscription)
	api.PUT("/subscriptions/:id/suspend", s.SuspendSubscription)

	// -------- Customers --------
	api.GET("/customers/:customer_id/subscriptions", s.ListCustomerSubscriptions)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.AdminRequired())

	admin.POST("/applications", s.CreateApplication)
	admin.GET("/applications", s.ListApplications)
	admin.GET("/applications/:id", s.GetApplication)
	admin.POST("/applications/:id/deactivate", s.DeactivateApplication)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
