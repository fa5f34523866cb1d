package gateway

import (
	"github.com/smallbiznis/paylane/internal/clock"
	"github.com/smallbiznis/paylane/internal/config"
	"github.com/smallbiznis/paylane/internal/gateway/adapters"
	"github.com/smallbiznis/paylane/internal/gateway/adapters/mercadopago"
	"github.com/smallbiznis/paylane/internal/gateway/adapters/sandbox"
	"github.com/smallbiznis/paylane/internal/gateway/adapters/stripe"
	"github.com/smallbiznis/paylane/internal/gateway/domain"
	"github.com/smallbiznis/paylane/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("gateway",
	fx.Provide(NewRegistry),
	fx.Provide(New),
)

func NewRegistry() *adapters.Registry {
	return adapters.NewRegistry(
		sandbox.NewFactory(),
		mercadopago.NewFactory(),
		stripe.NewFactory(),
	)
}

type Params struct {
	fx.In

	Config   config.Config
	Registry *adapters.Registry
	Clock    clock.Clock
	Log      *zap.Logger
	Metrics  *metrics.Metrics `optional:"true"`
}

// New builds the gateway selected by GATEWAY_PROVIDER.
func New(p Params) (domain.Gateway, error) {
	gw, err := p.Registry.NewGateway(p.Config.Gateway.Provider, domain.Config{
		MercadoPagoToken:   p.Config.Gateway.MercadoPagoToken,
		MercadoPagoBaseURL: p.Config.Gateway.MercadoPagoBaseURL,
		StripeSecretKey:    p.Config.Gateway.StripeSecretKey,
		Timeout:            p.Config.Gateway.RequestTimeout,
		Now:                p.Clock.Now,
	})
	if err != nil {
		return nil, err
	}
	log := p.Log.Named("gateway")
	log.Info("payment gateway selected", zap.String("provider", gw.Provider()))
	return newInstrumented(gw, log, p.Metrics), nil
}
