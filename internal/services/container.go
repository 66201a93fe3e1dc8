package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"vigilanteye-worker-go/internal/config"
	"vigilanteye-worker-go/internal/models"
	"vigilanteye-worker-go/internal/services/detectionsource"
	"vigilanteye-worker-go/internal/services/gateway"
	"vigilanteye-worker-go/internal/services/gateway/cooldown"
	"vigilanteye-worker-go/internal/services/messaging"
	"vigilanteye-worker-go/internal/services/twilio"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config  *config.Config
	Gateway *gateway.Service

	// Messaging and Source are nil when NATS is unreachable; the
	// gateway then serves HTTP-only.
	Messaging *messaging.Service
	Source    *detectionsource.Service

	memStore   *cooldown.Memory
	redisStore *cooldown.Redis
}

// NewServiceContainer creates a new service container
func NewServiceContainer(cfg *config.Config) (*ServiceContainer, error) {
	sc := &ServiceContainer{Config: cfg}

	// Cooldown store: shared Redis when configured, process-local otherwise
	var store models.CooldownStore
	if cfg.RedisAddr != "" {
		redisStore, err := cooldown.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.AlertCooldown)
		if err != nil {
			return nil, err
		}
		sc.redisStore = redisStore
		store = redisStore
	} else {
		sc.memStore = cooldown.NewMemory(cfg.AlertCooldown, cfg.CooldownSweep)
		store = sc.memStore
	}

	sender := twilio.NewClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioAPIBase, cfg.ProviderTimeout)

	gw, err := gateway.NewService(cfg, sender, store)
	if err != nil {
		return nil, err
	}
	sc.Gateway = gw

	// NATS is a soft dependency: without it the HTTP entry point still works
	msg, err := messaging.NewService(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("NATS unavailable, running in HTTP-only mode")
		return sc, nil
	}
	sc.Messaging = msg

	source, err := detectionsource.NewService(cfg, gw, msg)
	if err != nil {
		return nil, err
	}
	if err := source.Start(); err != nil {
		return nil, err
	}
	sc.Source = source

	return sc, nil
}

// NatsConnected reports whether the detection event channel is live.
func (sc *ServiceContainer) NatsConnected() bool {
	return sc.Messaging != nil && sc.Messaging.IsConnected()
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	if sc.Source != nil {
		if err := sc.Source.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Detection source shutdown error")
		}
	}

	if sc.Messaging != nil {
		if err := sc.Messaging.Shutdown(ctx); err != nil {
			return err
		}
	}

	if sc.memStore != nil {
		sc.memStore.Close()
	}
	if sc.redisStore != nil {
		if err := sc.redisStore.Close(); err != nil {
			log.Warn().Err(err).Msg("Redis cooldown store close error")
		}
	}

	return nil
}
