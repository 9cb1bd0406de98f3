package microservices

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Temutjin2k/ride-bidding/config"
	"github.com/Temutjin2k/ride-bidding/internal/adapter/http/handler"
	"github.com/Temutjin2k/ride-bidding/internal/adapter/http/server"
	wshandler "github.com/Temutjin2k/ride-bidding/internal/adapter/http/ws"
	kafkaadapter "github.com/Temutjin2k/ride-bidding/internal/adapter/kafka"
	repo "github.com/Temutjin2k/ride-bidding/internal/adapter/postgres"
	rabbitadapter "github.com/Temutjin2k/ride-bidding/internal/adapter/rabbit"
	redisadapter "github.com/Temutjin2k/ride-bidding/internal/adapter/redis"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/internal/service/auth"
	"github.com/Temutjin2k/ride-bidding/internal/service/presence"
	"github.com/Temutjin2k/ride-bidding/internal/service/profile"
	"github.com/Temutjin2k/ride-bidding/internal/service/ride"
	"github.com/Temutjin2k/ride-bidding/internal/service/search"
	"github.com/Temutjin2k/ride-bidding/internal/service/support"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	"github.com/Temutjin2k/ride-bidding/pkg/postgres"
	"github.com/Temutjin2k/ride-bidding/pkg/rabbit"
	redisclient "github.com/Temutjin2k/ride-bidding/pkg/redis"
	"github.com/Temutjin2k/ride-bidding/pkg/trm"
	ws "github.com/Temutjin2k/ride-bidding/pkg/wsHub"
	goredis "github.com/redis/go-redis/v9"
)

// RideService is the matching core: rest api, realtime gateway, presence and rider search.
type RideService struct {
	postgresDB  *postgres.PostgreDB
	rabbit      *rabbit.RabbitMQ
	redis       *goredis.Client
	locations   *kafkaadapter.LocationStream
	hub         *ws.Hub
	coordinator *search.Coordinator
	httpServer  *server.API

	cfg config.Config
	log logger.Logger
}

func NewRide(ctx context.Context, cfg config.Config, log logger.Logger) (_ *RideService, err error) {
	svc := &RideService{cfg: cfg, log: log}
	// release what was opened if a later step fails
	defer func() {
		if err != nil {
			svc.close(ctx)
		}
	}()

	svc.postgresDB, err = postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "Failed to setup database", err)
		return nil, err
	}

	svc.rabbit, err = rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		log.Error(ctx, "Failed to connect to rabbitmq", err)
		return nil, err
	}
	broker := rabbitadapter.NewRideBroker(svc.rabbit, log)
	if err = broker.Setup(); err != nil {
		log.Error(ctx, "Failed to declare ride exchange", err)
		return nil, err
	}

	// profile cache is optional, the service works on postgres alone
	var cache profile.Cache
	svc.redis, err = redisclient.New(ctx, cfg.Redis)
	if err != nil {
		log.Warn(ctx, "redis is unavailable, profile cache disabled", "error", err.Error())
		svc.redis, err = nil, nil
	} else {
		cache = redisadapter.NewProfileCache(svc.redis, cfg.Redis.ProfileTTL)
	}

	var stream presence.LocationStream
	if cfg.Kafka.Enabled {
		svc.locations = kafkaadapter.NewLocationStream(cfg.Kafka.Brokers, cfg.Kafka.LocationTopic, log)
		stream = svc.locations
	}

	pool := svc.postgresDB.Pool
	var (
		rideRepo    = repo.NewRideRepo(pool)
		profileRepo = repo.NewProfileRepo(pool)
		safetyRepo  = repo.NewSafetyRepo(pool)
		supportRepo = repo.NewSupportRepo(pool)
		txManager   = trm.New(pool)
	)

	profiles := profile.New(profileRepo, cache, log)
	svc.hub = ws.NewHub(log, string(types.RideService))

	registry := presence.NewRegistry(log)
	presenceSvc := presence.NewService(registry, profiles, svc.hub, stream, cfg.Matching.RadiusMeters, log)

	rideSvc := ride.New(rideRepo, profileRepo, safetyRepo, profiles, broker, svc.hub, presenceSvc, txManager, ride.Config{
		ShareBaseURL: cfg.Share.BaseURL,
		ShareTTL:     cfg.Share.TTL,
	}, log)

	svc.coordinator = search.New(search.Config{
		Interval:    cfg.Matching.SearchInterval,
		MaxAttempts: cfg.Matching.MaxAttempts,
	}, presenceSvc, svc.hub, rideSvc, log)
	rideSvc.UseSearch(svc.coordinator)

	supportSvc := support.New(supportRepo, rideRepo, log)

	checks := map[string]handler.Check{
		"postgres": func(ctx context.Context) error { return pool.Ping(ctx) },
		"rabbitmq": func(context.Context) error {
			if svc.rabbit.IsConnectionClosed() {
				return errors.New("connection closed")
			}
			return nil
		},
	}
	if svc.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return svc.redis.Ping(ctx).Err() }
	}

	svc.httpServer, err = server.New(cfg, server.Handlers{
		Health:  handler.NewHealth(string(types.RideService), checks, log),
		Ride:    handler.NewRide(rideSvc, log),
		Support: handler.NewSupport(supportSvc, log),
		Gateway: wshandler.NewGateway(svc.hub, presenceSvc, rideSvc, cfg.WS.AllowedOrigins, log),
	}, auth.NewTokenService(cfg.Auth.JWTSecret), log)
	if err != nil {
		log.Error(ctx, "Failed to setup http server", err)
		return nil, err
	}

	return svc, nil
}

func (s *RideService) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	s.httpServer.Run(ctx, errCh)
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "ride service closed")
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "ride service started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	}
}

// close stops intake first, then background loops, then connections.
func (s *RideService) close(ctx context.Context) {
	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	if s.coordinator != nil {
		s.coordinator.Shutdown()
	}

	if s.hub != nil {
		s.hub.Close()
	}

	if s.locations != nil {
		if err := s.locations.Close(); err != nil {
			s.log.Warn(ctx, "Failed to flush location stream", "error", err.Error())
		}
	}

	if s.rabbit != nil {
		if err := s.rabbit.Close(ctx); err != nil {
			s.log.Warn(ctx, "Failed to close rabbitmq connection", "error", err.Error())
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Warn(ctx, "Failed to close redis client", "error", err.Error())
		}
	}

	if s.postgresDB != nil {
		s.postgresDB.Close()
	}
}
