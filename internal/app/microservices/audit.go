package microservices

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Temutjin2k/ride-bidding/config"
	"github.com/Temutjin2k/ride-bidding/internal/adapter/http/handler"
	"github.com/Temutjin2k/ride-bidding/internal/adapter/http/server"
	repo "github.com/Temutjin2k/ride-bidding/internal/adapter/postgres"
	rabbitadapter "github.com/Temutjin2k/ride-bidding/internal/adapter/rabbit"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/internal/service/audit"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	"github.com/Temutjin2k/ride-bidding/pkg/postgres"
	"github.com/Temutjin2k/ride-bidding/pkg/rabbit"
)

// AuditService stores every ride status event into ride_events.
type AuditService struct {
	postgresDB *postgres.PostgreDB
	rabbit     *rabbit.RabbitMQ
	consumer   *rabbitadapter.AuditConsumer
	audit      *audit.Service
	httpServer *server.API

	cfg config.Config
	log logger.Logger
}

func NewAudit(ctx context.Context, cfg config.Config, log logger.Logger) (_ *AuditService, err error) {
	svc := &AuditService{cfg: cfg, log: log}
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

	svc.audit = audit.New(repo.NewRideEventRepo(svc.postgresDB.Pool), log)
	svc.consumer = rabbitadapter.NewAuditConsumer(svc.rabbit, log)

	pool := svc.postgresDB.Pool
	checks := map[string]handler.Check{
		"postgres": func(ctx context.Context) error { return pool.Ping(ctx) },
		"rabbitmq": func(context.Context) error {
			if svc.rabbit.IsConnectionClosed() {
				return errors.New("connection closed")
			}
			return nil
		},
	}

	svc.httpServer, err = server.New(cfg, server.Handlers{
		Health: handler.NewHealth(string(types.AuditService), checks, log),
	}, nil, log)
	if err != nil {
		log.Error(ctx, "Failed to setup http server", err)
		return nil, err
	}

	return svc, nil
}

func (s *AuditService) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer func() {
		s.close(context.WithoutCancel(ctx))
		s.log.Info(context.WithoutCancel(ctx), "audit service closed")
	}()

	errCh := make(chan error, 1)
	s.httpServer.Run(ctx, errCh)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.consumer.Consume(gctx, s.audit.Record)
	})
	g.Go(func() error {
		select {
		case err := <-errCh:
			return err
		case <-gctx.Done():
			return nil
		}
	})

	s.log.Info(ctx, "audit service started")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	s.log.Info(context.WithoutCancel(ctx), "shuting down application")
	return nil
}

func (s *AuditService) close(ctx context.Context) {
	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	if s.rabbit != nil {
		if err := s.rabbit.Close(ctx); err != nil {
			s.log.Warn(ctx, "Failed to close rabbitmq connection", "error", err.Error())
		}
	}

	if s.postgresDB != nil {
		s.postgresDB.Close()
	}
}
