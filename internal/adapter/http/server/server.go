package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Temutjin2k/ride-bidding/config"
	"github.com/Temutjin2k/ride-bidding/internal/adapter/http/handler"
	"github.com/Temutjin2k/ride-bidding/internal/adapter/http/middleware"
	wshandler "github.com/Temutjin2k/ride-bidding/internal/adapter/http/ws"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
)

const serverIPAddress = "%s:%s"

type API struct {
	mode   types.ServiceMode
	mux    *http.ServeMux
	server *http.Server
	routes Handlers
	m      *middleware.Middleware

	addr string
	log  logger.Logger
}

// Handlers of the current mode, only Health is set in audit mode
type Handlers struct {
	Health  *handler.Health
	Ride    *handler.Ride
	Support *handler.Support
	Gateway *wshandler.Gateway
}

func New(cfg config.Config, routes Handlers, auth middleware.TokenValidator, log logger.Logger) (*API, error) {
	if routes.Health == nil {
		return nil, errors.New("health handler is required")
	}

	switch cfg.Mode {
	case types.RideService:
		if routes.Ride == nil || routes.Support == nil || routes.Gateway == nil || auth == nil {
			return nil, errors.New("ride service requires ride and support handlers, gateway and token validator")
		}
	case types.AuditService:
	default:
		return nil, fmt.Errorf("invalid mode: %s", cfg.Mode)
	}

	api := &API{
		mode:   cfg.Mode,
		mux:    http.NewServeMux(),
		routes: routes,
		m:      middleware.NewMiddleware(auth, log),
		addr:   fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Port()),
		log:    log,
	}

	api.setupRoutes()

	api.server = &http.Server{
		Addr:              api.addr,
		Handler:           api.withMiddleware(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
	}

	return api, nil
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// Handler is the full middleware chain, used by tests
func (a *API) Handler() http.Handler {
	return a.server.Handler
}

// withMiddleware applies middlewares to the mux
func (a *API) withMiddleware() http.Handler {
	var h http.Handler = a.mux
	if a.mode == types.RideService {
		h = a.m.Auth(h)
	}
	h = a.m.Logging(h)
	h = a.m.Metrics(string(a.mode), a.pattern)(h)
	return a.m.Recover(a.m.RequestID(h))
}

func (a *API) pattern(r *http.Request) string {
	_, p := a.mux.Handler(r)
	return p
}
