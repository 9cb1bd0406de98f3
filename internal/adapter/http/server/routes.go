package server

import (
	"context"

	_ "github.com/Temutjin2k/ride-bidding/docs" // swagger spec "ride"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// setupRoutes - setups http routes
func (a *API) setupRoutes() {
	// System Health
	a.mux.HandleFunc("GET /health", a.routes.Health.HealthCheck)

	a.setupSwaggerRoutes()
	a.setupMetricsRoute()

	if a.mode == types.RideService {
		a.setupRideRoutes()
	}
}

// setupRideRoutes setups routes for ride service
func (a *API) setupRideRoutes() {
	var (
		mux      = a.mux
		ride     = a.routes.Ride
		sup      = a.routes.Support
		m        = a.m
		customer = types.RoleCustomer
		rider    = types.RoleRider
	)

	// rides
	mux.Handle("POST /rides", m.RequireRoles(ride.Create, customer))
	mux.Handle("GET /rides", m.RequireRoles(ride.List))
	mux.Handle("GET /rides/{ride_id}", m.RequireRoles(ride.Get))
	mux.Handle("POST /rides/{ride_id}/search", m.RequireRoles(ride.StartSearch, customer))

	// lifecycle
	mux.Handle("PATCH /rides/{ride_id}/accept", m.RequireRoles(ride.AcceptRide, rider))
	mux.Handle("PATCH /rides/{ride_id}/status", m.RequireRoles(ride.UpdateStatus, rider))
	mux.Handle("POST /rides/{ride_id}/verify-otp", m.RequireRoles(ride.VerifyOTP, rider))
	mux.Handle("POST /rides/{ride_id}/cancel", m.RequireRoles(ride.Cancel, customer))
	mux.Handle("POST /rides/{ride_id}/rate", m.RequireRoles(ride.Rate))

	// negotiation
	mux.Handle("GET /rides/{ride_id}/offers", m.RequireRoles(ride.ListOffers, customer))
	mux.Handle("POST /rides/{ride_id}/offers", m.RequireRoles(ride.SubmitOffer, rider))
	mux.Handle("POST /rides/{ride_id}/offers/{offer_id}/counter", m.RequireRoles(ride.CounterOffer))
	mux.Handle("POST /rides/{ride_id}/offers/{offer_id}/accept", m.RequireRoles(ride.AcceptOffer, customer))
	mux.Handle("POST /rides/{ride_id}/offers/{offer_id}/reject", m.RequireRoles(ride.RejectOffer, customer))

	// safety
	mux.Handle("POST /rides/{ride_id}/share", m.RequireRoles(ride.Share, customer))
	mux.Handle("POST /rides/{ride_id}/sos", m.RequireRoles(ride.SOS))
	mux.HandleFunc("GET /track/{ride_id}", ride.Track) // public, token in query
	mux.Handle("GET /safety/contacts", m.RequireRoles(sup.ListContacts))
	mux.Handle("POST /safety/contacts", m.RequireRoles(sup.AddContact))
	mux.Handle("DELETE /safety/contacts/{contact_id}", m.RequireRoles(sup.RemoveContact))

	// support
	mux.Handle("POST /support/tickets", m.RequireRoles(sup.CreateTicket))
	mux.Handle("GET /support/tickets", m.RequireRoles(sup.ListTickets))

	// realtime
	mux.Handle("GET /ws", m.RequireRoles(a.routes.Gateway.ServeWS))
}

// setupSwaggerRoutes configures Swagger UI endpoints based on service mode
func (a *API) setupSwaggerRoutes() {
	var instanceName string

	switch a.mode {
	case types.RideService:
		instanceName = "ride"
	default:
		a.log.Debug(wrap.WithAction(context.Background(), "setup swagger routes"), "no swagger docs for mode", "mode", a.mode)
		return
	}

	// Swagger UI endpoint
	swaggerURL := httpSwagger.InstanceName(instanceName)
	a.mux.HandleFunc("GET /swagger/", httpSwagger.Handler(swaggerURL))
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func (a *API) setupMetricsRoute() {
	a.mux.Handle("GET /metrics", promhttp.Handler())
}
