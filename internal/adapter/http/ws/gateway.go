package wshandler

import (
	"context"
	"net/http"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/internal/service/ride"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	ws "github.com/Temutjin2k/ride-bidding/pkg/wsHub"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

/*=========================Hub====================================*/

type Hub interface {
	Add(c *ws.Conn) error
	Remove(connID string) error
	Join(connID, room string) error
	Leave(connID, room string)
}

/*=======================Presence=================================*/

type PresenceService interface {
	GoOnDuty(ctx context.Context, driverID uuid.UUID, connID string, coords models.Coordinates) error
	GoOffDuty(ctx context.Context, driverID uuid.UUID, connID string)
	Disconnect(ctx context.Context, driverID uuid.UUID, connID string)
	UpdateLocation(ctx context.Context, driverID uuid.UUID, coords models.Coordinates) error
	Location(driverID uuid.UUID) (models.Coordinates, error)
	SubscribeToZone(ctx context.Context, client ws.Client, coords models.Coordinates) error
}

/*=========================Rides==================================*/

type RideService interface {
	Get(ctx context.Context, user *models.User, rideID uuid.UUID) (*models.Ride, error)
	StartSearch(ctx context.Context, user *models.User, rideID uuid.UUID) error
	Cancel(ctx context.Context, user *models.User, rideID uuid.UUID) error
	SubmitOffer(ctx context.Context, driver *models.User, rideID uuid.UUID, in ride.OfferInput) (*models.Offer, error)
	CounterOffer(ctx context.Context, user *models.User, rideID, offerID uuid.UUID, in ride.CounterInput) (*models.Offer, error)
}

// Gateway upgrades authenticated requests to websocket and routes client events.
type Gateway struct {
	hub      Hub
	router   *Router
	upgrader websocket.Upgrader

	pingPeriod time.Duration
	l          logger.Logger
}

func NewGateway(hub Hub, presence PresenceService, rides RideService, allowedOrigins []string, l logger.Logger) *Gateway {
	return &Gateway{
		hub:    hub,
		router: NewRouter(hub, presence, rides, l),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		pingPeriod: ws.PingPeriod,
		l:          l,
	}
}

// ServeWS godoc
// @Summary      Realtime gateway
// @Description  Websocket endpoint. Token is taken from Authorization header or ?token= query.
// @Tags         Realtime
// @Param        token  query  string  false  "access token"
// @Success      101
// @Failure      401  {object}  map[string]any
// @Router       /ws [get]
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	user := models.UserFromContext(r.Context())
	// request context ends with the handler, the connection lives on its own
	ctx := context.WithoutCancel(r.Context())
	ctx = wrap.WithUserID(wrap.WithAction(ctx, "ws_connect"), user.ID.String())

	socket, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written http error
		g.l.Warn(ctx, "failed to upgrade connection", "error", err)
		return
	}

	conn := ws.NewConn(ctx, user.ID, user.Role.String(), socket)
	if err := g.hub.Add(conn); err != nil {
		g.l.Error(wrap.ErrorCtx(ctx, err), "failed to register connection", err)
		_ = conn.Close()
		return
	}

	go g.serve(ctx, conn, user)
}

func (g *Gateway) serve(ctx context.Context, conn *ws.Conn, user *models.User) {
	defer g.disconnect(ctx, conn, user)

	if err := g.hub.Join(conn.ID(), types.UserRoom(user.ID)); err != nil {
		g.l.Warn(ctx, "failed to join user room", "error", err)
	}
	g.l.Info(ctx, "websocket connected", "conn_id", conn.ID(), "role", user.Role)

	go conn.KeepAlive(g.pingPeriod)

	err := conn.Listen(
		func(ctx context.Context, msg ws.Message) {
			g.router.Dispatch(ctx, conn, user, msg)
		},
		func(err error) {
			sendError(conn, "", "malformed message: "+err.Error(), nil)
		},
	)
	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		g.l.Debug(ctx, "websocket listen finished", "error", err)
	}
}

// disconnect cleans presence first so drivers are not offered rides on a dead socket.
func (g *Gateway) disconnect(ctx context.Context, conn *ws.Conn, user *models.User) {
	ctx = wrap.WithAction(ctx, "ws_disconnect")

	if user.Role == types.RoleRider {
		g.router.presence.Disconnect(ctx, user.ID, conn.ID())
	}
	if err := g.hub.Remove(conn.ID()); err != nil {
		g.l.Debug(ctx, "connection already removed", "error", err)
	}
	g.l.Info(ctx, "websocket disconnected", "conn_id", conn.ID())
}

// checkOrigin allows every origin when the list is empty or contains "*".
func checkOrigin(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
