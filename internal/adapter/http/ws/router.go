package wshandler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Temutjin2k/ride-bidding/internal/adapter/http/handler"
	"github.com/Temutjin2k/ride-bidding/internal/adapter/http/ws/dto"
	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-bidding/pkg/validator"
	ws "github.com/Temutjin2k/ride-bidding/pkg/wsHub"
)

// Session is a connected socket as seen by event handlers
type Session interface {
	ws.Client
	Send(event string, data any) error
}

type eventFunc func(ctx context.Context, s Session, user *models.User, data json.RawMessage) error

type route struct {
	// empty role means any authenticated user
	role types.UserRole
	fn   eventFunc
}

// Router dispatches inbound events to presence and ride services.
// Handler errors are reported to the sender as "error" events, the socket stays open.
type Router struct {
	hub      Hub
	presence PresenceService
	rides    RideService
	routes   map[string]route
	l        logger.Logger
}

func NewRouter(hub Hub, presence PresenceService, rides RideService, l logger.Logger) *Router {
	r := &Router{
		hub:      hub,
		presence: presence,
		rides:    rides,
		l:        l,
	}

	r.routes = map[string]route{
		// driver
		types.WSGoOnDuty:       {types.RoleRider, r.goOnDuty},
		types.WSGoOffDuty:      {types.RoleRider, r.goOffDuty},
		types.WSUpdateLocation: {types.RoleRider, r.updateLocation},
		types.WSMakeOffer:      {types.RoleRider, r.makeOffer},

		// passenger
		types.WSSubscribeToZone: {types.RoleCustomer, r.subscribeToZone},
		types.WSSearchRider:     {types.RoleCustomer, r.searchRider},
		types.WSCancelRide:      {types.RoleCustomer, r.cancelRide},

		// both, the service checks who may counter
		types.WSCounterOffer:           {"", r.counterOffer},
		types.WSSubscribeRide:          {"", r.subscribeRide},
		types.WSSubscribeRiderLocation: {"", r.subscribeRiderLocation},
	}
	return r
}

// errInvalidPayload carries validator errors back to the client
type errInvalidPayload struct {
	fields map[string]string
}

func (e *errInvalidPayload) Error() string { return "invalid payload" }

func (r *Router) Dispatch(ctx context.Context, s Session, user *models.User, msg ws.Message) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{
		Action: "ws_" + msg.Event,
		UserID: user.ID.String(),
	})

	rt, ok := r.routes[msg.Event]
	if !ok {
		sendError(s, msg.Event, "unknown event", nil)
		return
	}
	if rt.role != "" && user.Role != rt.role {
		sendError(s, msg.Event, types.ErrForbidden.Error(), nil)
		return
	}

	err := rt.fn(ctx, s, user, msg.Data)
	if err == nil {
		return
	}

	var invalid *errInvalidPayload
	switch {
	case errors.As(err, &invalid):
		r.l.Debug(ctx, "invalid event payload", "fields", invalid.fields)
		sendError(s, msg.Event, invalid.Error(), invalid.fields)
	case handler.GetCode(err) >= 500:
		r.l.Error(wrap.ErrorCtx(ctx, err), "failed to handle event", err)
		sendError(s, msg.Event, handler.ErrorMessage(err), nil)
	default:
		r.l.Debug(wrap.ErrorCtx(ctx, err), "event rejected", "error", err)
		sendError(s, msg.Event, err.Error(), nil)
	}
}

type payload interface {
	Validate(v *validator.Validator)
}

// decode unmarshals event data into dst and validates it.
func decode(data json.RawMessage, dst payload) error {
	if len(data) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &errInvalidPayload{fields: map[string]string{"data": err.Error()}}
	}

	v := validator.New()
	dst.Validate(v)
	if !v.Valid() {
		return &errInvalidPayload{fields: v.Errors}
	}
	return nil
}

func sendError(s Session, event, message string, fields map[string]string) {
	_ = s.Send(types.WSError, dto.Error{
		Message: message,
		Event:   event,
		Fields:  fields,
	})
}
