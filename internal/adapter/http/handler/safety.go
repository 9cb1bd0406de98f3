package handler

import (
	"net/http"

	"github.com/Temutjin2k/ride-bidding/internal/adapter/http/handler/dto"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-bidding/pkg/validator"
)

// ShareTrip godoc
// @Summary      Share trip link
// @Description  Creates a time limited public link. The token is returned only once.
// @Tags         Safety
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string            true  "ride id"
// @Param        request  body      dto.ShareRequest  true  "share options"
// @Success      201      {object}  map[string]any
// @Failure      403,404,409,422  {object}  map[string]any
// @Router       /rides/{ride_id}/share [post]
func (h *Ride) Share(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "share_trip")

	rideID, ok := h.rideID(ctx, w, r)
	if !ok {
		return
	}

	var req dto.ShareRequest
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &req); err != nil {
			h.l.Warn(ctx, "failed to read request JSON data", "error", err)
			badRequestResponse(w, err.Error())
			return
		}
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	shared, err := h.service.Share(ctx, currentUser(r), rideID, req.SharedWith, req.TTL())
	if err != nil {
		h.serviceError(ctx, w, err, "failed to share trip")
		return
	}

	h.respond(ctx, w, http.StatusCreated, envelope{"share": shared})
}

// TrackTrip godoc
// @Summary      Follow a shared trip
// @Tags         Safety
// @Produce      json
// @Param        ride_id  path      string  true  "ride id"
// @Param        t        query     string  true  "share token"
// @Success      200      {object}  ride.TrackView
// @Failure      404      {object}  map[string]any
// @Router       /track/{ride_id} [get]
func (h *Ride) Track(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "track_trip")

	rideID, ok := h.rideID(ctx, w, r)
	if !ok {
		return
	}

	token := r.URL.Query().Get("t")
	if token == "" {
		badRequestResponse(w, "share token must be provided")
		return
	}

	view, err := h.service.Track(ctx, rideID, token)
	if err != nil {
		h.serviceError(ctx, w, err, "failed to track trip")
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"trip": view})
}

// SOS godoc
// @Summary      Raise SOS
// @Description  Stores the alert and notifies everybody watching the ride
// @Tags         Safety
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string          true   "ride id"
// @Param        request  body      dto.SOSRequest  false  "current location"
// @Success      201      {object}  map[string]any
// @Failure      403,404,409  {object}  map[string]any
// @Router       /rides/{ride_id}/sos [post]
func (h *Ride) SOS(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "sos")

	rideID, ok := h.rideID(ctx, w, r)
	if !ok {
		return
	}

	var req dto.SOSRequest
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &req); err != nil {
			h.l.Warn(ctx, "failed to read request JSON data", "error", err)
			badRequestResponse(w, err.Error())
			return
		}
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	event, err := h.service.SOS(ctx, currentUser(r), rideID, req.Location())
	if err != nil {
		h.serviceError(ctx, w, err, "failed to raise sos")
		return
	}

	h.respond(ctx, w, http.StatusCreated, envelope{"sos": event})
	h.l.Warn(ctx, "sos raised", "ride_id", rideID, "user_id", event.TriggeredBy)
}
