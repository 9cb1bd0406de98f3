package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/internal/service/ride"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-bidding/pkg/validator"
	"github.com/google/uuid"
)

type Ride struct {
	service RideService
	l       logger.Logger
}

type RideService interface {
	Create(ctx context.Context, user *models.User, in ride.CreateInput) (*models.Ride, error)
	Get(ctx context.Context, user *models.User, rideID uuid.UUID) (*models.Ride, error)
	ListMine(ctx context.Context, user *models.User, filters models.RideFilters) ([]*models.Ride, models.Metadata, error)
	StartSearch(ctx context.Context, user *models.User, rideID uuid.UUID) error

	AcceptRide(ctx context.Context, driver *models.User, rideID uuid.UUID) (*models.Ride, error)
	UpdateStatus(ctx context.Context, driver *models.User, rideID uuid.UUID, status types.RideStatus) (*models.Ride, error)
	VerifyOTP(ctx context.Context, driver *models.User, rideID uuid.UUID, otp string) (*models.Ride, error)
	Cancel(ctx context.Context, user *models.User, rideID uuid.UUID) error
	Rate(ctx context.Context, user *models.User, rideID uuid.UUID, in ride.RateInput) (*models.Ride, error)

	ListOffers(ctx context.Context, user *models.User, rideID uuid.UUID) ([]models.Offer, error)
	SubmitOffer(ctx context.Context, driver *models.User, rideID uuid.UUID, in ride.OfferInput) (*models.Offer, error)
	CounterOffer(ctx context.Context, user *models.User, rideID, offerID uuid.UUID, in ride.CounterInput) (*models.Offer, error)
	AcceptOffer(ctx context.Context, user *models.User, rideID, offerID uuid.UUID) (*models.Ride, error)
	RejectOffer(ctx context.Context, user *models.User, rideID, offerID uuid.UUID) (*models.Offer, error)

	Share(ctx context.Context, user *models.User, rideID uuid.UUID, sharedWith []string, ttl time.Duration) (*ride.SharedTrip, error)
	Track(ctx context.Context, rideID uuid.UUID, token string) (*ride.TrackView, error)
	SOS(ctx context.Context, user *models.User, rideID uuid.UUID, location *models.Coordinates) (*models.SOSEvent, error)
}

func NewRide(service RideService, l logger.Logger) *Ride {
	return &Ride{
		service: service,
		l:       l,
	}
}

// CreateRide godoc
// @Summary      Create ride
// @Description  Customer creates a ride request, the fare is recommended by distance
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      dto.CreateRideRequest  true  "ride request"
// @Success      201      {object}  map[string]any
// @Failure      401,403,422  {object}  map[string]any
// @Router       /rides [post]
func (h *Ride) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_ride")

	var req dto.CreateRideRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Warn(ctx, "failed to read request JSON data", "error", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	created, err := h.service.Create(ctx, currentUser(r), req.ToInput())
	if err != nil {
		h.serviceError(ctx, w, err, "failed to create ride")
		return
	}

	h.respond(ctx, w, http.StatusCreated, envelope{"ride": created})
	h.l.Info(ctx, "ride created", "ride_id", created.ID)
}

// GetRide godoc
// @Summary      Get ride
// @Tags         Rides
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string  true  "ride id"
// @Success      200      {object}  map[string]any
// @Failure      403,404  {object}  map[string]any
// @Router       /rides/{ride_id} [get]
func (h *Ride) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_ride")

	rideID, ok := h.rideID(ctx, w, r)
	if !ok {
		return
	}

	found, err := h.service.Get(ctx, currentUser(r), rideID)
	if err != nil {
		h.serviceError(ctx, w, err, "failed to get ride")
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"ride": found})
}

// ListRides godoc
// @Summary      List my rides
// @Description  Rides where the caller is the customer or the assigned driver, newest first
// @Tags         Rides
// @Produce      json
// @Security     BearerAuth
// @Param        status     query     string  false  "ride status"
// @Param        page       query     int     false  "page"
// @Param        page_size  query     int     false  "page size"
// @Success      200        {object}  dto.ListRidesResponse
// @Router       /rides [get]
func (h *Ride) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_rides")

	v := validator.New()
	page, err := readInt(r, "page", 1)
	v.Check(err == nil, "page", "must be an integer value")
	pageSize, err := readInt(r, "page_size", 20)
	v.Check(err == nil, "page_size", "must be an integer value")

	filters := models.RideFilters{
		Status:   types.RideStatus(r.URL.Query().Get("status")),
		Page:     page,
		PageSize: pageSize,
	}
	if filters.Validate(v); !v.Valid() {
		h.l.Warn(ctx, "invalid query parameters")
		failedValidationResponse(w, v.Errors)
		return
	}

	rides, metadata, err := h.service.ListMine(ctx, currentUser(r), filters)
	if err != nil {
		h.serviceError(ctx, w, err, "failed to list rides")
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"rides": rides, "metadata": metadata})
}

// StartSearch godoc
// @Summary      Start rider search
// @Description  Starts periodic broadcast of the ride to nearby on-duty drivers
// @Tags         Rides
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string  true  "ride id"
// @Success      202      {object}  map[string]any
// @Failure      403,404,409  {object}  map[string]any
// @Router       /rides/{ride_id}/search [post]
func (h *Ride) StartSearch(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "start_search")

	rideID, ok := h.rideID(ctx, w, r)
	if !ok {
		return
	}

	if err := h.service.StartSearch(ctx, currentUser(r), rideID); err != nil {
		h.serviceError(ctx, w, err, "failed to start search")
		return
	}

	h.respond(ctx, w, http.StatusAccepted, envelope{"ride_id": rideID, "message": "searching for riders"})
}

// AcceptRide godoc
// @Summary      Accept ride at the customer's fare
// @Tags         Lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string  true  "ride id"
// @Success      200      {object}  map[string]any
// @Failure      403,404,409  {object}  map[string]any
// @Router       /rides/{ride_id}/accept [patch]
func (h *Ride) AcceptRide(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "accept_ride")

	rideID, ok := h.rideID(ctx, w, r)
	if !ok {
		return
	}

	accepted, err := h.service.AcceptRide(ctx, currentUser(r), rideID)
	if err != nil {
		h.serviceError(ctx, w, err, "failed to accept ride")
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"ride": accepted})
	h.l.Info(ctx, "ride accepted by driver", "ride_id", rideID)
}

// UpdateStatus godoc
// @Summary      Update ride status
// @Description  Assigned driver moves the ride to ARRIVED or COMPLETED. START requires otp verification.
// @Tags         Lifecycle
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string                   true  "ride id"
// @Param        request  body      dto.UpdateStatusRequest  true  "new status"
// @Success      200      {object}  map[string]any
// @Failure      403,404,409,422  {object}  map[string]any
// @Router       /rides/{ride_id}/status [patch]
func (h *Ride) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_ride_status")

	rideID, ok := h.rideID(ctx, w, r)
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Warn(ctx, "failed to read request JSON data", "error", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	updated, err := h.service.UpdateStatus(ctx, currentUser(r), rideID, types.RideStatus(req.Status))
	if err != nil {
		h.serviceError(ctx, w, err, "failed to update ride status")
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"ride": updated})
	h.l.Info(ctx, "ride status updated", "ride_id", rideID, "status", updated.Status)
}

// VerifyOTP godoc
// @Summary      Start trip with otp
// @Tags         Lifecycle
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string                true  "ride id"
// @Param        request  body      dto.VerifyOTPRequest  true  "otp from customer"
// @Success      200      {object}  map[string]any
// @Failure      400,403,404,409  {object}  map[string]any
// @Router       /rides/{ride_id}/verify-otp [post]
func (h *Ride) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "verify_otp")

	rideID, ok := h.rideID(ctx, w, r)
	if !ok {
		return
	}

	var req dto.VerifyOTPRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Warn(ctx, "failed to read request JSON data", "error", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	started, err := h.service.VerifyOTP(ctx, currentUser(r), rideID, req.OTP)
	if err != nil {
		h.serviceError(ctx, w, err, "failed to verify otp")
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"ride": started})
	h.l.Info(ctx, "trip started", "ride_id", rideID)
}

// CancelRide godoc
// @Summary      Cancel ride
// @Description  Customer cancels the ride before the trip starts. The ride is removed.
// @Tags         Lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string  true  "ride id"
// @Success      200      {object}  map[string]any
// @Failure      403,404,409  {object}  map[string]any
// @Router       /rides/{ride_id}/cancel [post]
func (h *Ride) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "cancel_ride")

	rideID, ok := h.rideID(ctx, w, r)
	if !ok {
		return
	}

	if err := h.service.Cancel(ctx, currentUser(r), rideID); err != nil {
		h.serviceError(ctx, w, err, "failed to cancel ride")
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"ride_id": rideID, "message": "ride canceled"})
	h.l.Info(ctx, "ride canceled", "ride_id", rideID)
}

// RateRide godoc
// @Summary      Rate the other party
// @Tags         Lifecycle
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string           true  "ride id"
// @Param        request  body      dto.RateRequest  true  "rating"
// @Success      200      {object}  map[string]any
// @Failure      403,404,409,422  {object}  map[string]any
// @Router       /rides/{ride_id}/rate [post]
func (h *Ride) Rate(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "rate_ride")

	rideID, ok := h.rideID(ctx, w, r)
	if !ok {
		return
	}

	var req dto.RateRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Warn(ctx, "failed to read request JSON data", "error", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	rated, err := h.service.Rate(ctx, currentUser(r), rideID, req.ToInput())
	if err != nil {
		h.serviceError(ctx, w, err, "failed to rate ride")
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"ride": rated})
}

func (h *Ride) rideID(ctx context.Context, w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := pathUUID(r, "ride_id")
	if err != nil {
		h.l.Warn(ctx, "invalid ride id", "ride_id", r.PathValue("ride_id"))
		badRequestResponse(w, err.Error())
		return uuid.Nil, false
	}
	return id, true
}

// serviceError logs 5xx as errors and client mistakes as warnings.
func (h *Ride) serviceError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	if GetCode(err) >= http.StatusInternalServerError {
		h.l.Error(wrap.ErrorCtx(ctx, err), msg, err)
	} else {
		h.l.Warn(wrap.ErrorCtx(ctx, err), msg, "error", err)
	}
	serviceErrorResponse(w, err)
}

func (h *Ride) respond(ctx context.Context, w http.ResponseWriter, status int, data envelope) {
	if err := writeJSON(w, status, data, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}
