package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/ride-bidding/internal/adapter/http/handler/dto"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-bidding/pkg/validator"
	"github.com/google/uuid"
)

// ListOffers godoc
// @Summary      List offers of the ride
// @Tags         Offers
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string  true  "ride id"
// @Success      200      {object}  map[string]any
// @Failure      403,404  {object}  map[string]any
// @Router       /rides/{ride_id}/offers [get]
func (h *Ride) ListOffers(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_offers")

	rideID, ok := h.rideID(ctx, w, r)
	if !ok {
		return
	}

	offers, err := h.service.ListOffers(ctx, currentUser(r), rideID)
	if err != nil {
		h.serviceError(ctx, w, err, "failed to list offers")
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"offers": offers})
}

// SubmitOffer godoc
// @Summary      Make an offer
// @Description  On-duty driver bids for the ride. A new bid replaces the driver's previous open offer.
// @Tags         Offers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string                  true  "ride id"
// @Param        request  body      dto.SubmitOfferRequest  true  "offer"
// @Success      201      {object}  map[string]any
// @Failure      403,404,409,422  {object}  map[string]any
// @Router       /rides/{ride_id}/offers [post]
func (h *Ride) SubmitOffer(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "submit_offer")

	rideID, ok := h.rideID(ctx, w, r)
	if !ok {
		return
	}

	var req dto.SubmitOfferRequest
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

	offer, err := h.service.SubmitOffer(ctx, currentUser(r), rideID, req.ToInput())
	if err != nil {
		h.serviceError(ctx, w, err, "failed to submit offer")
		return
	}

	h.respond(ctx, w, http.StatusCreated, envelope{"offer": offer})
	h.l.Info(ctx, "offer submitted", "offer_id", offer.ID)
}

// CounterOffer godoc
// @Summary      Counter an offer
// @Tags         Offers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id   path      string                   true  "ride id"
// @Param        offer_id  path      string                   true  "offer id"
// @Param        request   body      dto.CounterOfferRequest  true  "counter"
// @Success      200       {object}  map[string]any
// @Failure      403,404,409,422  {object}  map[string]any
// @Router       /rides/{ride_id}/offers/{offer_id}/counter [post]
func (h *Ride) CounterOffer(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "counter_offer")

	rideID, offerID, ok := h.offerPath(ctx, w, r)
	if !ok {
		return
	}

	var req dto.CounterOfferRequest
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

	offer, err := h.service.CounterOffer(ctx, currentUser(r), rideID, offerID, req.ToInput())
	if err != nil {
		h.serviceError(ctx, w, err, "failed to counter offer")
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"offer": offer})
}

// AcceptOffer godoc
// @Summary      Accept an offer
// @Description  Exactly one offer can win. Other open offers of the ride are rejected.
// @Tags         Offers
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id   path      string  true  "ride id"
// @Param        offer_id  path      string  true  "offer id"
// @Success      200       {object}  map[string]any
// @Failure      403,404,409  {object}  map[string]any
// @Router       /rides/{ride_id}/offers/{offer_id}/accept [post]
func (h *Ride) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "accept_offer")

	rideID, offerID, ok := h.offerPath(ctx, w, r)
	if !ok {
		return
	}

	accepted, err := h.service.AcceptOffer(ctx, currentUser(r), rideID, offerID)
	if err != nil {
		h.serviceError(ctx, w, err, "failed to accept offer")
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"ride": accepted})
	h.l.Info(ctx, "offer accepted", "ride_id", rideID, "offer_id", offerID)
}

// RejectOffer godoc
// @Summary      Reject an offer
// @Tags         Offers
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id   path      string  true  "ride id"
// @Param        offer_id  path      string  true  "offer id"
// @Success      200       {object}  map[string]any
// @Failure      403,404,409  {object}  map[string]any
// @Router       /rides/{ride_id}/offers/{offer_id}/reject [post]
func (h *Ride) RejectOffer(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "reject_offer")

	rideID, offerID, ok := h.offerPath(ctx, w, r)
	if !ok {
		return
	}

	offer, err := h.service.RejectOffer(ctx, currentUser(r), rideID, offerID)
	if err != nil {
		h.serviceError(ctx, w, err, "failed to reject offer")
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"offer": offer})
}

func (h *Ride) offerPath(ctx context.Context, w http.ResponseWriter, r *http.Request) (rideID, offerID uuid.UUID, ok bool) {
	if rideID, ok = h.rideID(ctx, w, r); !ok {
		return
	}

	offerID, err := pathUUID(r, "offer_id")
	if err != nil {
		h.l.Warn(ctx, "invalid offer id", "offer_id", r.PathValue("offer_id"))
		badRequestResponse(w, err.Error())
		return rideID, uuid.Nil, false
	}
	return rideID, offerID, true
}
