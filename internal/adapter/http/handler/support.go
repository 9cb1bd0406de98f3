package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/ride-bidding/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/service/support"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-bidding/pkg/validator"
	"github.com/google/uuid"
)

type Support struct {
	service SupportService
	l       logger.Logger
}

type SupportService interface {
	Contacts(ctx context.Context, user *models.User) ([]models.EmergencyContact, error)
	AddContact(ctx context.Context, user *models.User, in support.ContactInput) ([]models.EmergencyContact, error)
	RemoveContact(ctx context.Context, user *models.User, contactID uuid.UUID) ([]models.EmergencyContact, error)

	CreateTicket(ctx context.Context, user *models.User, in support.TicketInput) (*models.SupportTicket, error)
	MyTickets(ctx context.Context, user *models.User) ([]*models.SupportTicket, error)
}

func NewSupport(service SupportService, l logger.Logger) *Support {
	return &Support{
		service: service,
		l:       l,
	}
}

// ListContacts godoc
// @Summary      Emergency contacts
// @Tags         Safety
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Router       /safety/contacts [get]
func (h *Support) ListContacts(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_contacts")

	contacts, err := h.service.Contacts(ctx, currentUser(r))
	if err != nil {
		h.serviceError(ctx, w, err, "failed to list emergency contacts")
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"contacts": contacts})
}

// AddContact godoc
// @Summary      Add emergency contact
// @Tags         Safety
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      dto.AddContactRequest  true  "contact"
// @Success      201      {object}  map[string]any
// @Failure      400,422  {object}  map[string]any
// @Router       /safety/contacts [post]
func (h *Support) AddContact(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "add_contact")

	var req dto.AddContactRequest
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

	contacts, err := h.service.AddContact(ctx, currentUser(r), req.ToInput())
	if err != nil {
		h.serviceError(ctx, w, err, "failed to add emergency contact")
		return
	}

	h.respond(ctx, w, http.StatusCreated, envelope{"contacts": contacts})
}

// RemoveContact godoc
// @Summary      Remove emergency contact
// @Tags         Safety
// @Produce      json
// @Security     BearerAuth
// @Param        contact_id  path      string  true  "contact id"
// @Success      200         {object}  map[string]any
// @Failure      400,404     {object}  map[string]any
// @Router       /safety/contacts/{contact_id} [delete]
func (h *Support) RemoveContact(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "remove_contact")

	contactID, err := pathUUID(r, "contact_id")
	if err != nil {
		h.l.Warn(ctx, "invalid contact id", "contact_id", r.PathValue("contact_id"))
		badRequestResponse(w, err.Error())
		return
	}

	contacts, err := h.service.RemoveContact(ctx, currentUser(r), contactID)
	if err != nil {
		h.serviceError(ctx, w, err, "failed to remove emergency contact")
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"contacts": contacts})
}

// CreateTicket godoc
// @Summary      Open support ticket
// @Description  A ticket may reference a ride the caller took part in
// @Tags         Support
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      dto.CreateTicketRequest  true  "ticket"
// @Success      201      {object}  map[string]any
// @Failure      400,403,404,422  {object}  map[string]any
// @Router       /support/tickets [post]
func (h *Support) CreateTicket(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_ticket")

	var req dto.CreateTicketRequest
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

	ticket, err := h.service.CreateTicket(ctx, currentUser(r), req.ToInput())
	if err != nil {
		h.serviceError(ctx, w, err, "failed to create support ticket")
		return
	}

	h.respond(ctx, w, http.StatusCreated, envelope{"ticket": ticket})
}

// ListTickets godoc
// @Summary      My support tickets
// @Tags         Support
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Router       /support/tickets [get]
func (h *Support) ListTickets(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_tickets")

	tickets, err := h.service.MyTickets(ctx, currentUser(r))
	if err != nil {
		h.serviceError(ctx, w, err, "failed to list support tickets")
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"tickets": tickets})
}

func (h *Support) serviceError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	if GetCode(err) >= http.StatusInternalServerError {
		h.l.Error(wrap.ErrorCtx(ctx, err), msg, err)
	} else {
		h.l.Warn(wrap.ErrorCtx(ctx, err), msg, "error", err)
	}
	serviceErrorResponse(w, err)
}

func (h *Support) respond(ctx context.Context, w http.ResponseWriter, status int, data envelope) {
	if err := writeJSON(w, status, data, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}
