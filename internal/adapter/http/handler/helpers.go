package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strconv"
	"strings"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	t "github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/google/uuid"
)

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return errors.New("failed to encode json")
	}

	js = append(js, '\n')

	maps.Copy(w.Header(), headers)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)

	return nil
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	const maxBytes = 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError
		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")

		// encoding/json has no typed error for unknown fields
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)

		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			return fmt.Errorf("invalid unmarshal error: %w", err)
		default:
			return err
		}
	}

	// a second value in the body is an error
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// GetCode maps domain errors to http status codes.
func GetCode(err error) int {
	switch {
	case IsOneOf(err, t.ErrValidation, t.ErrInvalidCoordinate, t.ErrUnknownVehicle, t.ErrInvalidFare, t.ErrInvalidRating):
		return http.StatusUnprocessableEntity
	case IsOneOf(err, t.ErrInvalidOTP):
		return http.StatusBadRequest
	case IsOneOf(err, t.ErrRideNotFound, t.ErrOfferNotFound, t.ErrUserNotFound, t.ErrDriverNotOnDuty, t.ErrShareLinkNotFound, t.ErrContactNotFound):
		return http.StatusNotFound
	case IsOneOf(err, t.ErrInvalidState, t.ErrOfferUnavailable, t.ErrAlreadyRated, t.ErrOTPRequired, t.ErrSearchInProgress):
		return http.StatusConflict
	case IsOneOf(err, t.ErrForbidden, t.ErrNotRideOwner, t.ErrNotAssignedDriver, t.ErrNotOfferOwner, t.ErrOwnRide):
		return http.StatusForbidden
	case IsOneOf(err, t.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func IsOneOf(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ErrorMessage hides internal details of 5xx errors from clients.
func ErrorMessage(err error) string {
	if GetCode(err) == http.StatusInternalServerError {
		return "the server encountered a problem and could not process your request"
	}
	return err.Error()
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s format", name)
	}
	return id, nil
}

// currentUser is set by the auth middleware, routes without it get anonymous user.
func currentUser(r *http.Request) *models.User {
	if u := models.UserFromContext(r.Context()); u != nil {
		return u
	}
	return models.AnonymousUser()
}

func readInt(r *http.Request, key string, defaultValue int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer value", key)
	}
	return i, nil
}
