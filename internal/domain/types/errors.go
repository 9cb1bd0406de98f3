package types

import "errors"

// Validation
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrUnknownVehicle    = errors.New("unknown vehicle type")
	ErrInvalidFare       = errors.New("invalid fare")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrInvalidOTP        = errors.New("invalid otp")
)

// Not found
var (
	ErrRideNotFound      = errors.New("ride not found")
	ErrOfferNotFound     = errors.New("offer not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrDriverNotOnDuty   = errors.New("driver is not on duty")
	ErrShareLinkNotFound = errors.New("share link not found or expired")
	ErrContactNotFound   = errors.New("emergency contact not found")
)

// Invalid state
var (
	ErrInvalidState     = errors.New("operation is not valid for current ride status")
	ErrOfferUnavailable = errors.New("offer no longer available")
	ErrAlreadyRated     = errors.New("rating already submitted")
	ErrOTPRequired      = errors.New("trip can be started only with otp verification")
	ErrSearchInProgress = errors.New("search is already in progress")
)

// Authorization
var (
	ErrUnauthorized      = errors.New("authorization required")
	ErrForbidden         = errors.New("forbidden: insufficient role")
	ErrNotRideOwner      = errors.New("only the ride customer can do this")
	ErrNotAssignedDriver = errors.New("only the assigned driver can do this")
	ErrNotOfferOwner     = errors.New("only the offer driver can do this")
	ErrOwnRide           = errors.New("you cannot accept your own ride")
)

// Search
var (
	ErrNoCandidates = errors.New("no riders found")
)

// Infrastructure, consumers requeue messages failed with these
var (
	ErrDatabaseFailed = errors.New("database operation failed")
	ErrPublishFailed  = errors.New("failed to publish message")
)
