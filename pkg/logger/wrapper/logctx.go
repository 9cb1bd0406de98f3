package wrap

import (
	"context"
)

type (
	// LogCtx holds contextual information for logging
	LogCtx struct {
		Action    string
		UserID    string
		RequestID string
		RideID    string
		DriverID  string
		OfferID   string
	}

	// logCtxKeyStruct is an unexported type for context keys defined in this package.
	logCtxKeyStruct struct{}
)

// LogCtxKey is the key for log context values
var LogCtxKey = &logCtxKeyStruct{}

// WithLogCtx returns a new context with the provided LogCtx.
// Empty fields of newLc are filled from the LogCtx already stored in ctx.
func WithLogCtx(ctx context.Context, newLc LogCtx) context.Context {
	if lc, ok := ctx.Value(LogCtxKey).(LogCtx); ok {
		if newLc.Action == "" {
			newLc.Action = lc.Action
		}
		if newLc.UserID == "" {
			newLc.UserID = lc.UserID
		}
		if newLc.RequestID == "" {
			newLc.RequestID = lc.RequestID
		}
		if newLc.RideID == "" {
			newLc.RideID = lc.RideID
		}
		if newLc.DriverID == "" {
			newLc.DriverID = lc.DriverID
		}
		if newLc.OfferID == "" {
			newLc.OfferID = lc.OfferID
		}
	}
	return context.WithValue(ctx, LogCtxKey, newLc)
}

func update(ctx context.Context, fn func(lc *LogCtx)) context.Context {
	lc, _ := ctx.Value(LogCtxKey).(LogCtx)
	fn(&lc)
	return context.WithValue(ctx, LogCtxKey, lc)
}

// WithUserID adds or updates the UserID in the LogCtx within the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return update(ctx, func(lc *LogCtx) { lc.UserID = userID })
}

// WithRequestID adds or updates the RequestID in the LogCtx within the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return update(ctx, func(lc *LogCtx) { lc.RequestID = requestID })
}

// WithRideID adds or updates the RideID in the LogCtx within the context
func WithRideID(ctx context.Context, rideID string) context.Context {
	return update(ctx, func(lc *LogCtx) { lc.RideID = rideID })
}

// WithDriverID adds or updates the DriverID in the LogCtx within the context
func WithDriverID(ctx context.Context, driverID string) context.Context {
	return update(ctx, func(lc *LogCtx) { lc.DriverID = driverID })
}

// WithOfferID adds or updates the OfferID in the LogCtx within the context
func WithOfferID(ctx context.Context, offerID string) context.Context {
	return update(ctx, func(lc *LogCtx) { lc.OfferID = offerID })
}

// WithAction adds or updates the Action in the LogCtx within the context
func WithAction(ctx context.Context, action string) context.Context {
	return update(ctx, func(lc *LogCtx) { lc.Action = action })
}

// GetRequestID returns request id stored in the context, or empty string.
func GetRequestID(ctx context.Context) string {
	lc, _ := ctx.Value(LogCtxKey).(LogCtx)
	return lc.RequestID
}
