package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("log line is not json: %v (%q)", err, buf.String())
	}
	return m
}

func TestLogger_InjectsContextFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "ride-service", LevelDebug)

	ctx := wrap.WithAction(context.Background(), "create_ride")
	ctx = wrap.WithRideID(ctx, "ride-1")
	ctx = wrap.WithUserID(ctx, "user-1")

	l.Info(ctx, "ride created", "fare", 70)

	line := decodeLine(t, &buf)
	for key, want := range map[string]string{
		"message": "ride created",
		"service": "ride-service",
		"action":  "create_ride",
		"ride_id": "ride-1",
		"user_id": "user-1",
	} {
		if got, _ := line[key].(string); got != want {
			t.Fatalf("%s: got %q want %q", key, got, want)
		}
	}
	if _, ok := line["timestamp"]; !ok {
		t.Fatalf("timestamp attribute is missing")
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "svc", LevelWarn)

	l.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered out on WARN level, got %q", buf.String())
	}

	l.Warn(context.Background(), "visible")
	if buf.Len() == 0 {
		t.Fatalf("warn must be written on WARN level")
	}
}

func TestLogger_ErrorCarriesContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "svc", LevelDebug)

	inner := wrap.WithAction(context.Background(), "accept_offer")
	inner = wrap.WithOfferID(inner, "offer-7")
	err := wrap.Error(inner, errors.New("offer no longer available"))

	outer := wrap.WithRequestID(context.Background(), "req-1")
	l.Error(wrap.ErrorCtx(outer, err), "failed to accept offer", err)

	line := decodeLine(t, &buf)
	if line["action"] != "accept_offer" {
		t.Fatalf("action from error context expected, got %v", line["action"])
	}
	if line["offer_id"] != "offer-7" {
		t.Fatalf("offer_id from error context expected, got %v", line["offer_id"])
	}
	if line["request_id"] != "req-1" {
		t.Fatalf("request_id from outer context must survive, got %v", line["request_id"])
	}
	group, _ := line["error"].(map[string]any)
	if group["msg"] != "offer no longer available" {
		t.Fatalf("unexpected error group: %v", line["error"])
	}
}

func TestValidateLogLevel(t *testing.T) {
	for _, lvl := range []string{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		if !ValidateLogLevel(lvl) {
			t.Fatalf("%s must be valid", lvl)
		}
	}
	if ValidateLogLevel("TRACE") {
		t.Fatalf("TRACE must be invalid")
	}
}
