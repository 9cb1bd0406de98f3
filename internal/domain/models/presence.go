package models

import (
	"time"

	"github.com/google/uuid"
)

// DriverPresence is an on-duty driver. Lives only in memory while the driver is on duty.
type DriverPresence struct {
	DriverID  uuid.UUID   `json:"driver_id"`
	Coords    Coordinates `json:"coords"`
	ConnID    string      `json:"-"`
	Profile   Profile     `json:"profile"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NearbyDriver is a presence entry with distance to the query origin
type NearbyDriver struct {
	DriverID uuid.UUID   `json:"driver_id"`
	Coords   Coordinates `json:"coords"`
	Profile  Profile     `json:"profile"`
	Distance float64     `json:"distance"` // meters
	ConnID   string      `json:"-"`
}
