package models

import "time"

// Coordinates is a point on the map
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is a point with human readable address (pickup / drop)
type Place struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p Place) Coordinates() Coordinates {
	return Coordinates{Latitude: p.Latitude, Longitude: p.Longitude}
}

// LocationPing is a single driver position report, streamed to Kafka
type LocationPing struct {
	DriverID  string      `json:"driver_id"`
	Coords    Coordinates `json:"coords"`
	Timestamp time.Time   `json:"timestamp"`
}
