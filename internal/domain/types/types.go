package types

type ServiceMode string

// Ride Service - matching core: presence registry, negotiation, search loop, ride lifecycle, websocket gateway
// Audit Service - consumes ride status events and stores them into ride_events
const (
	RideService  ServiceMode = "ride-service"
	AuditService ServiceMode = "audit-service"
)

// UserRole роль пользователя, приходит в access token
type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	RoleCustomer  UserRole = "customer"
	RoleRider     UserRole = "rider"
	RoleAnonymous UserRole = ""
)

// RideStatus статус поездки
type RideStatus string

func (s RideStatus) String() string {
	return string(s)
}

const (
	StatusSearching RideStatus = "SEARCHING_FOR_RIDER"
	StatusAccepted  RideStatus = "ACCEPTED"
	StatusArrived   RideStatus = "ARRIVED"
	StatusStart     RideStatus = "START"
	StatusCompleted RideStatus = "COMPLETED"
)

// IsValid reports whether s is one of the stored ride statuses.
func (s RideStatus) IsValid() bool {
	switch s {
	case StatusSearching, StatusAccepted, StatusArrived, StatusStart, StatusCompleted:
		return true
	}
	return false
}

// HasRider reports whether a ride in status s must have an assigned driver.
func (s RideStatus) HasRider() bool {
	switch s {
	case StatusAccepted, StatusArrived, StatusStart, StatusCompleted:
		return true
	}
	return false
}

// OfferStatus статус предложения водителя
type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferRejected  OfferStatus = "rejected"
	OfferExpired   OfferStatus = "expired"
	OfferCountered OfferStatus = "countered"
)

// IsOpen reports whether the offer can still be countered or accepted.
func (s OfferStatus) IsOpen() bool {
	return s == OfferPending || s == OfferCountered
}

// Party is the originator of a counter offer.
type Party string

const (
	PartyPassenger Party = "passenger"
	PartyDriver    Party = "driver"
)

// VehicleType класс транспорта
type VehicleType string

const (
	VehicleBike           VehicleType = "bike"
	VehicleAuto           VehicleType = "auto"
	VehicleCabEconomy     VehicleType = "cabEconomy"
	VehicleCabPremium     VehicleType = "cabPremium"
	VehiclePickupTruck    VehicleType = "pickupTruck"
	VehicleMiniTruck      VehicleType = "miniTruck"
	VehicleLargeTruck     VehicleType = "largeTruck"
	VehicleContainerTruck VehicleType = "containerTruck"
)

// ServiceType тип услуги
type ServiceType string

const (
	ServiceCity      ServiceType = "city"
	ServiceIntercity ServiceType = "intercity"
	ServiceDelivery  ServiceType = "delivery"
	ServiceFreight   ServiceType = "freight"
)

// TicketCategory тема обращения в поддержку
type TicketCategory string

const (
	TicketLateArrival   TicketCategory = "late_arrival"
	TicketUnsafeDriving TicketCategory = "unsafe_driving"
	TicketFareDispute   TicketCategory = "fare_dispute"
	TicketAppIssue      TicketCategory = "app_issue"
	TicketOther         TicketCategory = "other"
)

func (c TicketCategory) IsValid() bool {
	switch c {
	case TicketLateArrival, TicketUnsafeDriving, TicketFareDispute, TicketAppIssue, TicketOther:
		return true
	}
	return false
}

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
)
