package types

// RideEvent тип события для аудита (ride_events.event_type)
type RideEvent string

func (s RideEvent) String() string {
	return string(s)
}

const (
	EventRideRequested RideEvent = "RIDE_REQUESTED"
	EventRiderAssigned RideEvent = "RIDER_ASSIGNED"
	EventRiderArrived  RideEvent = "RIDER_ARRIVED"
	EventRideStarted   RideEvent = "RIDE_STARTED"
	EventRideCompleted RideEvent = "RIDE_COMPLETED"
	EventRideCanceled  RideEvent = "RIDE_CANCELED"
	EventRideExpired   RideEvent = "RIDE_EXPIRED"
	EventRideRated     RideEvent = "RIDE_RATED"
	EventSOS           RideEvent = "SOS_TRIGGERED"
)

// EventForStatus maps a ride status to its audit event.
func EventForStatus(s RideStatus) RideEvent {
	switch s {
	case StatusSearching:
		return EventRideRequested
	case StatusAccepted:
		return EventRiderAssigned
	case StatusArrived:
		return EventRiderArrived
	case StatusStart:
		return EventRideStarted
	case StatusCompleted:
		return EventRideCompleted
	default:
		return RideEvent(s)
	}
}
