package types

import "fmt"

// Websocket event names, kept compatible with existing mobile clients.
const (
	// inbound, driver
	WSGoOnDuty       = "goOnDuty"
	WSGoOffDuty      = "goOffDuty"
	WSUpdateLocation = "updateLocation"
	WSMakeOffer      = "makeOffer"

	// inbound, passenger
	WSSubscribeToZone = "subscribeToZone"
	WSSearchRider     = "searchRider"
	WSCancelRide      = "cancelRide"
	WSCounterOffer    = "counterOffer"

	// inbound, both
	WSSubscribeRide          = "subscribeRide"
	WSSubscribeRiderLocation = "subscribeToRiderLocation"

	// outbound
	WSNearbyDrivers       = "nearbyDrivers"
	WSRideOffer           = "rideOffer"
	WSOfferUpdate         = "offerUpdate"
	WSRideAccepted        = "rideAccepted"
	WSRideUpdate          = "rideUpdate"
	WSRiderLocationUpdate = "riderLocationUpdate"
	WSRideCanceled        = "rideCanceled"
	WSRideData            = "rideData"
	WSSOSAlert            = "sosAlert"
	WSError               = "error"
)

// Room names
const (
	RoomRidePrefix  = "ride_"  // everybody watching a ride
	RoomRiderPrefix = "rider_" // subscribers of a driver's location
	RoomUserPrefix  = "user_"  // every socket of one user
	RoomOnDuty      = "onDuty"
)

func RideRoom(rideID fmt.Stringer) string {
	return RoomRidePrefix + rideID.String()
}

func RiderRoom(driverID fmt.Stringer) string {
	return RoomRiderPrefix + driverID.String()
}

func UserRoom(userID fmt.Stringer) string {
	return RoomUserPrefix + userID.String()
}
