package docs

// @title           Ride Bidding API
// @version         1.0
// @description     Negotiated ride-hail matching: customers post rides with a proposed fare, nearby on-duty drivers bid, both sides counter until one offer is accepted. Realtime events go over the /ws gateway.

// @host      localhost:3000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
