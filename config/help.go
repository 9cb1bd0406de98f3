package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `Ride bidding service.

Usage:
  ride -mode=<mode> [-config-path=config.yaml]
  ride -help

Modes:
  ride-service    REST API, realtime gateway, driver presence and rider search
  audit-service   consumes ride status events and stores them in ride_events

Options:
  -mode          service mode, required
  -config-path   path to YAML config, environment variables override it
  -help          show this message

Environment:
  DATABASE_HOST, DATABASE_PORT, DATABASE_USER, DATABASE_PASSWORD, DATABASE_DATABASE
  RABBITMQ_HOST, RABBITMQ_PORT, RABBITMQ_USER, RABBITMQ_PASSWORD
  REDIS_HOST, REDIS_PORT, REDIS_PASSWORD, REDIS_DB, REDIS_PROFILE_TTL
  KAFKA_ENABLED, KAFKA_BROKERS, KAFKA_LOCATION_TOPIC
  SERVICES_RIDE_SERVICE, SERVICES_AUDIT_SERVICE
  AUTH_JWT_SECRET
  MATCHING_RADIUS_METERS, MATCHING_SEARCH_INTERVAL, MATCHING_MAX_ATTEMPTS
  SHARE_BASE_URL, SHARE_TTL
  WS_ALLOWED_ORIGINS
  LOG_LEVEL
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}
