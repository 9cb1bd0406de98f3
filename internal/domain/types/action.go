package types

const (
	ActionRabbitMQConnected       = "rabbitmq_connected"
	ActionRabbitConnectionClosed  = "rabbitmq_connection_closed"
	ActionRabbitConnectionClosing = "rabbitmq_connection_closing"
	ActionRabbitReconnected       = "rabbitmq_reconnection_success"

	ActionExternalServiceFailed = "external_service_failed"

	ActionSearchStarted   = "search_started"
	ActionSearchAttempt   = "search_attempt"
	ActionSearchStopped   = "search_stopped"
	ActionSearchExhausted = "search_exhausted"

	ActionPresenceCorrupted = "presence_entry_corrupted"
)
