package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Service
	FieldService = "service"

	// Sync protocol
	FieldRoomID   = "room_id"
	FieldClientID = "client_id"
	FieldEvent    = "event"
	FieldMedia    = "media"
	FieldPosition = "position"
)
