package models

import "time"

type MessageEnvelope struct {
	ID        string                 `json:"id"`
	Source    string                 `json:"source"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`  // Business data
	Metadata  Metadata               `json:"metadata"` // Delivery metadata (trace_id, event_type)
}

type Metadata struct {
	TraceID   string `json:"trace_id,omitempty"`
	EventType string `json:"event_type,omitempty"`
}
