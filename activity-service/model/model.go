package model

import "time"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status            string           `json:"status"`
	Service           string           `json:"service"`
	Timestamp         time.Time        `json:"timestamp"`
	MessagesProcessed int64            `json:"messages_processed"`
	MessagesByType    map[string]int64 `json:"messages_by_type,omitempty"`
}
