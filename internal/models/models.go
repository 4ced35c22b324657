package models

import "time"

// UploadResponse is returned after a successful upload
type UploadResponse struct {
	Filename string `json:"filename"`
}

// ListResponse enumerates the stored entries
type ListResponse struct {
	Files []string `json:"files"`
}

// ErrorResponse carries a client-visible error message
type ErrorResponse struct {
	Error string `json:"error"`
}

// Operation names recorded by the monitoring service
const (
	OpUpload   = "upload"
	OpList     = "list"
	OpDownload = "download"
	OpDelete   = "delete"
)

// Outcome classifies the result of a storage operation
const (
	OutcomeSuccess     = "success"
	OutcomeInvalidName = "invalid_name"
	OutcomeNotFound    = "not_found"
	OutcomeError       = "error"
)

// Report represents a periodic summary of storage activity
type Report struct {
	GeneratedAt  time.Time              `json:"generated_at"`
	Period       string                 `json:"period"` // "daily" or "weekly"
	Backend      string                 `json:"backend"`
	TotalEntries int                    `json:"total_entries"`
	Operations   map[string]int         `json:"operations"`
	BytesStored  int64                  `json:"bytes_stored"`
	BytesServed  int64                  `json:"bytes_served"`
	ErrorCount   int                    `json:"error_count"`
	Summary      map[string]interface{} `json:"summary"`
}
