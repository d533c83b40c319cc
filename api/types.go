package api

import (
	"time"

	"bugscan/scanner"
)

// Job lifecycle states.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ScanJob represents a scan submitted through the API.
type ScanJob struct {
	// ID is the immutable identifier of the job (UUID v4).
	ID string `json:"id" format:"uuid" example:"a3f5c62e-1234-4f72-a84a-1c2d3e4f5678"`
	// Status reflects the asynchronous lifecycle state of the job.
	Status string `json:"status" enums:"pending,running,completed,failed" example:"pending"`
	// Hosts lists the submitted targets verbatim.
	Hosts []string `json:"hosts,omitempty" example:"[\"example.com\",\"192.0.2.10\"]"`
	// CIDR is expanded into hosts when Hosts is empty.
	CIDR    string   `json:"cidr,omitempty" example:"192.0.2.0/28"`
	Ports   []int    `json:"ports" example:"[80,443]"`
	Methods []string `json:"methods" example:"[\"head\"]"`
	Mode    string   `json:"mode" enums:"direct,ping,udp,ssl,ws" example:"direct"`
	// Lines holds the verdict lines in the order they were emitted.
	Lines []string `json:"lines,omitempty"`
	// Stats is set once the job reaches a terminal state.
	Stats       *scanner.Stats `json:"stats,omitempty"`
	CreatedAt   time.Time      `json:"created_at" format:"date-time" example:"2024-01-02T15:04:05Z"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" format:"date-time" example:"2024-01-02T15:06:30Z"`
	Error       string         `json:"error,omitempty" example:"invalid cidr"`
}

// CreateScanRequest is the payload for creating new scan jobs. Ports and
// methods default to [80] and ["head"].
type CreateScanRequest struct {
	Hosts   []string `json:"hosts" example:"[\"example.com\"]"`
	CIDR    string   `json:"cidr" example:"192.0.2.0/28"`
	Ports   []int    `json:"ports" binding:"omitempty,dive,min=0,max=65535" example:"[80,443]"`
	Methods []string `json:"methods" binding:"omitempty,dive,required" example:"[\"head\",\"get\"]"`
	Mode    string   `json:"mode" binding:"required,oneof=direct ping udp ssl ws" enums:"direct,ping,udp,ssl,ws" example:"direct"`
}

// ScanAcceptedResponse is returned after a job is queued.
type ScanAcceptedResponse struct {
	ID     string `json:"id" format:"uuid" example:"a3f5c62e-1234-4f72-a84a-1c2d3e4f5678"`
	Status string `json:"status" enums:"pending" example:"pending"`
}

// ErrorResponse provides a consistent structure for API error payloads.
type ErrorResponse struct {
	Error string `json:"error" example:"job not found"`
}
