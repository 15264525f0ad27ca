package models

import "time"

// ErrorResponse is the standard error envelope returned by the API
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StartJobResponse wraps the job record returned by a start request
type StartJobResponse struct {
	Job       *CrawlJob `json:"job"`
	RequestID string    `json:"request_id"`
}

// JobListResponse wraps a list of job records
type JobListResponse struct {
	Jobs  []*CrawlJob `json:"jobs"`
	Count int         `json:"count"`
}

// CancelJobResponse reports the outcome of a cancellation request
type CancelJobResponse struct {
	JobID     string `json:"job_id"`
	Cancelled bool   `json:"cancelled"`
}

// SweepResponse reports how many sources a scheduled sweep touched
type SweepResponse struct {
	SourcesTotal int `json:"sources_total"`
	JobsStarted  int `json:"jobs_started"`
	Failures     int `json:"failures"`
}

// HealthResponse is returned by the health endpoints
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}
