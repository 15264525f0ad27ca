package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a crawl job
type JobStatus string

const (
	JobStatusScheduled JobStatus = "SCHEDULED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSuccess   JobStatus = "SUCCESS"
	JobStatusFailed    JobStatus = "FAILED"
	JobStatusCancelled JobStatus = "CANCELLED"
)

// Terminal reports whether the status is final. Terminal jobs are never
// reopened.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusSuccess, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// CrawlJob records one execution attempt of crawling a source. It is created
// by the orchestrator when a job starts and mutated only by the orchestrator.
type CrawlJob struct {
	ID                 string     `json:"id"`
	SourceID           uuid.UUID  `json:"source_id"`
	SourceName         string     `json:"source_name"`
	Status             JobStatus  `json:"status"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            *time.Time `json:"end_time,omitempty"`
	AssignmentsFound   int        `json:"assignments_found"`
	AssignmentsCreated int        `json:"assignments_created"`
	AssignmentsUpdated int        `json:"assignments_updated"`
	ErrorMessage       string     `json:"error_message,omitempty"`
	ProcessedIDs       []string   `json:"processed_ids,omitempty"`
}
