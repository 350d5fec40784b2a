// Package domain defines the entities shared by the job board engines.
//
// Valid job status graph:
//
//	Draft ──► Open ──► Closed
//
// Closed is terminal. Re-asserting the current status is always allowed.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus values mirror the job_status check constraint in PostgreSQL.
type JobStatus string

const (
	JobStatusDraft  JobStatus = "Draft"
	JobStatusOpen   JobStatus = "Open"
	JobStatusClosed JobStatus = "Closed"
)

// Field limits for a job posting.
const (
	MaxJobTitleLen       = 100
	MaxJobDescriptionLen = 2000
	MaxJobLocationLen    = 255
)

// jobTransitions lists every allowed (from → to) pair, same-status included.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusDraft:  {JobStatusDraft, JobStatusOpen},
	JobStatusOpen:   {JobStatusOpen, JobStatusClosed},
	JobStatusClosed: {JobStatusClosed},
}

// ParseJobStatus converts a raw string to a JobStatus, returning an error for
// unknown values. Matching is exact.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	switch st {
	case JobStatusDraft, JobStatusOpen, JobStatusClosed:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// ParseJobStatusFold is ParseJobStatus with case-insensitive matching, used
// for query filters.
func ParseJobStatusFold(s string) (JobStatus, error) {
	for _, st := range []JobStatus{JobStatusDraft, JobStatusOpen, JobStatusClosed} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// IsJobTransitionAllowed returns true when moving from → to is permitted by
// the job lifecycle.
func IsJobTransitionAllowed(from, to JobStatus) bool {
	for _, s := range jobTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Job is a posting owned by a company user.
type Job struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    *string   `json:"location"`
	Status      JobStatus `json:"status"`
	OwnerID     uuid.UUID `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`

	// Read-side joins.
	CompanyName      string `json:"companyName"`
	ApplicationCount *int   `json:"application_count,omitempty"`
}

// IsOpen reports whether the job accepts applications.
func (j *Job) IsOpen() bool { return j.Status == JobStatusOpen }
