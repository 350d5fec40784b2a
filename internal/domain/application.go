package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus has no ordering constraint: the owning company may set
// any value at any time.
type ApplicationStatus string

const (
	ApplicationStatusApplied   ApplicationStatus = "Applied"
	ApplicationStatusReviewed  ApplicationStatus = "Reviewed"
	ApplicationStatusInterview ApplicationStatus = "Interview"
	ApplicationStatusRejected  ApplicationStatus = "Rejected"
	ApplicationStatusHired     ApplicationStatus = "Hired"
)

// MaxCoverLetterLen bounds the optional cover letter.
const MaxCoverLetterLen = 2000

// ParseApplicationStatus converts a raw string to an ApplicationStatus.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(s)
	switch st {
	case ApplicationStatusApplied, ApplicationStatusReviewed, ApplicationStatusInterview,
		ApplicationStatusRejected, ApplicationStatusHired:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// IsApplicantNotified returns true for the statuses that trigger an email to
// the applicant when entered.
func IsApplicantNotified(s ApplicationStatus) bool {
	return s == ApplicationStatusInterview || s == ApplicationStatusRejected || s == ApplicationStatusHired
}

// Application is an applicant's submission against a job. Content fields are
// immutable once created; only Status changes.
type Application struct {
	ID          uuid.UUID         `json:"id"`
	ApplicantID uuid.UUID         `json:"-"`
	JobID       uuid.UUID         `json:"jobId"`
	ResumeLink  string            `json:"resumeLink"`
	CoverLetter *string           `json:"coverLetter"`
	Status      ApplicationStatus `json:"status"`
	AppliedAt   time.Time         `json:"appliedAt"`

	// Read-side joins.
	ApplicantName  string    `json:"applicantName"`
	ApplicantEmail string    `json:"-"`
	JobTitle       string    `json:"jobTitle"`
	JobStatus      JobStatus `json:"jobStatus"`
	JobOwnerID     uuid.UUID `json:"-"`
	CompanyName    string    `json:"companyName"`
	CompanyEmail   string    `json:"-"`
}
