package grpcserver

import (
	"google.golang.org/protobuf/types/known/timestamppb"

	"jobmate/board-service/internal/domain"
)

// ─── Requests ────────────────────────────────────────────────────────────────

type ListJobsRequest struct {
	Title       string `json:"title,omitempty"`
	Location    string `json:"location,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
	Status      string `json:"status,omitempty"`
	Page        int32  `json:"page,omitempty"`
	PageSize    int32  `json:"pageSize,omitempty"`
}

type GetJobRequest struct {
	JobID string `json:"jobId"`
}

type ListMyApplicationsRequest struct {
	CompanyName string   `json:"companyName,omitempty"`
	JobStatus   string   `json:"jobStatus,omitempty"`
	Statuses    []string `json:"statuses,omitempty"`
	Ordering    string   `json:"ordering,omitempty"`
	Page        int32    `json:"page,omitempty"`
	PageSize    int32    `json:"pageSize,omitempty"`
}

type UpdateApplicationStatusRequest struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type JobProto struct {
	ID               string                 `json:"id"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	Location         string                 `json:"location,omitempty"`
	Status           string                 `json:"status"`
	CompanyName      string                 `json:"companyName"`
	ApplicationCount int32                  `json:"applicationCount,omitempty"`
	CreatedAt        *timestamppb.Timestamp `json:"createdAt"`
}

type ApplicationProto struct {
	ID            string                 `json:"id"`
	JobID         string                 `json:"jobId"`
	JobTitle      string                 `json:"jobTitle"`
	JobStatus     string                 `json:"jobStatus"`
	CompanyName   string                 `json:"companyName"`
	ApplicantName string                 `json:"applicantName"`
	ResumeLink    string                 `json:"resumeLink"`
	CoverLetter   string                 `json:"coverLetter,omitempty"`
	Status        string                 `json:"status"`
	AppliedAt     *timestamppb.Timestamp `json:"appliedAt"`
}

type ListJobsResponse struct {
	Jobs     []*JobProto `json:"jobs"`
	Total    int32       `json:"total"`
	Page     int32       `json:"page"`
	PageSize int32       `json:"pageSize"`
}

type ListApplicationsResponse struct {
	Applications []*ApplicationProto `json:"applications"`
	Total        int32               `json:"total"`
	Page         int32               `json:"page"`
	PageSize     int32               `json:"pageSize"`
}

// ─── Conversion ──────────────────────────────────────────────────────────────

// jobToProto converts a domain.Job; the optional Location and
// ApplicationCount collapse to their zero values.
func jobToProto(j *domain.Job) *JobProto {
	p := &JobProto{
		ID:          j.ID.String(),
		Title:       j.Title,
		Description: j.Description,
		Status:      string(j.Status),
		CompanyName: j.CompanyName,
		CreatedAt:   timestamppb.New(j.CreatedAt),
	}
	if j.Location != nil {
		p.Location = *j.Location
	}
	if j.ApplicationCount != nil {
		p.ApplicationCount = int32(*j.ApplicationCount)
	}
	return p
}

func appToProto(a *domain.Application) *ApplicationProto {
	p := &ApplicationProto{
		ID:            a.ID.String(),
		JobID:         a.JobID.String(),
		JobTitle:      a.JobTitle,
		JobStatus:     string(a.JobStatus),
		CompanyName:   a.CompanyName,
		ApplicantName: a.ApplicantName,
		ResumeLink:    a.ResumeLink,
		Status:        string(a.Status),
		AppliedAt:     timestamppb.New(a.AppliedAt),
	}
	if a.CoverLetter != nil {
		p.CoverLetter = *a.CoverLetter
	}
	return p
}
