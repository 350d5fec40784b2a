// Package applications is the application workflow engine: applying to an
// open job, moving an application through its statuses, and the applicant's
// own listing.
package applications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobmate/board-service/internal/access"
	"jobmate/board-service/internal/apperr"
	"jobmate/board-service/internal/domain"
	"jobmate/board-service/internal/events"
	"jobmate/board-service/internal/notify"
	"jobmate/board-service/internal/store"
	"jobmate/board-service/internal/telemetry"
	"jobmate/board-service/internal/upload"
)

var tracer = telemetry.GetTracer("board-service/applications")

// Resume is the uploaded file accompanying an application.
type Resume struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// Service encapsulates all application business logic.
type Service struct {
	jobs      store.Jobs
	apps      store.Applications
	storage   upload.Storage
	mail      notify.Dispatcher
	events    events.Publisher
	logger    *zap.Logger
	maxResume int64
}

func NewService(
	jobs store.Jobs,
	apps store.Applications,
	storage upload.Storage,
	mail notify.Dispatcher,
	pub events.Publisher,
	logger *zap.Logger,
	maxResumeBytes int64,
) *Service {
	return &Service{
		jobs:      jobs,
		apps:      apps,
		storage:   storage,
		mail:      mail,
		events:    pub,
		logger:    logger,
		maxResume: maxResumeBytes,
	}
}

// EnsureOpen fails with NotFound or JobNotOpen exactly as Apply would,
// letting a transport reject a submission before reading its upload.
func (s *Service) EnsureOpen(ctx context.Context, jobID uuid.UUID) error {
	_, err := s.openJob(ctx, jobID)
	return err
}

func (s *Service) openJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Job not found.", err)
	}
	if err != nil {
		return nil, apperr.Internal("load job", err)
	}
	if !job.IsOpen() {
		return nil, apperr.JobNotOpen("This job is not open for applications.")
	}
	return job, nil
}

// Apply files caller's application against jobID. The resume is uploaded
// before anything is persisted; a failed upload leaves no row behind.
func (s *Service) Apply(ctx context.Context, caller *domain.User, jobID uuid.UUID, resume *Resume, coverLetter *string) (*domain.Application, error) {
	ctx, span := tracer.Start(ctx, "applications.Apply")
	defer span.End()

	_, err := s.openJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(access.Applicant(caller)); err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	switch {
	case resume == nil || resume.Content == nil:
		fields["resume"] = "No file was submitted."
	case resume.Size == 0:
		fields["resume"] = "The submitted file is empty."
	case resume.Size > s.maxResume:
		fields["resume"] = fmt.Sprintf("The submitted file is larger than %d bytes.", s.maxResume)
	}
	if coverLetter != nil {
		trimmed := strings.TrimSpace(*coverLetter)
		if trimmed == "" {
			coverLetter = nil
		} else {
			coverLetter = &trimmed
			if utf8.RuneCountInString(trimmed) > domain.MaxCoverLetterLen {
				fields["coverLetter"] = fmt.Sprintf("Ensure this field has no more than %d characters.", domain.MaxCoverLetterLen)
			}
		}
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("Invalid application data.", fields)
	}

	span.SetAttributes(telemetry.Int("resume.size", int(resume.Size)))
	link, err := s.storage.Upload(ctx, resume.Filename, io.LimitReader(resume.Content, s.maxResume))
	if err != nil {
		s.logger.Error("resume upload failed",
			zap.String("job_id", jobID.String()),
			zap.String("applicant_id", caller.ID.String()),
			zap.Error(err))
		return nil, apperr.Upload("Failed to upload resume.", err)
	}

	app := &domain.Application{
		ID:          uuid.New(),
		ApplicantID: caller.ID,
		JobID:       jobID,
		ResumeLink:  link,
		CoverLetter: coverLetter,
		Status:      domain.ApplicationStatusApplied,
	}
	if err := s.apps.CreateApplication(ctx, app); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return nil, apperr.DuplicateApplication("You have already applied for this job.", err)
		case errors.Is(err, store.ErrNotFound):
			return nil, apperr.NotFound("Job not found.", err)
		}
		return nil, apperr.Internal("create application", err)
	}

	if err := s.mail.Send(ctx, notify.NewApplicationEmail(app)); err != nil {
		s.logger.Warn("dispatch new application email failed",
			zap.String("application_id", app.ID.String()), zap.Error(err))
	}
	s.events.Publish(ctx, events.ApplicationCreated, map[string]string{
		"applicationId": app.ID.String(),
		"jobId":         jobID.String(),
		"applicantId":   caller.ID.String(),
		"ownerId":       app.JobOwnerID.String(),
	})
	return app, nil
}

// UpdateStatus sets any status on an application to a job caller owns.
// Entering Interview, Rejected or Hired emails the applicant.
func (s *Service) UpdateStatus(ctx context.Context, caller *domain.User, id uuid.UUID, rawStatus string) (*domain.Application, error) {
	ctx, span := tracer.Start(ctx, "applications.UpdateStatus")
	defer span.End()

	app, err := s.apps.GetApplication(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Application not found.", err)
	}
	if err != nil {
		return nil, apperr.Internal("load application", err)
	}
	if err := access.Require(access.Company(caller), access.ApplicationOwner(caller, app)); err != nil {
		return nil, err
	}

	status, err := domain.ParseApplicationStatus(rawStatus)
	if err != nil {
		return nil, apperr.Validation("Invalid status.", map[string]string{
			"status": fmt.Sprintf("%q is not a valid choice.", rawStatus),
		})
	}

	previous := app.Status
	updated, err := s.apps.UpdateApplicationStatus(ctx, id, status)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Application not found.", err)
	}
	if err != nil {
		return nil, apperr.Internal("update application status", err)
	}
	if previous == status {
		return updated, nil
	}

	if msg, ok := notify.StatusChangeEmail(updated); ok {
		if err := s.mail.Send(ctx, msg); err != nil {
			s.logger.Warn("dispatch status change email failed",
				zap.String("application_id", id.String()),
				zap.String("status", string(status)),
				zap.Error(err))
		}
	}
	s.events.Publish(ctx, events.ApplicationStatusChanged, map[string]string{
		"applicationId": id.String(),
		"applicantId":   updated.ApplicantID.String(),
		"from":          string(previous),
		"to":            string(status),
	})
	return updated, nil
}

// ListMine lists caller's own applications.
func (s *Service) ListMine(ctx context.Context, caller *domain.User, q domain.ApplicationQuery) (domain.List[domain.Application], error) {
	ctx, span := tracer.Start(ctx, "applications.ListMine")
	defer span.End()

	if err := access.Require(access.Applicant(caller)); err != nil {
		return domain.List[domain.Application]{}, err
	}
	q.ApplicantID = caller.ID
	if len(q.Ordering) == 0 {
		q.Ordering = domain.DefaultApplicationOrdering
	}
	out, err := s.apps.ListApplicantApplications(ctx, q)
	if err != nil {
		return out, apperr.Internal("list applications", err)
	}
	return out, nil
}
