// Package jobs is the job lifecycle engine. It is transport-agnostic: used by
// the HTTP handlers (httpapi) and the gRPC server (grpcserver).
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobmate/board-service/internal/access"
	"jobmate/board-service/internal/apperr"
	"jobmate/board-service/internal/domain"
	"jobmate/board-service/internal/events"
	"jobmate/board-service/internal/store"
	"jobmate/board-service/internal/telemetry"
)

var tracer = telemetry.GetTracer("board-service/jobs")

// ─── Inputs ──────────────────────────────────────────────────────────────────

// JobInput is the create form. Status defaults to Draft.
type JobInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    *string `json:"location"`
	Status      *string `json:"status"`
}

// JobPatch is a partial update; nil fields are left alone. An empty
// Location clears it.
type JobPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Status      *string `json:"status"`
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service encapsulates all job business logic.
type Service struct {
	jobs   store.Jobs
	apps   store.Applications
	events events.Publisher
	logger *zap.Logger
}

func NewService(jobs store.Jobs, apps store.Applications, pub events.Publisher, logger *zap.Logger) *Service {
	return &Service{jobs: jobs, apps: apps, events: pub, logger: logger}
}

// Create posts a new job owned by caller.
func (s *Service) Create(ctx context.Context, caller *domain.User, in JobInput) (*domain.Job, error) {
	ctx, span := tracer.Start(ctx, "jobs.Create")
	defer span.End()

	if err := access.Require(access.Company(caller)); err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	title := strings.TrimSpace(in.Title)
	desc := strings.TrimSpace(in.Description)
	checkText(fields, "title", title, domain.MaxJobTitleLen, true)
	checkText(fields, "description", desc, domain.MaxJobDescriptionLen, true)
	location := normalizeLocation(in.Location)
	if location != nil {
		checkText(fields, "location", *location, domain.MaxJobLocationLen, false)
	}

	status := domain.JobStatusDraft
	if in.Status != nil {
		st, err := domain.ParseJobStatus(*in.Status)
		if err != nil {
			fields["status"] = fmt.Sprintf("%q is not a valid choice.", *in.Status)
		}
		status = st
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("Invalid job data.", fields)
	}

	j := &domain.Job{
		ID:          uuid.New(),
		Title:       title,
		Description: desc,
		Location:    location,
		Status:      status,
		OwnerID:     caller.ID,
	}
	if err := s.jobs.CreateJob(ctx, j); err != nil {
		return nil, apperr.Internal("create job", err)
	}

	s.events.Publish(ctx, events.JobCreated, map[string]string{
		"jobId":   j.ID.String(),
		"ownerId": caller.ID.String(),
		"status":  string(j.Status),
	})
	return j, nil
}

// Get returns a job. Callers other than companies only see Open jobs;
// anything else is reported as missing.
func (s *Service) Get(ctx context.Context, caller *domain.User, id uuid.UUID) (*domain.Job, error) {
	ctx, span := tracer.Start(ctx, "jobs.Get")
	defer span.End()

	j, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.IsCompany(caller) && !j.IsOpen() {
		return nil, apperr.NotFound("Job not found.", nil)
	}
	return j, nil
}

// Update applies a partial edit. Status changes follow the job lifecycle;
// a Closed job is frozen.
func (s *Service) Update(ctx context.Context, caller *domain.User, id uuid.UUID, patch JobPatch) (*domain.Job, error) {
	ctx, span := tracer.Start(ctx, "jobs.Update")
	defer span.End()

	j, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Require(access.JobOwner(caller, j)); err != nil {
		return nil, err
	}

	next := *j
	fields := make(map[string]string)
	if patch.Title != nil {
		next.Title = strings.TrimSpace(*patch.Title)
		checkText(fields, "title", next.Title, domain.MaxJobTitleLen, true)
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
		checkText(fields, "description", next.Description, domain.MaxJobDescriptionLen, true)
	}
	if patch.Location != nil {
		next.Location = normalizeLocation(patch.Location)
		if next.Location != nil {
			checkText(fields, "location", *next.Location, domain.MaxJobLocationLen, false)
		}
	}
	if patch.Status != nil {
		st, err := domain.ParseJobStatus(*patch.Status)
		if err != nil {
			fields["status"] = fmt.Sprintf("%q is not a valid choice.", *patch.Status)
		}
		next.Status = st
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("Invalid job data.", fields)
	}

	if !domain.IsJobTransitionAllowed(j.Status, next.Status) {
		return nil, apperr.InvalidTransition(transitionMessage(j.Status))
	}
	if j.Status == domain.JobStatusClosed && contentChanged(j, &next) {
		return nil, apperr.InvalidTransition("A 'Closed' job cannot be edited.")
	}

	if err := s.jobs.UpdateJob(ctx, &next, j.Status); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, apperr.NotFound("Job not found.", err)
		case errors.Is(err, store.ErrConflict):
			return nil, apperr.InvalidTransition("The job status was changed by another request. Reload the job and try again.")
		}
		return nil, apperr.Internal("update job", err)
	}

	if next.Status != j.Status {
		s.events.Publish(ctx, events.JobStatusChanged, map[string]string{
			"jobId":   j.ID.String(),
			"ownerId": j.OwnerID.String(),
			"from":    string(j.Status),
			"to":      string(next.Status),
		})
	}
	return &next, nil
}

// Delete removes the job and, by cascade, its applications.
func (s *Service) Delete(ctx context.Context, caller *domain.User, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "jobs.Delete")
	defer span.End()

	j, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Require(access.JobOwner(caller, j)); err != nil {
		return err
	}
	if err := s.jobs.DeleteJob(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Job not found.", err)
		}
		return apperr.Internal("delete job", err)
	}
	return nil
}

// List is the public listing. Companies see every job; everyone else sees
// Open jobs only.
func (s *Service) List(ctx context.Context, caller *domain.User, q domain.JobQuery) (domain.List[domain.Job], error) {
	ctx, span := tracer.Start(ctx, "jobs.List")
	defer span.End()

	q.OwnerID = nil
	q.WithCounts = false
	q.OpenOnly = !access.IsCompany(caller)
	return s.list(ctx, q)
}

// ListMine lists the caller's own jobs with their application counts.
func (s *Service) ListMine(ctx context.Context, caller *domain.User, q domain.JobQuery) (domain.List[domain.Job], error) {
	ctx, span := tracer.Start(ctx, "jobs.ListMine")
	defer span.End()

	if err := access.Require(access.Company(caller)); err != nil {
		return domain.List[domain.Job]{}, err
	}
	q.OpenOnly = false
	q.OwnerID = &caller.ID
	q.WithCounts = true
	return s.list(ctx, q)
}

// ListApplications lists the applications received by a job the caller owns.
func (s *Service) ListApplications(ctx context.Context, caller *domain.User, q domain.JobApplicationsQuery) (domain.List[domain.Application], error) {
	ctx, span := tracer.Start(ctx, "jobs.ListApplications")
	defer span.End()

	j, err := s.load(ctx, q.JobID)
	if err != nil {
		return domain.List[domain.Application]{}, err
	}
	if err := access.Require(access.JobOwner(caller, j)); err != nil {
		return domain.List[domain.Application]{}, err
	}
	out, err := s.apps.ListJobApplications(ctx, q)
	if err != nil {
		return out, apperr.Internal("list job applications", err)
	}
	return out, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Service) list(ctx context.Context, q domain.JobQuery) (domain.List[domain.Job], error) {
	out, err := s.jobs.ListJobs(ctx, q)
	if err != nil {
		return out, apperr.Internal("list jobs", err)
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	j, err := s.jobs.GetJob(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Job not found.", err)
	}
	if err != nil {
		return nil, apperr.Internal("load job", err)
	}
	return j, nil
}

func checkText(fields map[string]string, name, value string, max int, required bool) {
	switch {
	case required && value == "":
		fields[name] = "This field may not be blank."
	case utf8.RuneCountInString(value) > max:
		fields[name] = fmt.Sprintf("Ensure this field has no more than %d characters.", max)
	case hasControl(value, name == "description"):
		fields[name] = "This field may not contain control characters."
	}
}

// hasControl reports control characters in value. Titles end up in mail
// subjects, so only the free-text description may span lines.
func hasControl(value string, multiline bool) bool {
	return strings.IndexFunc(value, func(r rune) bool {
		if multiline && (r == '\n' || r == '\r' || r == '\t') {
			return false
		}
		return unicode.IsControl(r)
	}) >= 0
}

func normalizeLocation(loc *string) *string {
	if loc == nil {
		return nil
	}
	v := strings.TrimSpace(*loc)
	if v == "" {
		return nil
	}
	return &v
}

func contentChanged(old, next *domain.Job) bool {
	return old.Title != next.Title ||
		old.Description != next.Description ||
		derefString(old.Location) != derefString(next.Location)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func transitionMessage(from domain.JobStatus) string {
	switch from {
	case domain.JobStatusDraft:
		return "From 'Draft', you can only move to 'Open'."
	case domain.JobStatusOpen:
		return "From 'Open', you can only move to 'Closed'."
	case domain.JobStatusClosed:
		return "A 'Closed' job status cannot be changed."
	}
	return fmt.Sprintf("Unknown job status %q.", from)
}
