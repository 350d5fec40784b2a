// Package store defines the persistence contracts the engines depend on.
// Backends: PostgreSQL (store/postgres) and in-process memory (store/memory).
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"jobmate/board-service/internal/domain"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint:
	// the user email, or the (applicant, job) pair of an application.
	ErrDuplicate = errors.New("store: duplicate")
	// ErrConflict is returned when a conditional write finds the row changed
	// since it was read.
	ErrConflict = errors.New("store: conflict")
)

// Users persists accounts.
type Users interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// ActivateUser marks the user verified and active.
	ActivateUser(ctx context.Context, id uuid.UUID) error
}

// Jobs persists postings. Reads fill Job.CompanyName from the owner.
type Jobs interface {
	CreateJob(ctx context.Context, j *domain.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	// UpdateJob writes j only while the stored status is still prev, and
	// fails with ErrConflict otherwise.
	UpdateJob(ctx context.Context, j *domain.Job, prev domain.JobStatus) error
	// DeleteJob removes the job and every application filed against it.
	DeleteJob(ctx context.Context, id uuid.UUID) error
	// ListJobs returns jobs in insertion order.
	ListJobs(ctx context.Context, q domain.JobQuery) (domain.List[domain.Job], error)
}

// Applications persists applications. Reads return the joined view.
type Applications interface {
	// CreateApplication fails with ErrDuplicate when the applicant already
	// applied to the job. This is the only duplicate check.
	CreateApplication(ctx context.Context, a *domain.Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus) (*domain.Application, error)
	ListJobApplications(ctx context.Context, q domain.JobApplicationsQuery) (domain.List[domain.Application], error)
	ListApplicantApplications(ctx context.Context, q domain.ApplicationQuery) (domain.List[domain.Application], error)
}

// Store is the aggregate a backend implements.
type Store interface {
	Users
	Jobs
	Applications

	// Migrate brings the schema up to date.
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
