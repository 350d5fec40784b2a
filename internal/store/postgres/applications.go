package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/gocraft/dbr/v2"
	"github.com/google/uuid"

	"jobmate/board-service/internal/domain"
	"jobmate/board-service/internal/store"
)

// appRow is the joined application view.
type appRow struct {
	ID             uuid.UUID `db:"id"`
	ApplicantID    uuid.UUID `db:"applicant_id"`
	JobID          uuid.UUID `db:"job_id"`
	ResumeLink     string    `db:"resume_link"`
	CoverLetter    *string   `db:"cover_letter"`
	Status         string    `db:"status"`
	AppliedAt      time.Time `db:"applied_at"`
	ApplicantName  string    `db:"applicant_name"`
	ApplicantEmail string    `db:"applicant_email"`
	JobTitle       string    `db:"job_title"`
	JobStatus      string    `db:"job_status"`
	JobOwnerID     uuid.UUID `db:"job_owner_id"`
	CompanyName    string    `db:"company_name"`
	CompanyEmail   string    `db:"company_email"`
}

func (r appRow) toDomain() domain.Application {
	return domain.Application{
		ID:             r.ID,
		ApplicantID:    r.ApplicantID,
		JobID:          r.JobID,
		ResumeLink:     r.ResumeLink,
		CoverLetter:    r.CoverLetter,
		Status:         domain.ApplicationStatus(r.Status),
		AppliedAt:      r.AppliedAt,
		ApplicantName:  r.ApplicantName,
		ApplicantEmail: r.ApplicantEmail,
		JobTitle:       r.JobTitle,
		JobStatus:      domain.JobStatus(r.JobStatus),
		JobOwnerID:     r.JobOwnerID,
		CompanyName:    r.CompanyName,
		CompanyEmail:   r.CompanyEmail,
	}
}

var appColumns = []string{
	"a.id", "a.applicant_id", "a.job_id", "a.resume_link", "a.cover_letter",
	"a.status", "a.applied_at",
	"p.name AS applicant_name", "p.email AS applicant_email",
	"j.title AS job_title", "j.status AS job_status", "j.owner_id AS job_owner_id",
	"o.name AS company_name", "o.email AS company_email",
}

func appsFrom(stmt *dbr.SelectStmt) *dbr.SelectStmt {
	return stmt.
		From(dbr.I("applications").As("a")).
		Join(dbr.I("jobs").As("j"), "j.id = a.job_id").
		Join(dbr.I("users").As("p"), "p.id = a.applicant_id").
		Join(dbr.I("users").As("o"), "o.id = j.owner_id")
}

// CreateApplication inserts the row and fills a with the joined view. The
// applications_applicant_job_key constraint turns a concurrent second
// insert into store.ErrDuplicate.
func (s *Store) CreateApplication(ctx context.Context, a *domain.Application) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = domain.ApplicationStatusApplied
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO applications (id, applicant_id, job_id, resume_link, cover_letter, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.ApplicantID, a.JobID, a.ResumeLink, a.CoverLetter, string(a.Status),
	)
	if err != nil {
		return mapWriteErr("createApplication", err)
	}

	view, err := s.GetApplication(ctx, a.ID)
	if err != nil {
		return err
	}
	*a = *view
	return nil
}

func (s *Store) GetApplication(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	var row appRow
	err := appsFrom(s.sess.Select(appColumns...)).
		Where("a.id = ?", id.String()).
		LoadOneContext(ctx, &row)
	if err == dbr.ErrNotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getApplication: %w", err)
	}
	a := row.toDomain()
	return &a, nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus) (*domain.Application, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE applications SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return nil, fmt.Errorf("updateApplicationStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetApplication(ctx, id)
}

func (s *Store) ListJobApplications(ctx context.Context, q domain.JobApplicationsQuery) (domain.List[domain.Application], error) {
	filter := func(stmt *dbr.SelectStmt) *dbr.SelectStmt {
		stmt = appsFrom(stmt).Where("a.job_id = ?", q.JobID.String())
		if q.Status != nil {
			stmt = stmt.Where("a.status = ?", string(*q.Status))
		}
		return stmt
	}
	return s.listApplications(ctx, filter, domain.DefaultApplicationOrdering, q.Page)
}

func (s *Store) ListApplicantApplications(ctx context.Context, q domain.ApplicationQuery) (domain.List[domain.Application], error) {
	filter := func(stmt *dbr.SelectStmt) *dbr.SelectStmt {
		stmt = appsFrom(stmt).Where("a.applicant_id = ?", q.ApplicantID.String())
		if q.CompanyName != "" {
			stmt = stmt.Where("o.name ILIKE ?", likePattern(q.CompanyName))
		}
		if q.JobStatus != nil {
			stmt = stmt.Where("j.status = ?", string(*q.JobStatus))
		}
		if len(q.Statuses) > 0 {
			statuses := make([]string, 0, len(q.Statuses))
			for _, st := range q.Statuses {
				statuses = append(statuses, string(st))
			}
			stmt = stmt.Where("a.status IN ?", statuses)
		}
		return stmt
	}
	ordering := q.Ordering
	if len(ordering) == 0 {
		ordering = domain.DefaultApplicationOrdering
	}
	return s.listApplications(ctx, filter, ordering, q.Page)
}

func (s *Store) listApplications(
	ctx context.Context,
	filter func(*dbr.SelectStmt) *dbr.SelectStmt,
	ordering []domain.Ordering,
	page domain.Page,
) (domain.List[domain.Application], error) {
	out := domain.List[domain.Application]{Page: page, Items: make([]domain.Application, 0)}

	if err := filter(s.sess.Select("COUNT(*)")).LoadOneContext(ctx, &out.Total); err != nil {
		return out, fmt.Errorf("listApplications count: %w", err)
	}

	stmt := filter(s.sess.Select(appColumns...))
	for _, o := range ordering {
		col, ok := orderColumns[o.Field]
		if !ok {
			continue
		}
		stmt = stmt.OrderDir(col, !o.Desc)
	}
	stmt = stmt.OrderAsc("a.id")
	if page.Size > 0 {
		stmt = stmt.Limit(uint64(page.Size)).Offset(uint64(page.Offset()))
	}

	var rows []appRow
	if _, err := stmt.LoadContext(ctx, &rows); err != nil {
		return out, fmt.Errorf("listApplications: %w", err)
	}
	for _, r := range rows {
		out.Items = append(out.Items, r.toDomain())
	}
	return out, nil
}
