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

// jobRow is the dbr scan target for job listings.
type jobRow struct {
	ID               uuid.UUID `db:"id"`
	Title            string    `db:"title"`
	Description      string    `db:"description"`
	Location         *string   `db:"location"`
	Status           string    `db:"status"`
	OwnerID          uuid.UUID `db:"owner_id"`
	CreatedAt        time.Time `db:"created_at"`
	CompanyName      string    `db:"company_name"`
	ApplicationCount *int      `db:"application_count"`
}

func (r jobRow) toDomain() domain.Job {
	return domain.Job{
		ID:               r.ID,
		Title:            r.Title,
		Description:      r.Description,
		Location:         r.Location,
		Status:           domain.JobStatus(r.Status),
		OwnerID:          r.OwnerID,
		CreatedAt:        r.CreatedAt,
		CompanyName:      r.CompanyName,
		ApplicationCount: r.ApplicationCount,
	}
}

func (s *Store) CreateJob(ctx context.Context, j *domain.Job) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx,
		`WITH ins AS (
		   INSERT INTO jobs (id, title, description, location, status, owner_id)
		   VALUES ($1, $2, $3, $4, $5, $6)
		   RETURNING created_at, owner_id
		 )
		 SELECT ins.created_at, o.name FROM ins JOIN users o ON o.id = ins.owner_id`,
		j.ID, j.Title, j.Description, j.Location, string(j.Status), j.OwnerID,
	).Scan(&j.CreatedAt, &j.CompanyName)
	if err != nil {
		return mapWriteErr("createJob", err)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	var (
		j      domain.Job
		status string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT j.id, j.title, j.description, j.location, j.status, j.owner_id, j.created_at, o.name
		 FROM jobs j
		 JOIN users o ON o.id = j.owner_id
		 WHERE j.id = $1`,
		id,
	).Scan(&j.ID, &j.Title, &j.Description, &j.Location, &status, &j.OwnerID, &j.CreatedAt, &j.CompanyName)
	if isNoRows(err) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getJob: %w", err)
	}
	j.Status = domain.JobStatus(status)
	return &j, nil
}

func (s *Store) UpdateJob(ctx context.Context, j *domain.Job, prev domain.JobStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET title = $1, description = $2, location = $3, status = $4
		 WHERE id = $5 AND status = $6`,
		j.Title, j.Description, j.Location, string(j.Status), j.ID, string(prev),
	)
	if err != nil {
		return fmt.Errorf("updateJob: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1)`, j.ID).Scan(&exists); err != nil {
		return fmt.Errorf("updateJob: %w", err)
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

// DeleteJob relies on ON DELETE CASCADE for the job's applications.
func (s *Store) DeleteJob(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleteJob: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListJobs(ctx context.Context, q domain.JobQuery) (domain.List[domain.Job], error) {
	out := domain.List[domain.Job]{Page: q.Page, Items: make([]domain.Job, 0)}

	if err := filterJobs(s.sess.Select("COUNT(*)"), q).LoadOneContext(ctx, &out.Total); err != nil {
		return out, fmt.Errorf("listJobs count: %w", err)
	}

	columns := []string{
		"j.id", "j.title", "j.description", "j.location", "j.status",
		"j.owner_id", "j.created_at", "o.name AS company_name",
	}
	if q.WithCounts {
		columns = append(columns,
			"(SELECT COUNT(*) FROM applications c WHERE c.job_id = j.id) AS application_count")
	}

	stmt := filterJobs(s.sess.Select(columns...), q).OrderAsc("j.seq")
	if q.Page.Size > 0 {
		stmt = stmt.Limit(uint64(q.Page.Size)).Offset(uint64(q.Page.Offset()))
	}

	var rows []jobRow
	if _, err := stmt.LoadContext(ctx, &rows); err != nil {
		return out, fmt.Errorf("listJobs: %w", err)
	}
	for _, r := range rows {
		out.Items = append(out.Items, r.toDomain())
	}
	return out, nil
}

func filterJobs(stmt *dbr.SelectStmt, q domain.JobQuery) *dbr.SelectStmt {
	stmt = stmt.
		From(dbr.I("jobs").As("j")).
		Join(dbr.I("users").As("o"), "o.id = j.owner_id")

	if q.OpenOnly {
		stmt = stmt.Where("j.status = ?", string(domain.JobStatusOpen))
	}
	if q.OwnerID != nil {
		stmt = stmt.Where("j.owner_id = ?", q.OwnerID.String())
	}
	if q.Status != nil {
		stmt = stmt.Where("j.status = ?", string(*q.Status))
	}
	if q.Title != "" {
		stmt = stmt.Where("j.title ILIKE ?", likePattern(q.Title))
	}
	if q.Location != "" {
		stmt = stmt.Where("j.location ILIKE ?", likePattern(q.Location))
	}
	if q.CompanyName != "" {
		stmt = stmt.Where("o.name ILIKE ?", likePattern(q.CompanyName))
	}
	return stmt
}
