package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobmate/board-service/internal/domain"
	"jobmate/board-service/internal/store"
)

var _ store.Store = (*Store)(nil)

type pairKey struct {
	applicant uuid.UUID
	job       uuid.UUID
}

type jobRecord struct {
	job domain.Job
	seq int64
}

// Store is a fully in-memory implementation of store.Store.
// Safe for concurrent access. Intended for tests and local development.
type Store struct {
	mu sync.RWMutex

	users        map[uuid.UUID]*domain.User
	emails       map[string]uuid.UUID
	jobs         map[uuid.UUID]*jobRecord
	applications map[uuid.UUID]*domain.Application
	pairs        map[pairKey]uuid.UUID

	seq int64
	now func() time.Time
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		users:        make(map[uuid.UUID]*domain.User),
		emails:       make(map[string]uuid.UUID),
		jobs:         make(map[uuid.UUID]*jobRecord),
		applications: make(map[uuid.UUID]*domain.Application),
		pairs:        make(map[pairKey]uuid.UUID),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

func (m *Store) Migrate(_ context.Context) error { return nil }

func (m *Store) Ping(_ context.Context) error { return nil }

func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Users
// ──────────────────────────────────────────────────

func (m *Store) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, taken := m.emails[email]; taken {
		return store.ErrDuplicate
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = m.now()
	}
	cp := *u
	m.users[u.ID] = &cp
	m.emails[email] = u.ID
	return nil
}

func (m *Store) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *Store) ActivateUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.IsVerified = true
	u.IsActive = true
	return nil
}

// ──────────────────────────────────────────────────
// Jobs
// ──────────────────────────────────────────────────

func (m *Store) CreateJob(_ context.Context, j *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[j.OwnerID]; !ok {
		return store.ErrNotFound
	}
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = m.now()
	}
	m.seq++
	rec := &jobRecord{job: *j, seq: m.seq}
	rec.job.ApplicationCount = nil
	m.jobs[j.ID] = rec
	j.CompanyName = m.users[j.OwnerID].Name
	return nil
}

func (m *Store) GetJob(_ context.Context, id uuid.UUID) (*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	j := m.jobView(rec, false)
	return &j, nil
}

func (m *Store) UpdateJob(_ context.Context, j *domain.Job, prev domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.jobs[j.ID]
	if !ok {
		return store.ErrNotFound
	}
	if rec.job.Status != prev {
		return store.ErrConflict
	}
	rec.job.Title = j.Title
	rec.job.Description = j.Description
	rec.job.Location = cloneString(j.Location)
	rec.job.Status = j.Status
	return nil
}

func (m *Store) DeleteJob(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.jobs, id)
	for appID, a := range m.applications {
		if a.JobID == id {
			delete(m.applications, appID)
			delete(m.pairs, pairKey{applicant: a.ApplicantID, job: id})
		}
	}
	return nil
}

func (m *Store) ListJobs(_ context.Context, q domain.JobQuery) (domain.List[domain.Job], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := make([]*jobRecord, 0, len(m.jobs))
	for _, rec := range m.jobs {
		j := &rec.job
		if q.OpenOnly && j.Status != domain.JobStatusOpen {
			continue
		}
		if q.OwnerID != nil && j.OwnerID != *q.OwnerID {
			continue
		}
		if q.Status != nil && j.Status != *q.Status {
			continue
		}
		if !containsFold(j.Title, q.Title) {
			continue
		}
		if q.Location != "" && (j.Location == nil || !containsFold(*j.Location, q.Location)) {
			continue
		}
		if !containsFold(m.users[j.OwnerID].Name, q.CompanyName) {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(a, b int) bool { return recs[a].seq < recs[b].seq })

	out := domain.List[domain.Job]{Total: len(recs), Page: q.Page, Items: make([]domain.Job, 0)}
	for _, rec := range paginate(recs, q.Page) {
		out.Items = append(out.Items, m.jobView(rec, q.WithCounts))
	}
	return out, nil
}

// jobView must be called with mu held.
func (m *Store) jobView(rec *jobRecord, withCount bool) domain.Job {
	j := rec.job
	j.Location = cloneString(rec.job.Location)
	if owner, ok := m.users[j.OwnerID]; ok {
		j.CompanyName = owner.Name
	}
	if withCount {
		n := 0
		for _, a := range m.applications {
			if a.JobID == j.ID {
				n++
			}
		}
		j.ApplicationCount = &n
	}
	return j
}

// ──────────────────────────────────────────────────
// Applications
// ──────────────────────────────────────────────────

func (m *Store) CreateApplication(_ context.Context, a *domain.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[a.JobID]; !ok {
		return store.ErrNotFound
	}
	key := pairKey{applicant: a.ApplicantID, job: a.JobID}
	if _, taken := m.pairs[key]; taken {
		return store.ErrDuplicate
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.AppliedAt.IsZero() {
		a.AppliedAt = m.now()
	}
	if a.Status == "" {
		a.Status = domain.ApplicationStatusApplied
	}
	cp := *a
	cp.CoverLetter = cloneString(a.CoverLetter)
	m.applications[a.ID] = &cp
	m.pairs[key] = a.ID
	*a = m.applicationView(&cp)
	return nil
}

func (m *Store) GetApplication(_ context.Context, id uuid.UUID) (*domain.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.applications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	v := m.applicationView(a)
	return &v, nil
}

func (m *Store) UpdateApplicationStatus(_ context.Context, id uuid.UUID, status domain.ApplicationStatus) (*domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.applications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	a.Status = status
	v := m.applicationView(a)
	return &v, nil
}

func (m *Store) ListJobApplications(_ context.Context, q domain.JobApplicationsQuery) (domain.List[domain.Application], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	views := make([]domain.Application, 0)
	for _, a := range m.applications {
		if a.JobID != q.JobID {
			continue
		}
		if q.Status != nil && a.Status != *q.Status {
			continue
		}
		views = append(views, m.applicationView(a))
	}
	sort.Slice(views, func(i, j int) bool {
		return lessByOrdering(views[i], views[j], domain.DefaultApplicationOrdering)
	})
	return domain.List[domain.Application]{Items: paginate(views, q.Page), Total: len(views), Page: q.Page}, nil
}

func (m *Store) ListApplicantApplications(_ context.Context, q domain.ApplicationQuery) (domain.List[domain.Application], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make(map[domain.ApplicationStatus]bool, len(q.Statuses))
	for _, s := range q.Statuses {
		statuses[s] = true
	}

	views := make([]domain.Application, 0)
	for _, a := range m.applications {
		if a.ApplicantID != q.ApplicantID {
			continue
		}
		if len(statuses) > 0 && !statuses[a.Status] {
			continue
		}
		v := m.applicationView(a)
		if q.JobStatus != nil && v.JobStatus != *q.JobStatus {
			continue
		}
		if !containsFold(v.CompanyName, q.CompanyName) {
			continue
		}
		views = append(views, v)
	}

	ordering := q.Ordering
	if len(ordering) == 0 {
		ordering = domain.DefaultApplicationOrdering
	}
	sort.SliceStable(views, func(i, j int) bool { return lessByOrdering(views[i], views[j], ordering) })
	return domain.List[domain.Application]{Items: paginate(views, q.Page), Total: len(views), Page: q.Page}, nil
}

// applicationView must be called with mu held.
func (m *Store) applicationView(a *domain.Application) domain.Application {
	v := *a
	v.CoverLetter = cloneString(a.CoverLetter)
	if applicant, ok := m.users[a.ApplicantID]; ok {
		v.ApplicantName = applicant.Name
		v.ApplicantEmail = applicant.Email
	}
	if rec, ok := m.jobs[a.JobID]; ok {
		v.JobTitle = rec.job.Title
		v.JobStatus = rec.job.Status
		v.JobOwnerID = rec.job.OwnerID
		if owner, ok := m.users[rec.job.OwnerID]; ok {
			v.CompanyName = owner.Name
			v.CompanyEmail = owner.Email
		}
	}
	return v
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func lessByOrdering(a, b domain.Application, ordering []domain.Ordering) bool {
	for _, o := range ordering {
		c := compareField(a, b, o.Field)
		if c == 0 {
			continue
		}
		if o.Desc {
			return c > 0
		}
		return c < 0
	}
	return a.ID.String() < b.ID.String()
}

func compareField(a, b domain.Application, f domain.OrderField) int {
	switch f {
	case domain.OrderAppliedAt:
		return a.AppliedAt.Compare(b.AppliedAt)
	case domain.OrderCompanyName:
		return strings.Compare(strings.ToLower(a.CompanyName), strings.ToLower(b.CompanyName))
	case domain.OrderStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	case domain.OrderJobTitle:
		return strings.Compare(strings.ToLower(a.JobTitle), strings.ToLower(b.JobTitle))
	}
	return 0
}

func paginate[T any](items []T, p domain.Page) []T {
	if p.Size <= 0 {
		return items
	}
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func containsFold(s, sub string) bool {
	return sub == "" || strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
