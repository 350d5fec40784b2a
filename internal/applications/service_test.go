package applications_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobmate/board-service/internal/apperr"
	"jobmate/board-service/internal/applications"
	"jobmate/board-service/internal/domain"
	"jobmate/board-service/internal/events"
	"jobmate/board-service/internal/notify"
	"jobmate/board-service/internal/store/memory"
)

type fakeStorage struct {
	calls atomic.Int32
	fail  bool
}

func (s *fakeStorage) Upload(_ context.Context, filename string, r io.Reader) (string, error) {
	s.calls.Add(1)
	if s.fail {
		return "", errors.New("cdn down")
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return "https://cdn.test/" + filename, nil
}

type outbox struct {
	mu   sync.Mutex
	msgs []notify.Message
	fail bool
}

func (o *outbox) Send(_ context.Context, msg notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail {
		return errors.New("queue down")
	}
	o.msgs = append(o.msgs, msg)
	return nil
}

func (o *outbox) sent() []notify.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]notify.Message(nil), o.msgs...)
}

type recorder struct {
	mu       sync.Mutex
	channels []string
}

func (r *recorder) Publish(_ context.Context, channel string, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, channel)
}

func (r *recorder) count(channel string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.channels {
		if c == channel {
			n++
		}
	}
	return n
}

type fixture struct {
	svc     *applications.Service
	store   *memory.Store
	storage *fakeStorage
	mail    *outbox
	events  *recorder

	acme *domain.User
	bob  *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   memory.New(),
		storage: &fakeStorage{},
		mail:    &outbox{},
		events:  &recorder{},
	}
	f.svc = applications.NewService(f.store, f.store, f.storage, f.mail, f.events, zap.NewNop(), 1024)
	f.acme = f.user(t, "Acme", domain.RoleCompany)
	f.bob = f.user(t, "Bob", domain.RoleApplicant)
	return f
}

func (f *fixture) user(t *testing.T, name string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{ID: uuid.New(), Email: strings.ToLower(name) + "@example.com", Name: name, Role: role, IsActive: true, IsVerified: true}
	if err := f.store.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func (f *fixture) job(t *testing.T, owner *domain.User, title string, status domain.JobStatus) *domain.Job {
	t.Helper()
	j := &domain.Job{ID: uuid.New(), Title: title, Description: "d", Status: status, OwnerID: owner.ID}
	if err := f.store.CreateJob(context.Background(), j); err != nil {
		t.Fatal(err)
	}
	return j
}

func resume(body string) *applications.Resume {
	return &applications.Resume{Filename: "cv.pdf", Size: int64(len(body)), Content: strings.NewReader(body)}
}

func ptr(s string) *string { return &s }

// ── Apply ───────────────────────────────────────────────────────────────────

func TestApply(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, f.acme, "Go Engineer", domain.JobStatusOpen)

	app, err := f.svc.Apply(context.Background(), f.bob, j.ID, resume("%PDF"), ptr("  Hire me. "))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if app.Status != domain.ApplicationStatusApplied || app.ResumeLink != "https://cdn.test/cv.pdf" {
		t.Errorf("application = %+v", app)
	}
	if app.CoverLetter == nil || *app.CoverLetter != "Hire me." {
		t.Errorf("cover letter = %v", app.CoverLetter)
	}

	sent := f.mail.sent()
	if len(sent) != 1 || sent[0].To != "acme@example.com" || sent[0].Subject != "New Application for Go Engineer" {
		t.Errorf("owner notification = %+v", sent)
	}
	if f.events.count(events.ApplicationCreated) != 1 {
		t.Error("expected one application created event")
	}
}

func TestApply_JobNotOpenBeforeRoleCheck(t *testing.T) {
	f := newFixture(t)
	draft := f.job(t, f.acme, "Draft", domain.JobStatusDraft)

	if _, err := f.svc.Apply(context.Background(), f.acme, draft.ID, resume("x"), nil); !errors.Is(err, apperr.ErrJobNotOpen) {
		t.Errorf("company Apply(draft) = %v, want job not open", err)
	}
	if _, err := f.svc.Apply(context.Background(), f.bob, uuid.New(), resume("x"), nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Apply(unknown job) = %v, want not found", err)
	}
}

func TestApply_CompanyForbidden(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, f.acme, "Go Engineer", domain.JobStatusOpen)

	if _, err := f.svc.Apply(context.Background(), f.acme, j.ID, resume("x"), nil); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("company Apply = %v, want authorization error", err)
	}
	if f.storage.calls.Load() != 0 {
		t.Error("nothing should be uploaded for a rejected caller")
	}
}

func TestApply_Validation(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, f.acme, "Go Engineer", domain.JobStatusOpen)
	ctx := context.Background()

	cases := []struct {
		name   string
		resume *applications.Resume
		cover  *string
		field  string
	}{
		{"missing resume", nil, nil, "resume"},
		{"empty resume", resume(""), nil, "resume"},
		{"oversized resume", resume(strings.Repeat("x", 2048)), nil, "resume"},
		{"long cover letter", resume("x"), ptr(strings.Repeat("a", domain.MaxCoverLetterLen+1)), "coverLetter"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := f.svc.Apply(ctx, f.bob, j.ID, c.resume, c.cover)
			e, ok := apperr.As(err)
			if !ok || e.Kind != apperr.KindValidation {
				t.Fatalf("Apply = %v, want validation error", err)
			}
			if _, ok := e.Fields[c.field]; !ok {
				t.Errorf("fields = %v, want %q", e.Fields, c.field)
			}
		})
	}
	if f.storage.calls.Load() != 0 {
		t.Error("invalid applications should not be uploaded")
	}
}

func TestApply_UploadFailurePersistsNothing(t *testing.T) {
	f := newFixture(t)
	f.storage.fail = true
	j := f.job(t, f.acme, "Go Engineer", domain.JobStatusOpen)
	ctx := context.Background()

	if _, err := f.svc.Apply(ctx, f.bob, j.ID, resume("x"), nil); !errors.Is(err, apperr.ErrUpload) {
		t.Fatalf("Apply = %v, want upload error", err)
	}
	got, err := f.store.ListJobApplications(ctx, domain.JobApplicationsQuery{JobID: j.ID})
	if err != nil || got.Total != 0 {
		t.Errorf("applications after failed upload = %d, %v", got.Total, err)
	}
}

func TestApply_NotificationFailureIsNonFatal(t *testing.T) {
	f := newFixture(t)
	f.mail.fail = true
	j := f.job(t, f.acme, "Go Engineer", domain.JobStatusOpen)

	if _, err := f.svc.Apply(context.Background(), f.bob, j.ID, resume("x"), nil); err != nil {
		t.Errorf("Apply with mail down = %v, want success", err)
	}
}

func TestApply_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, f.acme, "Go Engineer", domain.JobStatusOpen)

	var ok, dup atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := f.svc.Apply(context.Background(), f.bob, j.ID, resume("x"), nil)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, apperr.ErrDuplicateApplication):
				dup.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if ok.Load() != 1 || dup.Load() != 7 {
		t.Errorf("ok = %d, duplicates = %d; want 1 and 7", ok.Load(), dup.Load())
	}
}

// ── UpdateStatus ────────────────────────────────────────────────────────────

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.job(t, f.acme, "Go Engineer", domain.JobStatusOpen)
	app, err := f.svc.Apply(ctx, f.bob, j.ID, resume("x"), nil)
	if err != nil {
		t.Fatal(err)
	}
	before := len(f.mail.sent())

	got, err := f.svc.UpdateStatus(ctx, f.acme, app.ID, "Reviewed")
	if err != nil || got.Status != domain.ApplicationStatusReviewed {
		t.Fatalf("UpdateStatus(Reviewed) = %+v, %v", got, err)
	}
	if len(f.mail.sent()) != before {
		t.Error("Reviewed should not email the applicant")
	}

	if _, err := f.svc.UpdateStatus(ctx, f.acme, app.ID, "Hired"); err != nil {
		t.Fatal(err)
	}
	sent := f.mail.sent()
	if len(sent) != before+1 {
		t.Fatalf("expected a hired email, got %d messages", len(sent)-before)
	}
	last := sent[len(sent)-1]
	if last.To != "bob@example.com" || !strings.Contains(last.Body, "Acme") {
		t.Errorf("hired email = %+v", last)
	}

	if _, err := f.svc.UpdateStatus(ctx, f.acme, app.ID, "Hired"); err != nil {
		t.Fatal(err)
	}
	if len(f.mail.sent()) != before+1 {
		t.Error("re-asserting a status should not email again")
	}
	if f.events.count(events.ApplicationStatusChanged) != 2 {
		t.Errorf("status change events = %d, want 2", f.events.count(events.ApplicationStatusChanged))
	}

	// Any transition is allowed, including back to Applied.
	if _, err := f.svc.UpdateStatus(ctx, f.acme, app.ID, "Applied"); err != nil {
		t.Errorf("Hired -> Applied = %v", err)
	}
}

func TestUpdateStatus_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	globex := f.user(t, "Globex", domain.RoleCompany)
	j := f.job(t, f.acme, "Go Engineer", domain.JobStatusOpen)
	app, err := f.svc.Apply(ctx, f.bob, j.ID, resume("x"), nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.UpdateStatus(ctx, globex, app.ID, "Reviewed"); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("other company = %v, want authorization error", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.bob, app.ID, "Reviewed"); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("applicant = %v, want authorization error", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.acme, app.ID, "Ghosted"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("unknown status = %v, want validation error", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.acme, uuid.New(), "Reviewed"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown application = %v, want not found", err)
	}
}

// ── ListMine ────────────────────────────────────────────────────────────────

func TestListMine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	globex := f.user(t, "Globex", domain.RoleCompany)
	a := f.job(t, f.acme, "Backend", domain.JobStatusOpen)
	b := f.job(t, globex, "Frontend", domain.JobStatusOpen)
	for _, j := range []*domain.Job{a, b} {
		if _, err := f.svc.Apply(ctx, f.bob, j.ID, resume("x"), nil); err != nil {
			t.Fatal(err)
		}
	}

	q, err := applications.Filter{CompanyName: "glob", Page: domain.NewPage(1, 10)}.Query()
	if err != nil {
		t.Fatal(err)
	}
	got, err := f.svc.ListMine(ctx, f.bob, q)
	if err != nil || got.Total != 1 || got.Items[0].JobTitle != "Frontend" {
		t.Fatalf("ListMine(company=glob) = %+v, %v", got, err)
	}

	q, _ = applications.Filter{Ordering: "jobTitle", Page: domain.NewPage(1, 10)}.Query()
	got, _ = f.svc.ListMine(ctx, f.bob, q)
	if got.Total != 2 || got.Items[0].JobTitle != "Backend" || got.Items[1].JobTitle != "Frontend" {
		t.Errorf("ordered by jobTitle = %+v", got.Items)
	}

	if _, err := f.svc.ListMine(ctx, f.acme, q); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("company ListMine = %v, want authorization error", err)
	}
}

func TestFilter_Query(t *testing.T) {
	q, err := applications.Filter{
		JobStatus: "open",
		Statuses:  []string{"Applied,Hired", "Reviewed"},
		Ordering:  "-companyName,appliedAt",
	}.Query()
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if q.JobStatus == nil || *q.JobStatus != domain.JobStatusOpen {
		t.Errorf("job status = %v", q.JobStatus)
	}
	if len(q.Statuses) != 3 {
		t.Errorf("statuses = %v", q.Statuses)
	}
	if len(q.Ordering) != 2 || !q.Ordering[0].Desc || q.Ordering[0].Field != domain.OrderCompanyName {
		t.Errorf("ordering = %+v", q.Ordering)
	}

	_, err = applications.Filter{Ordering: "salary", Statuses: []string{"Ghosted"}}.Query()
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindValidation {
		t.Fatalf("Query = %v, want validation error", err)
	}
	for _, field := range []string{"ordering", "status"} {
		if _, ok := e.Fields[field]; !ok {
			t.Errorf("missing %q in %v", field, e.Fields)
		}
	}
}
