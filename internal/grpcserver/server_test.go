package grpcserver_test

import (
	"context"
	"net"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"jobmate/board-service/internal/apperr"
	"jobmate/board-service/internal/applications"
	"jobmate/board-service/internal/domain"
	"jobmate/board-service/internal/events"
	"jobmate/board-service/internal/grpcserver"
	"jobmate/board-service/internal/jobs"
	"jobmate/board-service/internal/notify"
	"jobmate/board-service/internal/store/memory"
)

// users resolves callers straight from the store.
type users struct{ st *memory.Store }

func (u users) UserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	usr, err := u.st.GetUserByID(ctx, id)
	if err != nil {
		return nil, apperr.Unauthenticated("User not found.", err)
	}
	return usr, nil
}

type nopMail struct{}

func (nopMail) Send(context.Context, notify.Message) error { return nil }

type fixture struct {
	client *grpcserver.Client
	store  *memory.Store
	acme   *domain.User
	bob    *domain.User
	open   *domain.Job
	draft  *domain.Job
	app    *domain.Application
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	logger := zap.NewNop()

	srv := grpcserver.NewGRPCServer(grpcserver.NewServer(
		jobs.NewService(st, st, events.Discard{}, logger),
		applications.NewService(st, st, nil, nopMail{}, events.Discard{}, logger, 1<<20),
		users{st},
		logger,
	))
	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	f := &fixture{client: grpcserver.NewClient(conn), store: st}
	f.acme = &domain.User{ID: uuid.New(), Email: "acme@example.com", Name: "Acme", Role: domain.RoleCompany, IsActive: true}
	f.bob = &domain.User{ID: uuid.New(), Email: "bob@example.com", Name: "Bob", Role: domain.RoleApplicant, IsActive: true}
	for _, u := range []*domain.User{f.acme, f.bob} {
		if err := st.CreateUser(ctx, u); err != nil {
			t.Fatal(err)
		}
	}
	f.open = &domain.Job{ID: uuid.New(), Title: "Go Engineer", Description: "d", Status: domain.JobStatusOpen, OwnerID: f.acme.ID}
	f.draft = &domain.Job{ID: uuid.New(), Title: "Draft", Description: "d", Status: domain.JobStatusDraft, OwnerID: f.acme.ID}
	for _, j := range []*domain.Job{f.open, f.draft} {
		if err := st.CreateJob(ctx, j); err != nil {
			t.Fatal(err)
		}
	}
	f.app = &domain.Application{ApplicantID: f.bob.ID, JobID: f.open.ID, ResumeLink: "https://cdn.test/cv.pdf"}
	if err := st.CreateApplication(ctx, f.app); err != nil {
		t.Fatal(err)
	}
	return f
}

func as(u *domain.User) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "x-user-id", u.ID.String())
}

func TestListJobs_Visibility(t *testing.T) {
	f := newFixture(t)

	anon, err := f.client.ListJobs(context.Background(), &grpcserver.ListJobsRequest{})
	if err != nil {
		t.Fatalf("anonymous ListJobs: %v", err)
	}
	if anon.Total != 1 || anon.Jobs[0].Title != "Go Engineer" || anon.Jobs[0].CreatedAt == nil {
		t.Errorf("anonymous ListJobs = %+v", anon)
	}

	applicant, err := f.client.ListJobs(as(f.bob), &grpcserver.ListJobsRequest{})
	if err != nil {
		t.Fatalf("applicant ListJobs: %v", err)
	}
	if applicant.Total != 1 || applicant.Jobs[0].Status != "Open" {
		t.Errorf("applicant ListJobs = %+v", applicant)
	}

	company, err := f.client.ListJobs(as(f.acme), &grpcserver.ListJobsRequest{PageSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	if company.Total != 2 || len(company.Jobs) != 1 || company.PageSize != 1 {
		t.Errorf("company ListJobs = %+v", company)
	}

	_, err = f.client.ListJobs(context.Background(), &grpcserver.ListJobsRequest{Status: "archived"})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("bad status filter = %v, want InvalidArgument", err)
	}
}

func TestGetJob(t *testing.T) {
	f := newFixture(t)

	got, err := f.client.GetJob(as(f.bob), &grpcserver.GetJobRequest{JobID: f.open.ID.String()})
	if err != nil || got.CompanyName != "Acme" {
		t.Fatalf("GetJob = %+v, %v", got, err)
	}
	_, err = f.client.GetJob(as(f.bob), &grpcserver.GetJobRequest{JobID: f.draft.ID.String()})
	if status.Code(err) != codes.NotFound {
		t.Errorf("applicant GetJob(draft) = %v, want NotFound", err)
	}
	_, err = f.client.GetJob(context.Background(), &grpcserver.GetJobRequest{JobID: "nope"})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("GetJob(nope) = %v, want InvalidArgument", err)
	}
}

func TestListMyApplications(t *testing.T) {
	f := newFixture(t)

	got, err := f.client.ListMyApplications(as(f.bob), &grpcserver.ListMyApplicationsRequest{Ordering: "-appliedAt"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Total != 1 || got.Applications[0].JobTitle != "Go Engineer" || got.Applications[0].Status != "Applied" {
		t.Errorf("ListMyApplications = %+v", got)
	}

	_, err = f.client.ListMyApplications(context.Background(), &grpcserver.ListMyApplicationsRequest{})
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("without x-user-id = %v, want Unauthenticated", err)
	}
	_, err = f.client.ListMyApplications(as(f.acme), &grpcserver.ListMyApplicationsRequest{})
	if status.Code(err) != codes.PermissionDenied {
		t.Errorf("company caller = %v, want PermissionDenied", err)
	}
	_, err = f.client.ListMyApplications(as(f.bob), &grpcserver.ListMyApplicationsRequest{Ordering: "salary"})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("unknown ordering = %v, want InvalidArgument", err)
	}
}

func TestUpdateApplicationStatus(t *testing.T) {
	f := newFixture(t)

	got, err := f.client.UpdateApplicationStatus(as(f.acme), &grpcserver.UpdateApplicationStatusRequest{
		ApplicationID: f.app.ID.String(),
		Status:        "Interview",
	})
	if err != nil || got.Status != "Interview" {
		t.Fatalf("UpdateApplicationStatus = %+v, %v", got, err)
	}

	_, err = f.client.UpdateApplicationStatus(as(f.bob), &grpcserver.UpdateApplicationStatusRequest{
		ApplicationID: f.app.ID.String(),
		Status:        "Hired",
	})
	if status.Code(err) != codes.PermissionDenied {
		t.Errorf("applicant caller = %v, want PermissionDenied", err)
	}

	_, err = f.client.UpdateApplicationStatus(as(f.acme), &grpcserver.UpdateApplicationStatusRequest{
		ApplicationID: uuid.NewString(),
		Status:        "Hired",
	})
	if status.Code(err) != codes.NotFound {
		t.Errorf("unknown application = %v, want NotFound", err)
	}
}

func TestUnknownCaller(t *testing.T) {
	f := newFixture(t)

	ghost := &domain.User{ID: uuid.New()}
	_, err := f.client.ListJobs(as(ghost), &grpcserver.ListJobsRequest{})
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("unknown x-user-id = %v", err)
	}
}
