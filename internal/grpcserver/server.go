// Package grpcserver implements the BoardService gRPC server.
//
// It delegates all business logic to the jobs and applications engines and
// handles only the gRPC transport concerns: metadata extraction, error
// mapping, and type conversion between the domain model and wire messages.
// Messages are JSON encoded (see Codec).
package grpcserver

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"jobmate/board-service/internal/apperr"
	"jobmate/board-service/internal/applications"
	"jobmate/board-service/internal/domain"
	"jobmate/board-service/internal/jobs"
)

// Users resolves the caller forwarded by the gateway.
type Users interface {
	UserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Server implements BoardServiceServer.
type Server struct {
	jobs   *jobs.Service
	apps   *applications.Service
	users  Users
	logger *zap.Logger
}

// NewServer constructs a gRPC Server backed by the engines.
func NewServer(jobsSvc *jobs.Service, apps *applications.Service, users Users, logger *zap.Logger) *Server {
	return &Server{jobs: jobsSvc, apps: apps, users: users, logger: logger}
}

// NewGRPCServer builds a *grpc.Server with s registered and the JSON codec
// forced.
func NewGRPCServer(s *Server) *grpc.Server {
	g := grpc.NewServer(
		grpc.ForceServerCodec(Codec()),
		grpc.ChainUnaryInterceptor(s.logUnary),
	)
	g.RegisterService(&ServiceDesc, s)
	return g
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// ListJobs browses jobs. The caller is optional: anonymous callers see Open
// jobs only.
func (s *Server) ListJobs(ctx context.Context, req *ListJobsRequest) (*ListJobsResponse, error) {
	caller, err := s.callerFromCtx(ctx, false)
	if err != nil {
		return nil, err
	}

	q := domain.JobQuery{
		Title:       req.Title,
		Location:    req.Location,
		CompanyName: req.CompanyName,
		Page:        domain.NewPage(int(req.Page), int(req.PageSize)),
	}
	if req.Status != "" {
		st, err := domain.ParseJobStatusFold(req.Status)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		q.Status = &st
	}

	list, err := s.jobs.List(ctx, caller, q)
	if err != nil {
		return nil, s.toGRPCError(err)
	}

	protos := make([]*JobProto, 0, len(list.Items))
	for i := range list.Items {
		protos = append(protos, jobToProto(&list.Items[i]))
	}
	return &ListJobsResponse{
		Jobs:     protos,
		Total:    int32(list.Total),
		Page:     int32(list.Page.Number),
		PageSize: int32(list.Page.Size),
	}, nil
}

// GetJob returns one job, subject to the same visibility rule as ListJobs.
func (s *Server) GetJob(ctx context.Context, req *GetJobRequest) (*JobProto, error) {
	caller, err := s.callerFromCtx(ctx, false)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(req.JobID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "jobId must be a UUID")
	}

	j, err := s.jobs.Get(ctx, caller, id)
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	return jobToProto(j), nil
}

// ListMyApplications lists the calling applicant's applications.
func (s *Server) ListMyApplications(ctx context.Context, req *ListMyApplicationsRequest) (*ListApplicationsResponse, error) {
	caller, err := s.callerFromCtx(ctx, true)
	if err != nil {
		return nil, err
	}

	q, err := applications.Filter{
		CompanyName: req.CompanyName,
		JobStatus:   req.JobStatus,
		Statuses:    req.Statuses,
		Ordering:    req.Ordering,
		Page:        domain.NewPage(int(req.Page), int(req.PageSize)),
	}.Query()
	if err != nil {
		return nil, s.toGRPCError(err)
	}

	list, err := s.apps.ListMine(ctx, caller, q)
	if err != nil {
		return nil, s.toGRPCError(err)
	}

	protos := make([]*ApplicationProto, 0, len(list.Items))
	for i := range list.Items {
		protos = append(protos, appToProto(&list.Items[i]))
	}
	return &ListApplicationsResponse{
		Applications: protos,
		Total:        int32(list.Total),
		Page:         int32(list.Page.Number),
		PageSize:     int32(list.Page.Size),
	}, nil
}

// UpdateApplicationStatus sets the status of an application to a job the
// calling company owns.
func (s *Server) UpdateApplicationStatus(ctx context.Context, req *UpdateApplicationStatusRequest) (*ApplicationProto, error) {
	caller, err := s.callerFromCtx(ctx, true)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(req.ApplicationID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "applicationId must be a UUID")
	}

	app, err := s.apps.UpdateStatus(ctx, caller, id, req.Status)
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	return appToProto(app), nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// callerFromCtx resolves the x-user-id value forwarded by the Gateway via
// gRPC metadata. When required is false a missing header means anonymous.
func (s *Server) callerFromCtx(ctx context.Context, required bool) (*domain.User, error) {
	var raw string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-user-id"); len(vals) > 0 {
			raw = vals[0]
		}
	}
	if raw == "" {
		if required {
			return nil, status.Error(codes.Unauthenticated, "missing x-user-id metadata")
		}
		return nil, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "malformed x-user-id metadata")
	}
	u, err := s.users.UserByID(ctx, id)
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	return u, nil
}

// toGRPCError maps domain errors to gRPC status errors.
func (s *Server) toGRPCError(err error) error {
	kind := apperr.KindOf(err)
	msg := apperr.PublicMessage(err)

	switch kind {
	case apperr.KindValidation, apperr.KindInvalidTransition,
		apperr.KindDuplicateApplication, apperr.KindJobNotOpen:
		return status.Error(codes.InvalidArgument, msg)
	case apperr.KindAuthorization:
		return status.Error(codes.PermissionDenied, msg)
	case apperr.KindNotFound:
		return status.Error(codes.NotFound, msg)
	case apperr.KindUnauthenticated:
		return status.Error(codes.Unauthenticated, msg)
	case apperr.KindUpload, apperr.KindDependency:
		return status.Error(codes.Unavailable, msg)
	}
	s.logger.Error("grpc request failed", zap.Error(err))
	return status.Error(codes.Internal, "internal server error")
}

func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Info("grpc request",
		zap.String("method", info.FullMethod),
		zap.String("code", status.Code(err).String()),
		zap.Duration("duration", time.Since(start)))
	return resp, err
}
