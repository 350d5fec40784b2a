package grpcserver

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified BoardService name.
const ServiceName = "jobboard.v1.BoardService"

// BoardServiceServer is the server API for BoardService.
type BoardServiceServer interface {
	ListJobs(context.Context, *ListJobsRequest) (*ListJobsResponse, error)
	GetJob(context.Context, *GetJobRequest) (*JobProto, error)
	ListMyApplications(context.Context, *ListMyApplicationsRequest) (*ListApplicationsResponse, error)
	UpdateApplicationStatus(context.Context, *UpdateApplicationStatusRequest) (*ApplicationProto, error)
}

var _ BoardServiceServer = (*Server)(nil)

// unary adapts a typed method to grpc.MethodDesc's handler signature.
func unary[Req any, Resp any](name string, call func(BoardServiceServer, context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BoardServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BoardServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc is the grpc.ServiceDesc for BoardService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BoardServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListJobs", BoardServiceServer.ListJobs),
		unary("GetJob", BoardServiceServer.GetJob),
		unary("ListMyApplications", BoardServiceServer.ListMyApplications),
		unary("UpdateApplicationStatus", BoardServiceServer.UpdateApplicationStatus),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jobboard/v1/board.proto",
}

// Client is a BoardService client for callers sharing this package's
// message types, such as the gateway.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec())}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

func (c *Client) ListJobs(ctx context.Context, in *ListJobsRequest, opts ...grpc.CallOption) (*ListJobsResponse, error) {
	out := new(ListJobsResponse)
	if err := c.invoke(ctx, "ListJobs", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetJob(ctx context.Context, in *GetJobRequest, opts ...grpc.CallOption) (*JobProto, error) {
	out := new(JobProto)
	if err := c.invoke(ctx, "GetJob", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListMyApplications(ctx context.Context, in *ListMyApplicationsRequest, opts ...grpc.CallOption) (*ListApplicationsResponse, error) {
	out := new(ListApplicationsResponse)
	if err := c.invoke(ctx, "ListMyApplications", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateApplicationStatus(ctx context.Context, in *UpdateApplicationStatusRequest, opts ...grpc.CallOption) (*ApplicationProto, error) {
	out := new(ApplicationProto)
	if err := c.invoke(ctx, "UpdateApplicationStatus", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
