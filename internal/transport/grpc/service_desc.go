package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName           = "catalog.v1.CatalogService"
	GetFeaturedMethod     = "/" + ServiceName + "/GetFeatured"
	ListByCategoryMethod  = "/" + ServiceName + "/ListByCategory"
	ListRecommendedMethod = "/" + ServiceName + "/ListRecommended"
)

// CatalogServer is the server API of catalog.v1.CatalogService.
type CatalogServer interface {
	GetFeatured(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	ListByCategory(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	ListRecommended(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
}

// ServiceDesc describes catalog.v1.CatalogService. Messages are protobuf well-known types.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetFeatured", Handler: getFeaturedHandler},
		{MethodName: "ListByCategory", Handler: listByCategoryHandler},
		{MethodName: "ListRecommended", Handler: listRecommendedHandler},
	},
	Streams: []grpc.StreamDesc{},
}

// Register returns a function that registers srv on a grpc server.
func Register(srv CatalogServer) func(*grpc.Server) {
	return func(s *grpc.Server) {
		s.RegisterService(&ServiceDesc, srv)
	}
}

func getFeaturedHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).GetFeatured(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetFeaturedMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).GetFeatured(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func listByCategoryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).ListByCategory(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListByCategoryMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).ListByCategory(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listRecommendedHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).ListRecommended(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListRecommendedMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).ListRecommended(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls catalog.v1.CatalogService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) GetFeatured(ctx context.Context, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, GetFeaturedMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListByCategory(ctx context.Context, category string, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, ListByCategoryMethod, wrapperspb.String(category), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListRecommended(ctx context.Context, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, ListRecommendedMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
