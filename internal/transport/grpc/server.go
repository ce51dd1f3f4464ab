// Package grpc exposes the read side of the catalog to internal callers over gRPC.
package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// CatalogReader is the subset of the catalog service served over gRPC.
type CatalogReader interface {
	GetFeatured(ctx context.Context) ([]byte, error)
	ByCategory(ctx context.Context, category string) ([]service.ProductDto, error)
	SampleRecommended(ctx context.Context) ([]service.RecommendationDto, error)
}

type Server struct {
	service CatalogReader
	logger  *slog.Logger
}

func NewServer(service CatalogReader, logger *slog.Logger) *Server {
	return &Server{service: service, logger: logger.With("component", "grpc")}
}

// GetFeatured returns the featured snapshot. The snapshot is decoded as is, so the order is preserved.
func (s *Server) GetFeatured(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	snapshot, err := s.service.GetFeatured(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, "GetFeatured", err)
	}
	list := &structpb.ListValue{}
	if err := protojson.Unmarshal(snapshot, list); err != nil {
		s.logger.ErrorContext(ctx, "featured snapshot is not a JSON array", "error", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return list, nil
}

func (s *Server) ListByCategory(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "category must not be empty")
	}
	products, err := s.service.ByCategory(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, "ListByCategory", err)
	}
	return s.toList(ctx, products)
}

func (s *Server) ListRecommended(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	sample, err := s.service.SampleRecommended(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, "ListRecommended", err)
	}
	return s.toList(ctx, sample)
}

// toList converts v to a ListValue through its JSON form, keeping the REST field names.
func (s *Server) toList(ctx context.Context, v any) (*structpb.ListValue, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode response", "error", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}
	list := &structpb.ListValue{}
	if err := protojson.Unmarshal(raw, list); err != nil {
		s.logger.ErrorContext(ctx, "failed to convert response", "error", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return list, nil
}

func (s *Server) toStatus(ctx context.Context, method string, err error) error {
	var validationErr *catalogerrors.ValidationError
	if errors.As(err, &validationErr) {
		return status.Error(codes.InvalidArgument, validationErr.Error())
	}
	switch catalogerrors.KindOf(err) {
	case catalogerrors.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case catalogerrors.KindValidationFailed:
		return status.Error(codes.InvalidArgument, err.Error())
	case catalogerrors.KindCacheUnavailable:
		s.logger.WarnContext(ctx, method+" failed", "error", err)
		return status.Error(codes.Unavailable, "featured cache unavailable")
	default:
		s.logger.ErrorContext(ctx, method+" failed", "error", err)
		return status.Error(codes.Internal, "internal server error")
	}
}
