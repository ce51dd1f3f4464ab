package grpc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/pkg/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) GetFeatured(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	snapshot, _ := args.Get(0).([]byte)
	return snapshot, args.Error(1)
}

func (m *mockReader) ByCategory(ctx context.Context, category string) ([]service.ProductDto, error) {
	args := m.Called(ctx, category)
	list, _ := args.Get(0).([]service.ProductDto)
	return list, args.Error(1)
}

func (m *mockReader) SampleRecommended(ctx context.Context) ([]service.RecommendationDto, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]service.RecommendationDto)
	return list, args.Error(1)
}

// setupTestEnvironment starts the catalog gRPC server on an in-memory listener and returns a client for it.
func setupTestEnvironment(t *testing.T, reader CatalogReader) *Client {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lis := bufconn.Listen(1024 * 1024)
	grpcServer := server.NewGRPCServer(logger, false, Register(NewServer(reader, logger)))
	go func() {
		_ = grpcServer.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough://bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		grpcServer.Stop()
	})
	return NewClient(conn)
}

func Test_GetFeatured(t *testing.T) {
	testCases := []struct {
		name         string
		snapshot     []byte
		err          error
		expectedCode codes.Code
		expectedLen  int
	}{
		{
			name:         "Success - snapshot order preserved",
			snapshot:     []byte(`[{"id":"a","name":"First","price":1.5},{"id":"b","name":"Second","price":2}]`),
			expectedCode: codes.OK,
			expectedLen:  2,
		},
		{
			name:         "Error - no featured products",
			err:          catalogerrors.ErrNoFeaturedProducts,
			expectedCode: codes.NotFound,
		},
		{
			name:         "Error - cache unavailable",
			err:          fmt.Errorf("rebuild: %w", catalogerrors.ErrCacheUnavailable),
			expectedCode: codes.Unavailable,
		},
		{
			name:         "Error - store failure",
			err:          fmt.Errorf("%w: connection refused", catalogerrors.ErrStoreFailure),
			expectedCode: codes.Internal,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			reader := new(mockReader)
			reader.On("GetFeatured", mock.Anything).Return(tc.snapshot, tc.err)
			client := setupTestEnvironment(t, reader)

			// when
			list, err := client.GetFeatured(context.Background())

			// then
			assert.Equal(t, tc.expectedCode, status.Code(err))
			if tc.expectedCode != codes.OK {
				return
			}
			require.Len(t, list.GetValues(), tc.expectedLen)
			first := list.GetValues()[0].GetStructValue().GetFields()
			assert.Equal(t, "a", first["id"].GetStringValue())
			assert.InDelta(t, 1.5, first["price"].GetNumberValue(), 0.0001)
			assert.Equal(t, "b", list.GetValues()[1].GetStructValue().GetFields()["id"].GetStringValue())
		})
	}
}

func Test_ListByCategory(t *testing.T) {
	testCases := []struct {
		name         string
		category     string
		setup        func(m *mockReader)
		expectedCode codes.Code
		expectedLen  int
	}{
		{
			name:     "Success - products of category",
			category: "toys",
			setup: func(m *mockReader) {
				m.On("ByCategory", mock.Anything, "toys").Return([]service.ProductDto{
					{ID: "1", Name: "Ball", Price: "9.99", Category: "toys"},
				}, nil)
			},
			expectedCode: codes.OK,
			expectedLen:  1,
		},
		{
			name:     "Success - empty category",
			category: "none",
			setup: func(m *mockReader) {
				m.On("ByCategory", mock.Anything, "none").Return([]service.ProductDto{}, nil)
			},
			expectedCode: codes.OK,
		},
		{
			name:         "Error - missing category",
			setup:        func(m *mockReader) {},
			expectedCode: codes.InvalidArgument,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			reader := new(mockReader)
			tc.setup(reader)
			client := setupTestEnvironment(t, reader)

			// when
			list, err := client.ListByCategory(context.Background(), tc.category)

			// then
			reader.AssertExpectations(t)
			require.Equal(t, tc.expectedCode, status.Code(err))
			if tc.expectedCode == codes.OK {
				assert.Len(t, list.GetValues(), tc.expectedLen)
			}
		})
	}
}

func Test_ListRecommended(t *testing.T) {
	// given
	reader := new(mockReader)
	reader.On("SampleRecommended", mock.Anything).Return([]service.RecommendationDto{
		{ID: "1", Name: "Ball", Price: "3"},
		{ID: "2", Name: "Kite", Price: "4"},
	}, nil)
	client := setupTestEnvironment(t, reader)

	// when
	list, err := client.ListRecommended(context.Background())

	// then
	require.NoError(t, err)
	require.Len(t, list.GetValues(), 2)
	fields := list.GetValues()[1].GetStructValue().GetFields()
	assert.Equal(t, "Kite", fields["name"].GetStringValue())
	assert.NotContains(t, fields, "category")
}

func Test_ToStatus_Validation(t *testing.T) {
	s := NewServer(new(mockReader), slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := s.toStatus(context.Background(), "Test", &catalogerrors.ValidationError{Fields: map[string]string{"Name": "failed on rule: required"}})

	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
