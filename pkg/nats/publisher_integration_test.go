package nats

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/abgdnv/catalog/pkg/messaging/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
)

const natsImg = "nats:2.11.6-alpine"

func Test_NatsPublisher_Publish(t *testing.T) {
	if os.Getenv("CATALOG_SKIP_INTEGRATION_TESTS") != "" {
		t.Skip("Skipping integration tests")
	}
	ctx := context.Background()

	// given
	container, err := tcnats.Run(ctx, natsImg)
	require.NoError(t, err, "Failed to run NATS container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	nc, err := NewClient(url, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	js, err := NewJetStreamContext(nc)
	require.NoError(t, err)
	require.NoError(t, EnsureStream(ctx, js, "CATALOG", messaging.ProductSubjects))

	publisher := NewNatsPublisher(js)
	id := uuid.New()

	// when
	err = publisher.Publish(ctx, events.ProductDeletedEvent{ProductID: id, DeletedAt: time.Now()})

	// then
	require.NoError(t, err)
	stream, err := js.Stream(ctx, "CATALOG")
	require.NoError(t, err)
	msg, err := stream.GetLastMsgForSubject(ctx, messaging.ProductDeletedSubject)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Data), id.String())

	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.State.Msgs)
}
