package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/mindjournal-backend/internal/logger"
)

// recordingNotifier hands out subscriptions and keeps their contexts.
type recordingNotifier struct {
	mu   sync.Mutex
	subs []context.Context
}

func (n *recordingNotifier) Publish(context.Context, string) error { return nil }

func (n *recordingNotifier) Subscribe(ctx context.Context, _ string) (<-chan struct{}, error) {
	n.mu.Lock()
	n.subs = append(n.subs, ctx)
	n.mu.Unlock()
	return make(chan struct{}), nil
}

func TestMongoListen_ReleasesSubscriptionWhenInitialReadFails(t *testing.T) {
	opts := options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(50 * time.Millisecond)
	client, err := mongo.Connect(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	n := &recordingNotifier{}
	b := NewMongoBackend(client.Database("test"), n, nil, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err = b.Listen(ctx, "u1")
	require.Error(t, err)

	require.Len(t, n.subs, 1)
	select {
	case <-n.subs[0].Done():
	default:
		t.Fatal("subscription still open after the failed read")
	}
	assert.NoError(t, ctx.Err(), "caller context is untouched")
}
