package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/mindjournal-backend/internal/logger"
)

const entryChannelPrefix = "journal:entries:"

// Notifier broadcasts "something changed for this owner" between server
// instances. Signals carry no payload; listeners re-read the store.
type Notifier interface {
	Publish(ctx context.Context, ownerID string) error
	Subscribe(ctx context.Context, ownerID string) (<-chan struct{}, error)
}

// RedisNotifier implements Notifier with one Redis pub/sub channel per owner.
type RedisNotifier struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRedisNotifier(client *redis.Client, log *slog.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, log: log.With(logger.Component, "notifier")}
}

func (n *RedisNotifier) Publish(ctx context.Context, ownerID string) error {
	if err := n.client.Publish(ctx, entryChannelPrefix+ownerID, "changed").Err(); err != nil {
		return fmt.Errorf("publish change for %s: %w", ownerID, err)
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription, so a Publish
// issued afterwards is never missed. The channel closes when ctx is done or
// the subscription is torn down.
func (n *RedisNotifier) Subscribe(ctx context.Context, ownerID string) (<-chan struct{}, error) {
	pubsub := n.client.Subscribe(ctx, entryChannelPrefix+ownerID)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("%w: subscribe %s: %w", ErrUnavailable, ownerID, err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					n.log.Warn("change subscription closed", logger.OwnerID, ownerID)
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}
