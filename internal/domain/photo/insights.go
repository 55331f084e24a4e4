package photo

import (
	"context"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CreatedChannel carries wake-ups for the insights worker. Polling stays
// the main mechanism; a lost message only delays analysis.
const CreatedChannel = "photos:created"

// Notifier announces photos that still need analysis.
type Notifier interface {
	PhotoCreated(ctx context.Context, id uuid.UUID)
}

// RedisNotifier publishes wake-ups over Redis pub/sub.
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier returns a notifier; a nil client makes it a no-op.
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) PhotoCreated(ctx context.Context, id uuid.UUID) {
	if n == nil || n.client == nil {
		return
	}
	if err := n.client.Publish(ctx, CreatedChannel, id.String()).Err(); err != nil {
		log.Warn().Err(err).Str("photo_id", id.String()).Msg("Failed to publish insights wake-up")
	}
}

// SubscribeCreated forwards wake-ups to wake until ctx is done. Sends never
// block; one pending wake-up is enough.
func SubscribeCreated(ctx context.Context, client *redis.Client, wake chan<- struct{}) {
	if client == nil {
		return
	}
	sub := client.Subscribe(ctx, CreatedChannel)
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}
}
