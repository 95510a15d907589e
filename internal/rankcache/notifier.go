// Package rankcache signals the external ranking cache to refresh after
// an analysis lands. Notification is strictly fire-and-forget: a lost
// signal means a stale leaderboard until its next scheduled refresh,
// never a failed pipeline run.
package rankcache

import (
	"context"
	"time"

	"github.com/minsu/vericlip/internal/logger"
	"github.com/redis/go-redis/v9"
)

const publishTimeout = 3 * time.Second

// RedisNotifier publishes category refresh signals over Redis pub/sub.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	log     *logger.Logger
}

// NewRedisNotifier creates a notifier publishing on the given channel.
// Parameters:
//   - client: connected Redis client.
//   - channel: pub/sub channel the ranking service listens on.
//   - log: logger for publish failures.
// Returns:
//   - *RedisNotifier: notifier instance.
func NewRedisNotifier(client *redis.Client, channel string, log *logger.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel, log: log}
}

// NotifyCategory signals that the ranking for a category should refresh.
// Runs in its own goroutine with its own deadline; the caller never
// waits and never sees an error.
func (n *RedisNotifier) NotifyCategory(categoryID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := n.client.Publish(ctx, n.channel, categoryID).Err(); err != nil {
			n.log.WithField("category_id", categoryID).WithError(err).
				Warn("Ranking cache refresh signal failed")
		}
	}()
}
