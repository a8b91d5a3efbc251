// Package notifier delivers topic batches to chat webhooks.
//
// SlackNotifier and DiscordNotifier each format a whole batch into one or
// more webhook messages. Router picks the notifier from the destination host
// and NoOp stands in for dry runs. All of them satisfy the run coordinator's
// Deliverer contract.
package notifier

import (
	"context"

	"newsbot/internal/domain/entity"
)

// Notifier delivers one topic's batch to the topic's destination.
//
// Implementations apply their own rate limiting and retry transient failures.
// Errors returned after all attempts wrap entity.ErrDelivery.
type Notifier interface {
	Deliver(ctx context.Context, topic entity.TopicConfig, articles []entity.Article) error
}
