package notifier

import (
	"context"
	"log/slog"

	"newsbot/internal/domain/entity"
	"newsbot/internal/observability/logging"
)

// NoOpNotifier logs batches instead of sending them. It backs --dry-run.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Deliver logs each article of the batch and returns nil.
func (n *NoOpNotifier) Deliver(ctx context.Context, topic entity.TopicConfig, articles []entity.Article) error {
	logger := logging.FromContext(ctx).With(slog.String("topic", string(topic.ID)))
	for _, a := range articles {
		logger.Info("dry run: would deliver",
			slog.String("title", a.Title),
			slog.String("link", a.Link),
			slog.String("source", a.SourceID),
			slog.Time("published_at", a.PublishedAt))
	}
	return nil
}
