package notifier

import (
	"context"
	"fmt"
	"time"

	"newsbot/internal/domain/entity"
	"newsbot/internal/resilience/retry"
)

// DiscordConfig contains configuration for Discord webhook delivery.
type DiscordConfig struct {
	// Username overrides the webhook's bot name when set
	Username string

	// Timeout is the HTTP request timeout for Discord API calls
	Timeout time.Duration
}

// DefaultDiscordConfig returns a ten-second request timeout and the webhook's own name.
func DefaultDiscordConfig() DiscordConfig {
	return DiscordConfig{Timeout: 10 * time.Second}
}

// DiscordNotifier delivers batches to Discord webhooks as embeds.
type DiscordNotifier struct {
	config DiscordConfig
	client webhookClient
}

// NewDiscordNotifier creates a DiscordNotifier.
//
// Discord allows 30 webhook requests per minute; the limiter runs at
// 0.5 requests/second with a burst of 3.
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		config: config,
		client: newWebhookClient("discord", config.Timeout, 0.5, 3),
	}
}

// WithRetry replaces the retry policy.
func (d *DiscordNotifier) WithRetry(cfg retry.Config) *DiscordNotifier {
	d.client.retry = cfg
	return d
}

// DiscordWebhookPayload represents the JSON payload sent to Discord webhook.
type DiscordWebhookPayload struct {
	Content  string         `json:"content"`
	Username string         `json:"username,omitempty"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed represents a Discord embed message.
type DiscordEmbed struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	URL         string             `json:"url,omitempty"`
	Color       int                `json:"color"`
	Footer      DiscordEmbedFooter `json:"footer"`
	Timestamp   string             `json:"timestamp"`
}

// DiscordEmbedFooter represents the footer of a Discord embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	// Discord limits
	maxDiscordEmbedsPerMessage = 10
	maxTitleLength             = 256

	// Discord blue color (#5865F2)
	discordBlueColor = 5793266
)

// buildEmbedPayloads creates one message per ten articles, one embed per
// article: title linked to the article, description preview, source in the
// footer and the publish time as the embed timestamp.
func (d *DiscordNotifier) buildEmbedPayloads(topic entity.TopicConfig, articles []entity.Article) []DiscordWebhookPayload {
	parts := chunk(articles, maxDiscordEmbedsPerMessage)
	out := make([]DiscordWebhookPayload, 0, len(parts))

	for p, part := range parts {
		content := fmt.Sprintf("📰 %d new articles", len(articles))
		if topic.DisplayName != "" {
			content = fmt.Sprintf("%s %s · %s", topic.Emoji, topic.DisplayName, content)
		}
		if len(parts) > 1 {
			content = fmt.Sprintf("%s (%d/%d)", content, p+1, len(parts))
		}

		embeds := make([]DiscordEmbed, 0, len(part))
		for _, a := range part {
			embeds = append(embeds, DiscordEmbed{
				Title:       truncateRunes(a.Title, maxTitleLength),
				Description: preview(a.Description, descriptionPreviewRunes),
				URL:         a.Link,
				Color:       discordBlueColor,
				Footer:      DiscordEmbedFooter{Text: a.SourceID},
				Timestamp:   a.PublishedAt.UTC().Format(time.RFC3339),
			})
		}
		out = append(out, DiscordWebhookPayload{
			Content:  content,
			Username: d.config.Username,
			Embeds:   embeds,
		})
	}
	return out
}

// Deliver sends the batch to topic.Destination.
func (d *DiscordNotifier) Deliver(ctx context.Context, topic entity.TopicConfig, articles []entity.Article) error {
	if len(articles) == 0 {
		return nil
	}
	payloads := d.buildEmbedPayloads(topic, articles)
	msgs := make([]any, len(payloads))
	for i := range payloads {
		msgs[i] = payloads[i]
	}
	if err := d.client.send(ctx, topic.Destination, msgs); err != nil {
		return deliveryError("discord", err)
	}
	return nil
}

// OpenCircuits lists the Discord hosts currently rejected by the breaker.
func (n *DiscordNotifier) OpenCircuits() []string {
	return n.client.OpenCircuits()
}
