package notifier

import (
	"context"
	"fmt"
	"time"

	"newsbot/internal/domain/entity"
	"newsbot/internal/resilience/retry"
)

// SlackConfig contains configuration for Slack webhook delivery.
type SlackConfig struct {
	// Username and IconEmoji override the webhook's bot identity when set
	Username  string
	IconEmoji string

	// ReadLabel is the text of each article's button
	ReadLabel string

	// Timeout is the HTTP request timeout for Slack API calls
	Timeout time.Duration
}

// DefaultSlackConfig returns the newsbot identity with a ten second timeout.
func DefaultSlackConfig() SlackConfig {
	return SlackConfig{
		Username:  "newsbot",
		IconEmoji: ":newspaper:",
		ReadLabel: "Read",
		Timeout:   10 * time.Second,
	}
}

// SlackNotifier delivers batches to Slack Incoming Webhooks as Block Kit
// messages.
type SlackNotifier struct {
	config SlackConfig
	client webhookClient
}

// NewSlackNotifier creates a SlackNotifier.
//
// Each webhook is limited to 1 request/second with a burst of 1, which is
// Slack's documented Incoming Webhook limit.
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	if config.ReadLabel == "" {
		config.ReadLabel = "Read"
	}
	return &SlackNotifier{
		config: config,
		client: newWebhookClient("slack", config.Timeout, 1.0, 1),
	}
}

// WithRetry replaces the retry policy.
func (s *SlackNotifier) WithRetry(cfg retry.Config) *SlackNotifier {
	s.client.retry = cfg
	return s
}

// SlackWebhookPayload represents the JSON payload sent to Slack webhook using Block Kit.
type SlackWebhookPayload struct {
	Text      string       `json:"text"` // Fallback text (required)
	Username  string       `json:"username,omitempty"`
	IconEmoji string       `json:"icon_emoji,omitempty"`
	Blocks    []SlackBlock `json:"blocks"`
}

// SlackBlock represents a Slack Block Kit block.
type SlackBlock struct {
	Type      string           `json:"type"` // "header", "section", "divider"
	Text      *SlackTextObject `json:"text,omitempty"`
	Accessory *SlackButton     `json:"accessory,omitempty"`
}

// SlackTextObject represents a text object in Slack Block Kit.
type SlackTextObject struct {
	Type string `json:"type"` // "mrkdwn" or "plain_text"
	Text string `json:"text"`
}

// SlackButton is a link button attached to a section.
type SlackButton struct {
	Type     string          `json:"type"` // "button"
	Text     SlackTextObject `json:"text"`
	URL      string          `json:"url"`
	ActionID string          `json:"action_id"`
}

const (
	// Slack allows 50 blocks per message: header, divider and two blocks per article.
	maxSlackArticlesPerMessage = 20

	// descriptionPreviewRunes is the length of the description under each title.
	descriptionPreviewRunes = 80

	maxSectionTextLength = 3000
	maxHeaderTextLength  = 150
)

// buildBlockKitPayloads lays out a batch as Block Kit messages:
//
//	header   "📰 N new articles"
//	divider
//	section  "<emoji> *title*\n<description preview>"  [Read]
//	divider  (between articles)
//
// Batches larger than one message allows are split; every message carries
// its own header.
func (s *SlackNotifier) buildBlockKitPayloads(topic entity.TopicConfig, articles []entity.Article) []SlackWebhookPayload {
	parts := chunk(articles, maxSlackArticlesPerMessage)
	out := make([]SlackWebhookPayload, 0, len(parts))

	index := 0
	for p, part := range parts {
		header := fmt.Sprintf("📰 %d new articles", len(articles))
		if len(parts) > 1 {
			header = fmt.Sprintf("%s (%d/%d)", header, p+1, len(parts))
		}
		fallback := header
		if topic.DisplayName != "" {
			fallback = fmt.Sprintf("%s · %s", header, topic.DisplayName)
		}

		blocks := []SlackBlock{
			{Type: "header", Text: &SlackTextObject{Type: "plain_text", Text: truncateRunes(header, maxHeaderTextLength)}},
			{Type: "divider"},
		}
		for i, a := range part {
			section := fmt.Sprintf("*%s*", a.Title)
			if topic.Emoji != "" {
				section = topic.Emoji + " " + section
			}
			if desc := preview(a.Description, descriptionPreviewRunes); desc != "" {
				section += "\n" + desc
			}
			block := SlackBlock{
				Type: "section",
				Text: &SlackTextObject{Type: "mrkdwn", Text: truncateRunes(section, maxSectionTextLength)},
			}
			if a.Link != "" {
				block.Accessory = &SlackButton{
					Type:     "button",
					Text:     SlackTextObject{Type: "plain_text", Text: s.config.ReadLabel},
					URL:      a.Link,
					ActionID: fmt.Sprintf("read_article_%d", index),
				}
			}
			blocks = append(blocks, block)
			if i < len(part)-1 {
				blocks = append(blocks, SlackBlock{Type: "divider"})
			}
			index++
		}

		out = append(out, SlackWebhookPayload{
			Text:      fallback,
			Username:  s.config.Username,
			IconEmoji: s.config.IconEmoji,
			Blocks:    blocks,
		})
	}
	return out
}

// Deliver sends the batch to topic.Destination.
func (s *SlackNotifier) Deliver(ctx context.Context, topic entity.TopicConfig, articles []entity.Article) error {
	if len(articles) == 0 {
		return nil
	}
	payloads := s.buildBlockKitPayloads(topic, articles)
	msgs := make([]any, len(payloads))
	for i := range payloads {
		msgs[i] = payloads[i]
	}
	if err := s.client.send(ctx, topic.Destination, msgs); err != nil {
		return deliveryError("slack", err)
	}
	return nil
}

// OpenCircuits lists the Slack hosts currently rejected by the breaker.
func (n *SlackNotifier) OpenCircuits() []string {
	return n.client.OpenCircuits()
}
