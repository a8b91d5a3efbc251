package notifier

import (
	"context"
	"fmt"
	"strings"

	"newsbot/internal/domain/entity"
)

// placeholderMarkers appear in sample configuration that was never filled in.
var placeholderMarkers = []string{"YOUR/WEBHOOK/URL", "YOUR_WEBHOOK", "example.invalid"}

// ValidateWebhookURL rejects missing, placeholder and malformed destinations.
// The error matches entity.ErrConfiguration.
func ValidateWebhookURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: webhook URL is not set", entity.ErrConfiguration)
	}
	for _, m := range placeholderMarkers {
		if strings.Contains(raw, m) {
			return fmt.Errorf("%w: webhook URL is still a placeholder", entity.ErrConfiguration)
		}
	}
	if err := entity.ValidateURL(raw); err != nil {
		return fmt.Errorf("%w: webhook URL: %w", entity.ErrConfiguration, err)
	}
	return nil
}

// Router delivers each batch through the notifier matching the destination
// host. Destinations that are neither Slack nor Discord go to the fallback,
// which defaults to the Slack notifier since Slack-compatible webhooks are the
// common case.
type Router struct {
	slack    Notifier
	discord  Notifier
	fallback Notifier
}

// NewRouter creates a Router over the given notifiers.
func NewRouter(slack, discord Notifier) *Router {
	return &Router{slack: slack, discord: discord, fallback: slack}
}

// For returns the notifier that would serve destination.
func (r *Router) For(destination string) Notifier {
	switch host := hostOf(destination); {
	case host == "hooks.slack.com":
		return r.slack
	case host == "discord.com", host == "discordapp.com", strings.HasSuffix(host, ".discord.com"):
		return r.discord
	default:
		return r.fallback
	}
}

// Deliver routes the batch by topic.Destination.
func (r *Router) Deliver(ctx context.Context, topic entity.TopicConfig, articles []entity.Article) error {
	n := r.For(topic.Destination)
	if n == nil {
		return fmt.Errorf("%w: no notifier for %s", entity.ErrDelivery, hostOf(topic.Destination))
	}
	return n.Deliver(ctx, topic, articles)
}

// ChannelStatus is the breaker view of one delivery channel.
type ChannelStatus struct {
	Name         string   `json:"name"`
	Healthy      bool     `json:"healthy"`
	OpenCircuits []string `json:"open_circuits,omitempty"`
}

type circuitReporter interface {
	OpenCircuits() []string
}

// Health reports the breaker state of the Slack and Discord channels. A
// channel without breakers is always healthy.
func (r *Router) Health() []ChannelStatus {
	out := make([]ChannelStatus, 0, 2)
	for _, ch := range []struct {
		name string
		n    Notifier
	}{{"slack", r.slack}, {"discord", r.discord}} {
		if ch.n == nil {
			continue
		}
		st := ChannelStatus{Name: ch.name, Healthy: true}
		if cr, ok := ch.n.(circuitReporter); ok {
			st.OpenCircuits = cr.OpenCircuits()
			st.Healthy = len(st.OpenCircuits) == 0
		}
		out = append(out, st)
	}
	return out
}
