package entity

import (
	"fmt"
	"strings"
)

// TopicID identifies a topic. The set of topics is closed: only the values
// declared below are accepted.
type TopicID string

const (
	TopicEconomy  TopicID = "economy"
	TopicTech     TopicID = "tech"
	TopicWorld    TopicID = "world"
	TopicPolitics TopicID = "politics"
	TopicSociety  TopicID = "society"
	TopicCulture  TopicID = "culture"
	TopicSports   TopicID = "sports"
)

var knownTopics = []TopicID{
	TopicEconomy,
	TopicTech,
	TopicWorld,
	TopicPolitics,
	TopicSociety,
	TopicCulture,
	TopicSports,
}

// KnownTopics returns every accepted topic identifier in declaration order.
func KnownTopics() []TopicID {
	out := make([]TopicID, len(knownTopics))
	copy(out, knownTopics)
	return out
}

// IsValid reports whether t is one of the known topics.
func (t TopicID) IsValid() bool {
	for _, k := range knownTopics {
		if t == k {
			return true
		}
	}
	return false
}

// ParseTopicID converts s (case-insensitive, surrounding spaces ignored) to a TopicID.
func ParseTopicID(s string) (TopicID, error) {
	t := TopicID(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTopic, s)
	}
	return t, nil
}

// Source describes one feed. Sources are static configuration.
type Source struct {
	Name  string
	URL   string
	Topic TopicID
}

// TopicConfig is the per-topic configuration: how the topic is presented and
// where its batch is delivered.
type TopicConfig struct {
	ID          TopicID
	DisplayName string
	Emoji       string
	// Destination is the webhook URL receiving this topic's batch.
	Destination string
	Sources     []Source
}

// Validate checks the topic configuration for structural problems.
func (c TopicConfig) Validate() error {
	if !c.ID.IsValid() {
		return &ValidationError{Field: "id", Message: fmt.Sprintf("unknown topic %q", c.ID)}
	}
	if strings.TrimSpace(c.Destination) == "" {
		return &ValidationError{Field: "destination", Message: "destination is required"}
	}
	if err := ValidateURL(c.Destination); err != nil {
		return err
	}
	if len(c.Sources) == 0 {
		return &ValidationError{Field: "sources", Message: "at least one source is required"}
	}

	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if strings.TrimSpace(s.Name) == "" {
			return &ValidationError{Field: "sources.name", Message: "source name is required"}
		}
		if seen[s.Name] {
			return &ValidationError{Field: "sources.name", Message: fmt.Sprintf("duplicate source %q", s.Name)}
		}
		seen[s.Name] = true
		if err := ValidateURL(s.URL); err != nil {
			return err
		}
	}
	return nil
}
