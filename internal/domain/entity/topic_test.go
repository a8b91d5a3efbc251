package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTopicID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TopicID
		wantErr bool
	}{
		{"lowercase", "economy", TopicEconomy, false},
		{"mixed case", "Tech", TopicTech, false},
		{"surrounding spaces", "  world ", TopicWorld, false},
		{"unknown", "weather", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTopicID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnknownTopic)
				assert.ErrorIs(t, err, ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKnownTopics_ReturnsCopy(t *testing.T) {
	topics := KnownTopics()
	require.NotEmpty(t, topics)
	topics[0] = "mutated"

	assert.Equal(t, TopicEconomy, KnownTopics()[0])
	assert.False(t, TopicID("mutated").IsValid())
}

func TestTopicConfig_Validate(t *testing.T) {
	valid := func() TopicConfig {
		return TopicConfig{
			ID:          TopicEconomy,
			DisplayName: "Economy",
			Emoji:       "💰",
			Destination: "https://hooks.slack.com/services/T000/B000/XXXX",
			Sources: []Source{
				{Name: "mk", URL: "https://www.mk.co.kr/rss/30100041/", Topic: TopicEconomy},
				{Name: "hk", URL: "https://www.hankyung.com/feed/economy", Topic: TopicEconomy},
			},
		}
	}

	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("unknown topic", func(t *testing.T) {
		c := valid()
		c.ID = "weather"
		err := c.Validate()
		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "id", vErr.Field)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("missing destination", func(t *testing.T) {
		c := valid()
		c.Destination = " "
		err := c.Validate()
		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "destination", vErr.Field)
	})

	t.Run("no sources", func(t *testing.T) {
		c := valid()
		c.Sources = nil
		assert.Error(t, c.Validate())
	})

	t.Run("duplicate source names", func(t *testing.T) {
		c := valid()
		c.Sources[1].Name = "mk"
		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate source")
	})

	t.Run("bad source url", func(t *testing.T) {
		c := valid()
		c.Sources[0].URL = "ftp://example.com/feed"
		assert.Error(t, c.Validate())
	})
}
