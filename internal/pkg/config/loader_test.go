package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvString(t *testing.T) {
	t.Setenv("NEWSBOT_TEST_STRING", "value")
	assert.Equal(t, "value", LoadEnvString("NEWSBOT_TEST_STRING", "default"))
	assert.Equal(t, "default", LoadEnvString("NEWSBOT_TEST_UNSET", "default"))
}

func TestLoadEnvWithFallback(t *testing.T) {
	t.Setenv("WINDOW_POLICY", "fixed")
	res := LoadEnvWithFallback("WINDOW_POLICY", "watermark", OneOf("watermark", "fixed"))
	assert.Equal(t, "fixed", res.Value)
	assert.False(t, res.FallbackApplied)

	t.Setenv("WINDOW_POLICY", "sliding")
	res = LoadEnvWithFallback("WINDOW_POLICY", "watermark", OneOf("watermark", "fixed"))
	assert.Equal(t, "watermark", res.Value)
	assert.True(t, res.FallbackApplied)
	assert.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Invalid WINDOW_POLICY='sliding'")
}

func TestLoadEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		want     time.Duration
		fallback bool
	}{
		{"unset", "", 10 * time.Second, false},
		{"valid", "1h30m", 90 * time.Minute, false},
		{"unparseable", "ten seconds", 10 * time.Second, true},
		{"negative", "-5s", 10 * time.Second, true},
		{"zero", "0s", 10 * time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FETCH_TIMEOUT", tt.value)
			res := LoadEnvDuration("FETCH_TIMEOUT", 10*time.Second, ValidatePositiveDuration)
			assert.Equal(t, tt.want, res.Value)
			assert.Equal(t, tt.fallback, res.FallbackApplied)
		})
	}
}

func TestLoadEnvInt(t *testing.T) {
	inRange := func(n int) error { return ValidateIntRange(n, 1, 10) }

	t.Setenv("FETCH_MAX_ATTEMPTS", "5")
	assert.Equal(t, 5, LoadEnvInt("FETCH_MAX_ATTEMPTS", 3, inRange).Value)

	t.Setenv("FETCH_MAX_ATTEMPTS", " 7 ")
	assert.Equal(t, 7, LoadEnvInt("FETCH_MAX_ATTEMPTS", 3, inRange).Value)

	t.Setenv("FETCH_MAX_ATTEMPTS", "2.5")
	res := LoadEnvInt("FETCH_MAX_ATTEMPTS", 3, inRange)
	assert.Equal(t, 3, res.Value)
	assert.True(t, strings.Contains(res.Warnings[0], "invalid integer format"))

	t.Setenv("FETCH_MAX_ATTEMPTS", "11")
	assert.True(t, LoadEnvInt("FETCH_MAX_ATTEMPTS", 3, inRange).FallbackApplied)
}

func TestLoadEnvFloat(t *testing.T) {
	t.Setenv("SIMILARITY_THRESHOLD", "0.8")
	assert.Equal(t, 0.8, LoadEnvFloat("SIMILARITY_THRESHOLD", 0.75, ValidateUnitInterval).Value)

	t.Setenv("SIMILARITY_THRESHOLD", "1.5")
	res := LoadEnvFloat("SIMILARITY_THRESHOLD", 0.75, ValidateUnitInterval)
	assert.Equal(t, 0.75, res.Value)
	assert.True(t, res.FallbackApplied)

	t.Setenv("SIMILARITY_THRESHOLD", "high")
	assert.True(t, LoadEnvFloat("SIMILARITY_THRESHOLD", 0.75, nil).FallbackApplied)
}

func TestLoadEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "t"} {
		t.Setenv("DRY_RUN", v)
		assert.True(t, LoadEnvBool("DRY_RUN", false).Value, v)
	}
	for _, v := range []string{"0", "false", "F"} {
		t.Setenv("DRY_RUN", v)
		assert.False(t, LoadEnvBool("DRY_RUN", true).Value, v)
	}
	t.Setenv("DRY_RUN", "yes")
	res := LoadEnvBool("DRY_RUN", false)
	assert.False(t, res.Value)
	assert.True(t, res.FallbackApplied)
}
