package run

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsbot/internal/domain/entity"
)

func TestReport_ExitCode(t *testing.T) {
	tests := []struct {
		state State
		want  int
	}{
		{StateCompleted, 0},
		{StateCompletedWithFailures, 1},
		{StateAborted, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			r := &Report{State: tt.state}
			assert.Equal(t, tt.want, r.ExitCode())
		})
	}
}

func TestReport_Finish(t *testing.T) {
	start := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)

	r := &Report{StartedAt: start}
	r.finish(start.Add(3 * time.Second))
	assert.Equal(t, StateCompleted, r.State)
	assert.Equal(t, 3*time.Second, r.Duration())

	r = &Report{StartedAt: start}
	r.fail("hk", entity.FailureFetchTimeout, "attempt timed out")
	r.finish(start)
	assert.Equal(t, StateCompletedWithFailures, r.State)

	r = &Report{StartedAt: start, State: StateAborted}
	r.fail("topics", entity.FailureConfiguration, "unknown topic")
	r.finish(start)
	assert.Equal(t, StateAborted, r.State, "abort is terminal")
}

func TestReport_LogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := &Report{RunID: "run-1", State: StateCompleted, ArticlesDelivered: 4}
	logger.Info("run finished", slog.Any("report", r))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	report, ok := line["report"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "run-1", report["run_id"])
	assert.Equal(t, float64(4), report["articles_delivered"])
}
