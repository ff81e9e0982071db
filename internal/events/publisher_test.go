package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	err := p.PublishSummaryGenerated(context.Background(), SummaryGenerated{RunID: "x"})
	assert.NoError(t, err)
	p.Close()
}

func TestSummaryGeneratedPayloadShape(t *testing.T) {
	ev := SummaryGenerated{
		RunID:       "run-1",
		Output:      "ecss/SUMMARY.md",
		Entries:     4,
		Fingerprint: "abc",
		GeneratedAt: time.Unix(1700000000, 0).UTC(),
	}
	payload, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Equal(t, "ecss/SUMMARY.md", decoded["output"])
	assert.Equal(t, float64(4), decoded["entries"])
	assert.Equal(t, "abc", decoded["fingerprint"])
}

func TestSummaryGeneratedOmitsEmptyFingerprint(t *testing.T) {
	payload, err := json.Marshal(SummaryGenerated{RunID: "run-2"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	_, present := decoded["fingerprint"]
	assert.False(t, present)
}

func TestNewNATSPublisherRejectsBadURL(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "")
	assert.Error(t, err)
}
