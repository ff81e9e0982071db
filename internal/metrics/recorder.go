package metrics

import "time"

// Outcome labels for build counters.
const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Recorder defines observability hooks for navigation builds. Implementations
// may forward to Prometheus, OpenTelemetry, etc. Components receive a Recorder
// through injection and default to NoopRecorder when metrics are not configured.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string) // outcome: success|skipped|failed
	AddEntriesParsed(n int)
	AddLinesSkipped(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string)             {}
func (NoopRecorder) AddEntriesParsed(int)               {}
func (NoopRecorder) AddLinesSkipped(int)                {}
