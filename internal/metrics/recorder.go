package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// OutcomeLabel enumerates terminal generation outcomes. Degraded means the
// pipeline finished but one or more pages fell back to placeholder content.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeDegraded OutcomeLabel = "degraded"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for pipeline and HTTP metrics. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for nil receivers
// when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveGenerationDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncGenerationOutcome(outcome OutcomeLabel)
	ObserveFetchDuration(repo string, d time.Duration, success bool)
	AddFilesDiscovered(n int)
	ObserveLLMRequest(provider string, d time.Duration, success bool)
	IncLLMRetry(provider string)
	IncRateLimitHit(source string) // source: github|llm
	IncPlaceholderPage()
	IncHTTPRequest(method, route string, status int)
	ObserveHTTPDuration(route string, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)        {}
func (NoopRecorder) ObserveGenerationDuration(time.Duration)           {}
func (NoopRecorder) IncStageResult(string, ResultLabel)                {}
func (NoopRecorder) IncGenerationOutcome(OutcomeLabel)                 {}
func (NoopRecorder) ObserveFetchDuration(string, time.Duration, bool)  {}
func (NoopRecorder) AddFilesDiscovered(int)                            {}
func (NoopRecorder) ObserveLLMRequest(string, time.Duration, bool)     {}
func (NoopRecorder) IncLLMRetry(string)                                {}
func (NoopRecorder) IncRateLimitHit(string)                            {}
func (NoopRecorder) IncPlaceholderPage()                               {}
func (NoopRecorder) IncHTTPRequest(string, string, int)                {}
func (NoopRecorder) ObserveHTTPDuration(string, time.Duration)         {}
