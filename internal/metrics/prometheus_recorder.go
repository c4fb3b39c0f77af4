package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once               sync.Once
	stageDuration      *prom.HistogramVec
	generationDuration prom.Histogram
	stageResults       *prom.CounterVec
	generationOutcome  *prom.CounterVec
	fetchDuration      *prom.HistogramVec
	filesDiscovered    prom.Counter
	llmDuration        *prom.HistogramVec
	llmRetries         *prom.CounterVec
	rateLimitHits      *prom.CounterVec
	placeholderPages   prom.Counter
	httpRequests       *prom.CounterVec
	httpDuration       *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "repowiki",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.generationDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "repowiki",
			Name:      "generation_duration_seconds",
			Help:      "Total documentation generation duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "repowiki",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.generationOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "repowiki",
			Name:      "generation_outcomes_total",
			Help:      "Generation outcomes by final status",
		}, []string{"outcome"})
		pr.fetchDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "repowiki",
			Name:      "fetch_repo_duration_seconds",
			Help:      "Duration of individual repository fetch operations",
			Buckets:   prom.DefBuckets,
		}, []string{"repo", "result"})
		pr.filesDiscovered = prom.NewCounter(prom.CounterOpts{
			Namespace: "repowiki",
			Name:      "files_discovered_total",
			Help:      "Documentation files discovered during fetch",
		})
		pr.llmDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "repowiki",
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of model requests by provider",
			Buckets:   prom.DefBuckets,
		}, []string{"provider", "result"})
		pr.llmRetries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "repowiki",
			Name:      "llm_retries_total",
			Help:      "Model request retries after rate limiting",
		}, []string{"provider"})
		pr.rateLimitHits = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "repowiki",
			Name:      "rate_limit_hits_total",
			Help:      "Rate limit responses by source",
		}, []string{"source"})
		pr.placeholderPages = prom.NewCounter(prom.CounterOpts{
			Namespace: "repowiki",
			Name:      "placeholder_pages_total",
			Help:      "Pages that fell back to placeholder content",
		})
		pr.httpRequests = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "repowiki",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"})
		pr.httpDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "repowiki",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route",
			Buckets:   prom.DefBuckets,
		}, []string{"route"})
		reg.MustRegister(pr.stageDuration, pr.generationDuration, pr.stageResults, pr.generationOutcome, pr.fetchDuration, pr.filesDiscovered, pr.llmDuration, pr.llmRetries, pr.rateLimitHits, pr.placeholderPages, pr.httpRequests, pr.httpDuration)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveGenerationDuration(d time.Duration) {
	if p == nil || p.generationDuration == nil {
		return
	}
	p.generationDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncGenerationOutcome(outcome OutcomeLabel) {
	if p == nil || p.generationOutcome == nil {
		return
	}
	p.generationOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveFetchDuration(repo string, d time.Duration, success bool) {
	if p == nil || p.fetchDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.fetchDuration.WithLabelValues(repo, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddFilesDiscovered(n int) {
	if p == nil || p.filesDiscovered == nil || n <= 0 {
		return
	}
	p.filesDiscovered.Add(float64(n))
}

func (p *PrometheusRecorder) ObserveLLMRequest(provider string, d time.Duration, success bool) {
	if p == nil || p.llmDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.llmDuration.WithLabelValues(provider, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncLLMRetry(provider string) {
	if p == nil || p.llmRetries == nil {
		return
	}
	p.llmRetries.WithLabelValues(provider).Inc()
}

func (p *PrometheusRecorder) IncRateLimitHit(source string) {
	if p == nil || p.rateLimitHits == nil {
		return
	}
	p.rateLimitHits.WithLabelValues(source).Inc()
}

func (p *PrometheusRecorder) IncPlaceholderPage() {
	if p == nil || p.placeholderPages == nil {
		return
	}
	p.placeholderPages.Inc()
}

func (p *PrometheusRecorder) IncHTTPRequest(method, route string, status int) {
	if p == nil || p.httpRequests == nil {
		return
	}
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) ObserveHTTPDuration(route string, d time.Duration) {
	if p == nil || p.httpDuration == nil {
		return
	}
	p.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}
