package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Completion outcomes recorded by the LLM client.
const (
	OutcomeOK            = "ok"
	OutcomeRefused       = "refused"
	OutcomeEmpty         = "empty"
	OutcomeNoCredentials = "no_credentials"
	OutcomeAuth          = "auth"
	OutcomeModelNotFound = "model_not_found"
	OutcomeGeneric       = "generic"
)

// Metrics 汇总服务的业务指标
type Metrics struct {
	Completions       *prometheus.CounterVec
	CompletionLatency prometheus.Histogram
	AnalysesStored    *prometheus.CounterVec
	AccountFetches    *prometheus.CounterVec
}

// New 创建并注册全部指标。测试里传 prometheus.NewRegistry() 避免重复注册。
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finsight",
			Name:      "completions_total",
			Help:      "Chat completion calls by outcome.",
		}, []string{"outcome"}),
		CompletionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "finsight",
			Name:      "completion_duration_seconds",
			Help:      "Latency of chat completion calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}),
		AnalysesStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finsight",
			Name:      "analyses_stored_total",
			Help:      "Persisted analysis records by analysis type.",
		}, []string{"analysis_type"}),
		AccountFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finsight",
			Name:      "account_fetches_total",
			Help:      "Account-data API requests by resource and result.",
		}, []string{"resource", "result"}),
	}
	reg.MustRegister(m.Completions, m.CompletionLatency, m.AnalysesStored, m.AccountFetches)
	return m
}

// Nop 返回注册在独立 registry 上的指标，供不关心指标的调用方（如测试）使用
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
