// Package metrics は認証サービスとGatewayサービスのPrometheusメトリクスを提供する。
//
// メトリクスはサーバーごとのレジストリに登録する。テストで複数のサーバーを
// 並列に生成しても値が混ざらない。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// VerifyBuckets は検証リクエストのレイテンシ用ヒストグラムバケット（秒）。
var VerifyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Gateway はGatewayサービスのメトリクス。
type Gateway struct {
	// Decisions は認証判定の結果ごとのリクエスト数。
	Decisions *prometheus.CounterVec
	// VerifyDuration は認証サービスへの検証リクエストの所要時間。
	VerifyDuration prometheus.Histogram
}

// NewGateway はGatewayのメトリクスを生成して reg に登録する。
func NewGateway(reg prometheus.Registerer) *Gateway {
	m := &Gateway{
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_gateway_decisions_total",
				Help: "Gateway authentication decisions",
			},
			[]string{"decision"},
		),
		VerifyDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "authgate_gateway_verify_duration_seconds",
				Help:    "Latency of token verification calls to the auth service",
				Buckets: VerifyBuckets,
			},
		),
	}
	reg.MustRegister(m.Decisions, m.VerifyDuration)
	return m
}

// Auth は認証サービスのメトリクス。
type Auth struct {
	// Logins はログイン試行の結果ごとの件数。
	Logins *prometheus.CounterVec
	// Validations はトークン検証の結果ごとの件数。
	Validations *prometheus.CounterVec
}

// NewAuth は認証サービスのメトリクスを生成して reg に登録する。
func NewAuth(reg prometheus.Registerer) *Auth {
	m := &Auth{
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_auth_logins_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		Validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_auth_validations_total",
				Help: "Token validations by result",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.Logins, m.Validations)
	return m
}

// NewRegistry はGoランタイムとプロセスのコレクタを登録済みのレジストリを生成する。
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler は reg の内容を公開するHTTPハンドラを返す。
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
