// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア、ハンドラー、起動処理から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordAuthFailure(reason string)
	RecordContactMutation(operation string)
	RecordMigration(version int)
	RecordRateLimited(limitType string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus       *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
	authFailures     *prometheus.CounterVec
	contactMutations *prometheus.CounterVec
	migrations       *prometheus.CounterVec
	rateLimited      *prometheus.CounterVec
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contactbook_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contactbook_http_request_duration_seconds",
			Help:    "ルート別のリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contactbook_auth_failures_total",
			Help: "認証・認可失敗の合計数",
		}, []string{"reason"}),
		contactMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contactbook_contact_mutations_total",
			Help: "連絡先の作成・更新・削除の合計数",
		}, []string{"operation"}),
		migrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contactbook_data_migrations_applied_total",
			Help: "適用されたデータマイグレーションの合計数",
		}, []string{"version"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contactbook_rate_limited_total",
			Help: "レート制限で拒否したリクエスト数",
		}, []string{"limit_type"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.httpLatency,
		c.authFailures,
		c.contactMutations,
		c.migrations,
		c.rateLimited,
	)

	return c
}

// RecordHTTPRequest はレスポンスのステータスと処理時間を記録する。
// routeはchiのルートパターン（例: /api/contacts/{id}）で、IDごとに系列が増えないようにする。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpStatus.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	if route == "" {
		route = "unmatched"
	}
	c.httpLatency.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordAuthFailure は認証・認可の失敗を記録する。
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// RecordContactMutation は連絡先の変更操作を記録する。
func (c *Collector) RecordContactMutation(operation string) {
	c.contactMutations.WithLabelValues(operation).Inc()
}

// RecordMigration はデータマイグレーションの適用を記録する。
func (c *Collector) RecordMigration(version int) {
	c.migrations.WithLabelValues(strconv.Itoa(version)).Inc()
}

// RecordRateLimited はレート制限による拒否を記録する。limitTypeはgeneralまたはlogin。
func (c *Collector) RecordRateLimited(limitType string) {
	c.rateLimited.WithLabelValues(limitType).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使用する。
type Nop struct{}

func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordAuthFailure(string) {}
func (Nop) RecordContactMutation(string) {}
func (Nop) RecordMigration(int) {}
func (Nop) RecordRateLimited(string) {}
