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
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordPageRender(page string)
	RecordBackendRequest(resource string, statusCode int)
	RecordBackendLatency(duration time.Duration)
	RecordStoryUpload(outcome string)
	RecordPurchase(method string)
	RecordSettlement(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	pageRenders    *prometheus.CounterVec
	backendStatus  *prometheus.CounterVec
	backendLatency prometheus.Histogram
	storyUploads   *prometheus.CounterVec
	purchases      *prometheus.CounterVec
	settlements    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		pageRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "myb_page_renders_total",
			Help: "ページ種別ごとのレンダリング数",
		}, []string{"page"}),
		backendStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "myb_backend_requests_total",
			Help: "テーブルバックエンドへのリクエスト数（リソース・ステータス別）",
		}, []string{"resource", "status_code"}),
		backendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "myb_backend_latency_seconds",
			Help:    "テーブルバックエンドのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		storyUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "myb_story_uploads_total",
			Help: "PDFストーリー投稿の結果別合計数",
		}, []string{"outcome"}),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "myb_purchases_total",
			Help: "決済方法別の購入数",
		}, []string{"method"}),
		settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "myb_settlements_total",
			Help: "承認されたモバイルマネー決済の合計数",
		}),
	}

	reg.MustRegister(
		c.pageRenders,
		c.backendStatus,
		c.backendLatency,
		c.storyUploads,
		c.purchases,
		c.settlements,
	)

	return c
}

// RecordPageRender はページのレンダリングを記録する。
func (c *Collector) RecordPageRender(page string) {
	c.pageRenders.WithLabelValues(page).Inc()
}

// RecordBackendRequest はバックエンドリクエストの結果を記録する。
func (c *Collector) RecordBackendRequest(resource string, statusCode int) {
	c.backendStatus.WithLabelValues(resource, strconv.Itoa(statusCode)).Inc()
}

// RecordBackendLatency はバックエンドのレイテンシを記録する。
func (c *Collector) RecordBackendLatency(duration time.Duration) {
	c.backendLatency.Observe(duration.Seconds())
}

// RecordStoryUpload はPDF投稿の結果を記録する。outcomeは accepted / rejected / blocked。
func (c *Collector) RecordStoryUpload(outcome string) {
	c.storyUploads.WithLabelValues(outcome).Inc()
}

// RecordPurchase は購入を決済方法別に記録する。
func (c *Collector) RecordPurchase(method string) {
	c.purchases.WithLabelValues(method).Inc()
}

// RecordSettlement は承認された決済数を記録する。
func (c *Collector) RecordSettlement(count int) {
	c.settlements.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
