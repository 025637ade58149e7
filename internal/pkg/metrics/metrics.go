package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/apperr"
)

// Metrics はアプリケーションのメトリクスを管理する
// nil のまま使ってもパニックしない
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約・着席操作の総数（operation, result: success, validation, not_found, conflict, error）
	OperationsTotal *prometheus.CounterVec

	// 卓ロックの取得時間（status: success/failed）
	TableLockDuration *prometheus.HistogramVec

	// 使用中の卓数
	OccupiedTables prometheus.Gauge

	// ノーショーとして取り消した予約数
	NoShowsCancelled prometheus.Counter
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seating_operations_total",
				Help: "Total number of reservation and seating operations by result",
			},
			[]string{"operation", "result"},
		),
		TableLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "table_lock_duration_seconds",
				Help:    "Time spent acquiring per-table locks",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"status"},
		),
		OccupiedTables: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "occupied_tables",
				Help: "Current number of occupied tables",
			},
		),
		NoShowsCancelled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "no_show_cancellations_total",
				Help: "Total number of booked reservations cancelled as no-shows",
			},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OperationsTotal,
		m.TableLockDuration,
		m.OccupiedTables,
		m.NoShowsCancelled,
	)

	return m
}

// ObserveOperation は操作結果をエラーの分類ごとに数える
func (m *Metrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, Result(err)).Inc()
}

// ObserveLock は卓ロックの取得時間を記録する
func (m *Metrics) ObserveLock(started time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.TableLockDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}

// TableOccupied は使用中の卓数を増減する
func (m *Metrics) TableOccupied(delta float64) {
	if m == nil {
		return
	}
	m.OccupiedTables.Add(delta)
}

// NoShows はノーショー取消件数を加算する
func (m *Metrics) NoShows(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.NoShowsCancelled.Add(float64(n))
}

// Result はエラーをラベル値に変換する
func Result(err error) string {
	if err == nil {
		return "success"
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return "validation"
	case apperr.KindNotFound:
		return "not_found"
	case apperr.KindConflict:
		return "conflict"
	default:
		return "error"
	}
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
