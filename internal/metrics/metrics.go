package metrics

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 는 게이트웨이 상태를 나타내는 카운터 모음이다.
// 모든 필드는 atomic 으로만 접근한다.
type Metrics struct {
	// ======================
	// HTTP 레벨 지표
	// ======================

	// HTTPRequestsTotal
	// - /refresh, /chatbot, /upload 로 들어온 모든 요청 수 (시도 기준).
	HTTPRequestsTotal int64

	// HTTPRequestsRejectedMethodTotal
	// - POST 가 아니라서 405 를 돌려준 요청 수.
	HTTPRequestsRejectedMethodTotal int64

	// HTTPRequestsRejectedValidationTotal
	// - 빈 body, 필수 필드 누락, JSON 아님 등으로 400 을 돌려준 요청 수.
	// - 프론트엔드 배포 직후 이 값이 튀면 요청 스키마가 어긋났다는 신호.
	HTTPRequestsRejectedValidationTotal int64

	// HTTPRequestsRejectedBodyTooLargeTotal
	// - MaxBodySize 초과로 413 을 돌려준 요청 수.
	HTTPRequestsRejectedBodyTooLargeTotal int64

	// ======================
	// Downstream 지표
	// ======================

	// DownstreamCallsTotal
	// - refresh / chatbot 백엔드로 나간 POST 수.
	DownstreamCallsTotal int64

	// DownstreamErrorsTotal
	// - 네트워크 에러, 2xx 아님, body 키 없음 등으로 500 이 된 호출 수.
	// - DownstreamErrorsTotal / DownstreamCallsTotal → 백엔드 장애율.
	DownstreamErrorsTotal int64

	// ======================
	// Storage 지표
	// ======================

	// UploadsStoredTotal
	// - blob 쓰기에 성공한 파일 수.
	UploadsStoredTotal int64

	// UploadErrorsTotal
	// - base64 디코딩 실패 또는 blob 쓰기 실패 수.
	UploadErrorsTotal int64

	// UploadedBytesTotal
	// - 디코딩 후 실제로 저장된 바이트 합.
	UploadedBytesTotal int64
}

func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) String() string {
	var sb strings.Builder
	sb.Grow(256)

	fmt.Fprintf(&sb, "http_requests_total=%d\n", atomic.LoadInt64(&m.HTTPRequestsTotal))
	fmt.Fprintf(&sb, "http_requests_rejected_method_total=%d\n", atomic.LoadInt64(&m.HTTPRequestsRejectedMethodTotal))
	fmt.Fprintf(&sb, "http_requests_rejected_validation_total=%d\n", atomic.LoadInt64(&m.HTTPRequestsRejectedValidationTotal))
	fmt.Fprintf(&sb, "http_requests_rejected_body_too_large_total=%d\n", atomic.LoadInt64(&m.HTTPRequestsRejectedBodyTooLargeTotal))

	fmt.Fprintf(&sb, "downstream_calls_total=%d\n", atomic.LoadInt64(&m.DownstreamCallsTotal))
	fmt.Fprintf(&sb, "downstream_errors_total=%d\n", atomic.LoadInt64(&m.DownstreamErrorsTotal))

	fmt.Fprintf(&sb, "uploads_stored_total=%d\n", atomic.LoadInt64(&m.UploadsStoredTotal))
	fmt.Fprintf(&sb, "upload_errors_total=%d\n", atomic.LoadInt64(&m.UploadErrorsTotal))
	fmt.Fprintf(&sb, "uploaded_bytes_total=%d\n", atomic.LoadInt64(&m.UploadedBytesTotal))

	return sb.String()
}

// ------------------------------------------------------------
// Prometheus
//
// 위 카운터는 운영자가 /metrics 로 바로 보는 용도이고,
// 라우트별 요청 수 / 지연 분포는 Prometheus 로 수집한다.
// ------------------------------------------------------------

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

// HTTPCollector 는 라우트별 요청 카운터와 지연 히스토그램.
type HTTPCollector struct {
	Registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewHTTPCollector 는 전용 Registry 에 collector 를 등록한다.
// 전역 DefaultRegisterer 를 쓰지 않으므로 테스트에서 여러 번 만들어도 충돌하지 않는다.
func NewHTTPCollector(namespace string) *HTTPCollector {
	c := &HTTPCollector{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
	}
	c.Registry.MustRegister(c.requests, c.latency)
	return c
}

// Observe 는 요청 하나의 결과를 기록한다.
func (c *HTTPCollector) Observe(method, route string, status int, d time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	c.requests.With(labels).Inc()
	c.latency.With(labels).Observe(d.Seconds())
}
