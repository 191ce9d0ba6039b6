package server

import (
	"net/http"
	"time"

	"docchat-gateway/internal/metrics"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader 로 들어온 값이 있으면 그대로 쓰고, 없으면 새로 발급한다.
const RequestIDHeader = "X-Request-ID"

// Routes
//
// 엔드포인트:
//   - /refresh, /chatbot, /upload : 게이트웨이 API (POST 전용)
//   - /health                     : 헬스체크
//   - /metrics                    : 내부 카운터 (text)
//   - /metrics/prometheus         : Prometheus scrape
func Routes(h *Handler, c *metrics.HTTPCollector) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/refresh", instrument(c, "refresh", h.HandleRefresh))
	mux.HandleFunc("/chatbot", instrument(c, "chatbot", h.HandleChatbot))
	mux.HandleFunc("/upload", instrument(c, "upload", h.HandleUpload))

	mux.HandleFunc("/metrics", h.HandleMetrics)
	mux.Handle("/metrics/prometheus", promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// NewRouter 는 Routes 에 gzip 응답 압축을 씌운다.
// Accept-Encoding 에 gzip 이 없거나 응답이 작으면 압축하지 않는다.
func NewRouter(h *Handler, c *metrics.HTTPCollector) http.Handler {
	return gzhttp.GzipHandler(Routes(h, c))
}

// statusRecorder 는 핸들러가 쓴 상태코드를 기억한다.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// instrument
//
// API 라우트 공통 처리:
//   - 요청 ID 부여 (응답 헤더로도 돌려줌)
//   - 요청마다 접근 로그 한 줄
//   - Prometheus 카운터 / 히스토그램 기록
func instrument(c *metrics.HTTPCollector, route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, reqID)

		logger := log.With().Str("request_id", reqID).Str("route", route).Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		rec := &statusRecorder{ResponseWriter: w}
		next(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		d := time.Since(start)
		c.Observe(r.Method, route, rec.status, d)

		ev := logger.Info()
		if rec.status >= http.StatusInternalServerError {
			ev = logger.Error()
		} else if rec.status >= http.StatusBadRequest {
			ev = logger.Warn()
		}
		ev.Str("method", r.Method).
			Int("status", rec.status).
			Dur("duration", d).
			Str("ip", clientIP(r)).
			Str("user_agent", r.UserAgent()).
			Msg("request handled")
	}
}
