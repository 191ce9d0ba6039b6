package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"docchat-gateway/internal/bridge"
	"docchat-gateway/internal/config"
	"docchat-gateway/internal/metrics"
	"docchat-gateway/internal/model"
	"docchat-gateway/internal/pool"
	"docchat-gateway/internal/storage"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Forwarder 는 downstream 서비스로 JSON POST 를 보내는 구성 요소.
// 운영에서는 *bridge.Bridge 가 들어간다.
type Forwarder interface {
	Forward(ctx context.Context, url string, payload any) (bridge.Result, error)
}

type Handler struct {
	cfg     config.Config
	metrics *metrics.Metrics
	bridge  Forwarder
	store   storage.BlobStore
}

// NewHandler 는 시작 시 한 번 만든 bridge / blob store 를 주입받는다.
// 요청 사이에 공유되는 상태는 이 둘과 읽기 전용 cfg 뿐이다.
func NewHandler(cfg config.Config, m *metrics.Metrics, b Forwarder, store storage.BlobStore) *Handler {
	return &Handler{
		cfg:     cfg,
		metrics: m,
		bridge:  b,
		store:   store,
	}
}

// HandleRefresh
//
// 검색 인덱스 refresh 요청을 REFRESH_URL 로 넘긴다. body 는 보지 않는다.
// downstream 상태코드를 그대로 돌려준다.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	atomic.AddInt64(&h.metrics.HTTPRequestsTotal, 1)

	if r.Method != http.MethodPost {
		h.writeError(w, start, model.Public(model.ErrMethodNotAllowed, model.MsgMethodNotAllowed))
		return
	}

	log.Ctx(r.Context()).Debug().Str("url", h.cfg.RefreshURL).Msg("refreshing index")
	res, err := h.bridge.Forward(r.Context(), h.cfg.RefreshURL, nil)
	h.writeForwarded(w, start, res, err)
}

// HandleChatbot
//
// {"message": "..."} 를 받아 CHATBOT_URL 로 넘긴다.
//   - 빈 body → 400
//   - JSON object 아님 → 400
//   - message 없음 / 빈 문자열 / 문자열 아님 → 400
func (h *Handler) HandleChatbot(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	atomic.AddInt64(&h.metrics.HTTPRequestsTotal, 1)

	if r.Method != http.MethodPost {
		h.writeError(w, start, model.Public(model.ErrMethodNotAllowed, model.MsgMethodNotAllowed))
		return
	}

	var req model.ChatRequest
	err := h.decodeBody(w, r, func(fields map[string]json.RawMessage) error {
		req.Message = stringField(fields, "message")
		if req.Message == "" {
			return model.Public(model.ErrValidation, model.MsgMissingMessage)
		}
		return nil
	})
	if err != nil {
		h.writeError(w, start, err)
		return
	}

	log.Ctx(r.Context()).Debug().Str("url", h.cfg.ChatbotURL).Int("message_len", len(req.Message)).Msg("forwarding chatbot message")
	res, err := h.bridge.Forward(r.Context(), h.cfg.ChatbotURL, req)
	h.writeForwarded(w, start, res, err)
}

// HandleUpload
//
// {"filename": "...", "file": "<base64>"} 를 받아 blob 으로 저장한다.
//   - 빈 body / 필드 누락 → 400
//   - base64 디코딩 실패 → 500 loaded:false (storage 는 호출하지 않음)
//   - blob 쓰기 실패    → 500 loaded:false
//   - 성공              → 200 loaded:true
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	atomic.AddInt64(&h.metrics.HTTPRequestsTotal, 1)

	if r.Method != http.MethodPost {
		h.writeError(w, start, model.Public(model.ErrMethodNotAllowed, model.MsgMethodNotAllowed))
		return
	}

	var req model.UploadRequest
	err := h.decodeBody(w, r, func(fields map[string]json.RawMessage) error {
		req.Filename = stringField(fields, "filename")
		req.File = stringField(fields, "file")
		if req.Filename == "" || req.File == "" {
			return model.Public(model.ErrValidation, model.MsgMissingFile)
		}
		return nil
	})
	if err != nil {
		h.writeError(w, start, err)
		return
	}

	n, err := h.storeFile(r.Context(), req)
	if err != nil {
		atomic.AddInt64(&h.metrics.UploadErrorsTotal, 1)
		log.Ctx(r.Context()).Error().Err(err).Str("filename", req.Filename).Msg("an error occurred while uploading the file")
		h.writeUpload(w, start, http.StatusInternalServerError, false)
		return
	}

	atomic.AddInt64(&h.metrics.UploadsStoredTotal, 1)
	atomic.AddInt64(&h.metrics.UploadedBytesTotal, int64(n))
	log.Ctx(r.Context()).Info().Str("filename", req.Filename).Int("bytes", n).Msg("file uploaded")
	h.writeUpload(w, start, http.StatusOK, true)
}

// storeFile 은 파일 내용을 디코딩해 한 번 저장한다. 저장한 바이트 수를 돌려준다.
func (h *Handler) storeFile(ctx context.Context, req model.UploadRequest) (int, error) {
	data, err := decodeBase64(req.File)
	if err != nil {
		return 0, fmt.Errorf("decode file %q: %v: %w", req.Filename, err, model.ErrStorage)
	}

	if err := h.store.Put(ctx, req.Filename, data, http.DetectContentType(data)); err != nil {
		return 0, fmt.Errorf("%v: %w", err, model.ErrStorage)
	}
	return len(data), nil
}

// decodeBase64 는 표준(padding 있음) 인코딩을 먼저 시도하고,
// 실패하면 padding 없는 인코딩으로 한 번 더 시도한다.
// 줄바꿈(MIME 스타일 76자 줄바꿈)은 무시한다.
func decodeBase64(s string) ([]byte, error) {
	s = strings.NewReplacer("\r", "", "\n", "").Replace(strings.TrimSpace(s))

	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(s); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

// decodeBody
//
// 공통 body 처리:
//  1. MaxBodySize 제한 (초과 시 413)
//  2. BodyPool 버퍼로 읽기
//  3. 빈 body → 400
//  4. JSON object 로 파싱 후 validate 호출
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, validate func(map[string]json.RawMessage) error) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodySize)
	defer r.Body.Close()

	buf := pool.GetBody()
	defer pool.PutBody(buf, h.cfg.MaxBodySize*2)

	if _, err := io.Copy(buf, r.Body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.Public(model.ErrBodyTooLarge, model.MsgBodyTooLarge)
		}
		return model.Public(model.ErrValidation, model.MsgUnreadableBody)
	}

	body := bytes.TrimSpace(buf.Bytes())
	if len(body) == 0 {
		return model.Public(model.ErrValidation, model.MsgEmptyBody)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return model.Public(model.ErrValidation, model.MsgInvalidJSON)
	}
	return validate(fields)
}

// stringField 는 fields[key] 가 JSON 문자열이면 그 값을, 아니면 "" 를 돌려준다.
func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// HandleMetrics
//
// 게이트웨이 카운터 값들을 text 로 출력한다.
func (h *Handler) HandleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, h.metrics.String())
}
