package server

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"docchat-gateway/internal/bridge"
	"docchat-gateway/internal/model"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// writeJSON 은 이미 직렬화된 body 를 application/json 으로 쓴다.
func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// encodeJSON 은 v 를 직렬화해서 쓴다. 직렬화 실패는 500 으로 대체한다.
func encodeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("encoding response failed")
		writeJSON(w, http.StatusInternalServerError, []byte(`{"result":"`+model.MsgInternalError+`"}`))
		return
	}
	writeJSON(w, status, body)
}

// elapsed 는 핸들러 진입 이후 경과 시간(초).
func elapsed(start time.Time) float64 {
	return time.Since(start).Seconds()
}

// writeError
//
// 에러 분류에 맞는 상태코드와 {result, processing_time_seconds} 를 쓴다.
// 공개 메시지가 없는 에러(downstream 등)는 일반화된 메시지로 바뀐다.
func (h *Handler) writeError(w http.ResponseWriter, start time.Time, err error) {
	status := model.StatusOf(err)

	switch {
	case errors.Is(err, model.ErrMethodNotAllowed):
		atomic.AddInt64(&h.metrics.HTTPRequestsRejectedMethodTotal, 1)
		w.Header().Set("Allow", http.MethodPost)
	case errors.Is(err, model.ErrValidation):
		atomic.AddInt64(&h.metrics.HTTPRequestsRejectedValidationTotal, 1)
	case errors.Is(err, model.ErrBodyTooLarge):
		atomic.AddInt64(&h.metrics.HTTPRequestsRejectedBodyTooLargeTotal, 1)
	}

	encodeJSON(w, status, model.ResultEnvelope{
		Result:                model.PublicMessage(err),
		ProcessingTimeSeconds: elapsed(start),
	})
}

// writeForwarded 는 bridge 결과에 처리시간을 붙여 downstream 상태코드 그대로 돌려준다.
func (h *Handler) writeForwarded(w http.ResponseWriter, start time.Time, res bridge.Result, err error) {
	if err != nil {
		h.writeError(w, start, err)
		return
	}

	secs := elapsed(start)
	body, err := model.WithProcessingTime(res.Payload, secs)
	if err != nil {
		log.Error().Err(err).Msg("merging processing time into downstream payload failed")
		h.writeError(w, start, err)
		return
	}

	log.Debug().Float64("processing_time_seconds", secs).Int("status", res.StatusCode).Msg("request forwarded")
	writeJSON(w, res.StatusCode, body)
}

// writeUpload 는 /upload 결과 envelope 를 쓴다.
func (h *Handler) writeUpload(w http.ResponseWriter, start time.Time, status int, loaded bool) {
	env := model.UploadEnvelope{
		Loaded:                loaded,
		ProcessingTimeSeconds: elapsed(start),
	}
	if !loaded {
		env.Result = model.MsgInternalError
	}
	encodeJSON(w, status, env)
}
