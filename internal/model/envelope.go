// internal/model/envelope.go
package model

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// 클라이언트에 노출되는 고정 메시지.
// downstream / storage 의 상세 에러는 로그로만 남기고 응답에는 싣지 않는다.
const (
	MsgInternalError    = "Internal Server Error"
	MsgMethodNotAllowed = "Method not allowed"
	MsgEmptyBody        = "Request body is empty"
	MsgInvalidJSON      = "Request body is not a valid JSON object"
	MsgMissingMessage   = "'message' not provided in the request"
	MsgMissingFile      = "File name or file content not provided in the request"
	MsgBodyTooLarge     = "Request body is too large"
	MsgUnreadableBody   = "Request body could not be read"
)

// ResultEnvelope
// ------------------------------------------------------------
// {result, processing_time_seconds} 형태의 공통 응답.
// Result 에는 문자열 메시지 또는 downstream payload(json) 가 들어간다.
type ResultEnvelope struct {
	Result                any     `json:"result"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
}

// UploadEnvelope
// ------------------------------------------------------------
// /upload 응답. 실패 시에는 Result 에 일반화된 메시지를 싣는다.
type UploadEnvelope struct {
	Loaded                bool    `json:"loaded"`
	Result                string  `json:"result,omitempty"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
}

// WithProcessingTime
//
// downstream payload 에 processing_time_seconds 를 붙인 응답 body 를 만든다.
//   - payload 가 JSON object 이면 그 안에 필드를 추가(같은 키가 있으면 덮어씀)
//   - 그 외(문자열, 배열, 숫자, null)는 {"result": payload, ...} 로 감싼다
func WithProcessingTime(payload json.RawMessage, seconds float64) ([]byte, error) {
	payload = bytes.TrimSpace(payload)

	var obj map[string]json.RawMessage
	if len(payload) > 0 && payload[0] == '{' {
		if err := json.Unmarshal(payload, &obj); err == nil && obj != nil {
			t, err := json.Marshal(seconds)
			if err != nil {
				return nil, err
			}
			obj["processing_time_seconds"] = t
			return json.Marshal(obj)
		}
	}

	var result any = payload
	if len(payload) == 0 {
		result = nil
	}
	return json.Marshal(ResultEnvelope{Result: result, ProcessingTimeSeconds: seconds})
}
