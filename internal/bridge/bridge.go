// internal/bridge/bridge.go
package bridge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"docchat-gateway/internal/config"
	"docchat-gateway/internal/metrics"
	"docchat-gateway/internal/model"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// APIKeyHeader 는 refresh / chatbot 백엔드가 인증에 쓰는 헤더 이름.
const APIKeyHeader = "api-key"

// downstream 응답 body 를 읽을 최대 크기. 넘으면 downstream 에러.
const maxResponseBytes = 16 << 20

// emptyPayload 는 payload 가 없을 때 보내는 body.
// downstream 은 항상 JSON body 를 기대한다.
var emptyPayload = []byte("{}")

// Result
//
// downstream 응답을 정규화한 결과.
//   - StatusCode: downstream 이 준 상태코드 그대로
//   - Payload: 응답의 "body" 필드, 또는 JSON 이 아닌 응답이면 {"result": "<text>"}
type Result struct {
	StatusCode int
	Payload    json.RawMessage
}

// Bridge
//
// 프론트엔드 요청을 백엔드 서비스로 넘기는 공용 POST 헬퍼.
// 하나의 http.Client 를 공유하며 요청마다 독립적인 round trip 을 수행하므로
// 여러 goroutine 에서 동시에 써도 안전하다. 재시도는 하지 않는다.
type Bridge struct {
	client  *http.Client
	apiKey  string
	timeout time.Duration
	metrics *metrics.Metrics
}

// New 는 cfg 의 APIKey / DownstreamTimeout 으로 Bridge 를 만든다.
func New(cfg config.Config, m *metrics.Metrics) *Bridge {
	return NewWithClient(&http.Client{}, cfg, m)
}

// NewWithClient 는 transport 를 직접 지정할 때 쓴다 (테스트 등).
func NewWithClient(client *http.Client, cfg config.Config, m *metrics.Metrics) *Bridge {
	return &Bridge{
		client:  client,
		apiKey:  cfg.APIKey,
		timeout: cfg.DownstreamTimeout,
		metrics: m,
	}
}

// Forward
//
// url 로 payload 를 JSON POST 하고 응답을 Result 로 정규화한다.
//
// 흐름:
//  1. 네트워크 에러 / 2xx 아님 → 로그 후 ErrDownstream (본문은 응답에 싣지 않음)
//     응답이 maxResponseBytes 를 넘어도 ErrDownstream
//  2. JSON 파싱 실패          → raw text 를 {"result": text} 로, 원래 상태코드 유지
//  3. "body" 키 없음          → ErrDownstream
//  4. 정상                    → "body" 필드를 원래 상태코드와 함께 반환
func (b *Bridge) Forward(ctx context.Context, url string, payload any) (Result, error) {
	atomic.AddInt64(&b.metrics.DownstreamCallsTotal, 1)

	res, err := b.forward(ctx, url, payload)
	if err != nil {
		atomic.AddInt64(&b.metrics.DownstreamErrorsTotal, 1)
	}
	return res, err
}

func (b *Bridge) forward(ctx context.Context, url string, payload any) (Result, error) {
	reqBody := emptyPayload
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Result{}, fmt.Errorf("encode payload: %w", err)
		}
		reqBody = data
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %v: %w", err, model.ErrDownstream)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(APIKeyHeader, b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("url", url).Msg("POST to downstream failed")
		return Result{}, fmt.Errorf("post %s: %v: %w", url, err, model.ErrDownstream)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("url", url).Int("status", resp.StatusCode).Msg("reading downstream response failed")
		return Result{}, fmt.Errorf("read response: %v: %w", err, model.ErrDownstream)
	}
	if len(raw) > maxResponseBytes {
		log.Ctx(ctx).Error().Str("url", url).Int("status", resp.StatusCode).Int("limit", maxResponseBytes).Msg("downstream response too large")
		return Result{}, fmt.Errorf("post %s: response exceeds %d bytes: %w", url, maxResponseBytes, model.ErrDownstream)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Ctx(ctx).Error().
			Str("url", url).
			Int("status", resp.StatusCode).
			Str("response", string(raw)).
			Msg("downstream returned non-2xx")
		return Result{}, fmt.Errorf("post %s: HTTP %d: %w", url, resp.StatusCode, model.ErrDownstream)
	}

	log.Ctx(ctx).Debug().Str("url", url).Int("status", resp.StatusCode).Int("bytes", len(raw)).Msg("downstream POST ok")

	// ------------------------------------------------------------
	// JSON 이 아니면 raw text 를 그대로 넘긴다
	// ------------------------------------------------------------
	if !json.Valid(raw) {
		log.Ctx(ctx).Warn().Str("url", url).Int("status", resp.StatusCode).Msg("downstream response is not valid JSON, passing raw text through")
		wrapped, err := json.Marshal(map[string]string{"result": string(raw)})
		if err != nil {
			return Result{}, fmt.Errorf("wrap raw response: %w", err)
		}
		return Result{StatusCode: resp.StatusCode, Payload: wrapped}, nil
	}

	// ------------------------------------------------------------
	// {status, body} 중 body 만 꺼낸다
	// ------------------------------------------------------------
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope == nil {
		log.Ctx(ctx).Error().Str("url", url).Msg("downstream response is not a JSON object")
		return Result{}, fmt.Errorf("post %s: response is not an object: %w", url, model.ErrDownstream)
	}
	body, ok := envelope["body"]
	if !ok {
		log.Ctx(ctx).Error().Str("url", url).Msg("no 'body' key in downstream response")
		return Result{}, fmt.Errorf("post %s: missing body: %w", url, model.ErrDownstream)
	}

	return Result{StatusCode: resp.StatusCode, Payload: body}, nil
}
