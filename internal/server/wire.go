package server

import (
	"context"
	"fmt"

	"docchat-gateway/internal/bridge"
	"docchat-gateway/internal/config"
	"docchat-gateway/internal/metrics"
	"docchat-gateway/internal/storage"
)

// Setup
//
// 프로세스 시작 시 한 번 호출해 공유 자원을 만든다.
//   - blob store client (요청 간 공유, read-only)
//   - downstream bridge (http.Client 공유)
//   - 카운터 / Prometheus collector
//
// cmd/server 와 cmd/lambda 가 같은 구성을 쓴다.
func Setup(ctx context.Context, cfg config.Config) (*Handler, *metrics.HTTPCollector, error) {
	m := metrics.New()

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init blob store: %w", err)
	}

	h := NewHandler(cfg, m, bridge.New(cfg, m), store)
	return h, metrics.NewHTTPCollector("docchat"), nil
}
