// internal/storage/storage.go
package storage

import (
	"context"
	"fmt"

	"docchat-gateway/internal/config"
)

// BlobStore 는 이름(key) 단위로 바이트를 저장하는 blob 저장소.
// 같은 이름이 이미 있으면 덮어쓴다.
//
// 구현체는 프로세스 시작 시 한 번 만들어 핸들러에 주입하며,
// 여러 요청에서 동시에 호출해도 안전해야 한다.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
}

// New 는 cfg.StorageBackend 에 맞는 BlobStore 를 만든다.
func New(ctx context.Context, cfg config.Config) (BlobStore, error) {
	switch cfg.StorageBackend {
	case config.BackendAzure:
		return NewAzureStore(cfg)
	case config.BackendS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
