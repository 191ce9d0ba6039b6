// internal/storage/azure.go
package storage

import (
	"context"
	"fmt"
	"time"

	"docchat-gateway/internal/config"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// AzureStore 는 Azure Blob Storage 컨테이너에 파일을 올린다.
// azblob.Client 는 내부적으로 요청마다 독립 호출을 하므로 공유해도 안전하다.
type AzureStore struct {
	client    *azblob.Client
	container string
	timeout   time.Duration
}

// NewAzureStore 는 connection string 으로 client 를 만든다.
// 실제 네트워크 호출은 첫 업로드 때 일어난다.
//
// azcore 기본 정책은 408/429/5xx 에 최대 3번 재시도하므로 MaxRetries=-1 로 끈다.
// 업로드 한 건은 blob PUT 한 번이다.
func NewAzureStore(cfg config.Config) (*AzureStore, error) {
	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: -1},
		},
	}
	client, err := azblob.NewClientFromConnectionString(cfg.StorageConnectionString, opts)
	if err != nil {
		return nil, fmt.Errorf("azure blob client: %w", err)
	}
	return &AzureStore{
		client:    client,
		container: cfg.ContainerName,
		timeout:   cfg.StorageTimeout,
	}, nil
}

// Put 은 block blob 으로 data 를 올린다 (overwrite).
func (s *AzureStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	opts := &azblob.UploadBufferOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}

	if _, err := s.client.UploadBuffer(ctx, s.container, name, data, opts); err != nil {
		return fmt.Errorf("upload %s/%s: %w", s.container, name, err)
	}
	return nil
}
