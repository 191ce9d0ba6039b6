// internal/storage/s3.go
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"docchat-gateway/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfgLib "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store 는 S3 (또는 S3 호환 MinIO 등) bucket 에 파일을 올린다.
//   - ContainerName 을 bucket 으로 사용
//   - 업로드 1회 = PutObject 1회 (SDK retry 없음)
//   - 호출마다 StorageTimeout 적용
type S3Store struct {
	client  *s3.Client
	bucket  string
	timeout time.Duration
}

// S3Options 는 S3 용 connection string 을 파싱한 결과.
//
// 형식 (세미콜론 구분, 키는 대소문자 무시):
//
//	Region=ap-northeast-2;Endpoint=http://localhost:9000;PathStyle=true
//
// Region 은 필수. Endpoint 가 비어있으면 AWS 기본 endpoint 를 쓴다.
type S3Options struct {
	Region    string
	Endpoint  string
	PathStyle bool
}

// ParseS3ConnectionString 은 connection string 을 S3Options 로 바꾼다.
func ParseS3ConnectionString(s string) (S3Options, error) {
	var opts S3Options

	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return S3Options{}, fmt.Errorf("invalid s3 connection string segment %q", part)
		}
		v = strings.TrimSpace(v)

		switch strings.ToLower(strings.TrimSpace(k)) {
		case "region":
			opts.Region = v
		case "endpoint":
			opts.Endpoint = v
		case "pathstyle":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return S3Options{}, fmt.Errorf("invalid PathStyle %q: %w", v, err)
			}
			opts.PathStyle = b
		default:
			return S3Options{}, fmt.Errorf("unknown s3 connection string key %q", k)
		}
	}

	if opts.Region == "" {
		return S3Options{}, fmt.Errorf("s3 connection string: Region is required")
	}
	return opts, nil
}

// NewS3Store 는 AWS 기본 credential chain 으로 S3 client 를 만든다.
func NewS3Store(ctx context.Context, cfg config.Config) (*S3Store, error) {
	opts, err := ParseS3ConnectionString(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsCfgLib.LoadDefaultConfig(ctx, awsCfgLib.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// 재시도는 하지 않는다. 실패는 요청 단위로 바로 500 처리.
		o.Retryer = aws.NopRetryer{}
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})

	return &S3Store{
		client:  client,
		bucket:  cfg.ContainerName,
		timeout: cfg.StorageTimeout,
	}, nil
}

// Put 은 PutObject 를 한 번 호출한다. 같은 key 는 덮어쓴다.
func (s *S3Store) Put(ctx context.Context, name string, data []byte, contentType string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, name, err)
	}
	return nil
}
