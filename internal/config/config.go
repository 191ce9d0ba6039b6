// internal/config/config.go
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// 스토리지 백엔드 종류
const (
	BackendAzure = "azure"
	BackendS3    = "s3"
)

// Config
//
// 게이트웨이 실행 시 필요한 모든 환경 변수 값을 보관하는 구조체.
// 모든 값은 프로세스 시작 시점에 Load() 에 의해 초기화되며,
// 이후에는 변경되지 않는 불변(read-only) 설정들이다.
// 핸들러들은 이 값을 복사본으로 들고 있으므로 동시 접근에 안전하다.
type Config struct {

	// ---------------------------
	// Blob Storage
	// ---------------------------

	StorageBackend          string // "azure" | "s3"
	StorageConnectionString string // azure: 계정 connection string / s3: "Region=..;Endpoint=.."
	ContainerName           string // 업로드 대상 컨테이너 (s3 에서는 bucket)
	StorageTimeout          time.Duration

	// ---------------------------
	// Downstream 서비스
	// ---------------------------

	RefreshURL        string // 검색 인덱스 refresh 엔드포인트
	ChatbotURL        string // chatbot completion 엔드포인트
	APIKey            string // 두 downstream 공통 api-key 헤더 값
	DownstreamTimeout time.Duration

	// ---------------------------
	// 서버 식별자 / 네트워크
	// ---------------------------

	ServiceName string
	InstanceID  string // 호스트명 기반, 실패 시 랜덤 hex
	HTTPAddr    string
	MaxBodySize int64 // 단일 HTTP 요청 body 최대 크기 (바이트). base64 파일이 들어오므로 넉넉하게.

	// ---------------------------
	// 로그
	// ---------------------------

	LogLevel   string
	LogPretty  bool
	LogSampleN uint32
}

// Load
//
// 환경 변수 기반으로 Config 값을 초기화한다.
// 필수 env 가 비어있으면 즉시 프로세스를 종료(fail-fast).
func Load() Config {
	cfg, err := Parse(os.Getenv)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return cfg
}

// Parse
//
// getenv 로부터 Config 를 구성한다. 누락된 필수 값은 한 번에 모아서 보고한다.
func Parse(getenv func(string) string) (Config, error) {
	e := &env{getenv: getenv}

	cfg := Config{
		StorageBackend:          strings.ToLower(e.str("STORAGE_BACKEND", BackendAzure)),
		StorageConnectionString: e.must("STORAGE_CONNECTION_STRING", "AZURE_STORAGE_CONNECTION_STRING"),
		ContainerName:           e.must("CONTAINER_NAME"),
		StorageTimeout:          e.dur("STORAGE_TIMEOUT", 30*time.Second),

		RefreshURL:        e.must("REFRESH_URL"),
		ChatbotURL:        e.must("CHATBOT_URL"),
		APIKey:            e.must("API_KEY"),
		DownstreamTimeout: e.dur("DOWNSTREAM_TIMEOUT", 30*time.Second),

		ServiceName: e.str("SERVICE_NAME", "docchat-gateway"),
		InstanceID:  fallbackInstanceID(),
		HTTPAddr:    e.str("HTTP_ADDR", ":8080"),
		MaxBodySize: e.i64("MAX_BODY_SIZE", 32<<20),

		LogLevel:   e.str("LOG_LEVEL", "info"),
		LogPretty:  e.flag("LOG_PRETTY", false),
	}

	if n := e.i64("LOG_SAMPLE_N", 1); n >= 1 {
		cfg.LogSampleN = uint32(n)
	} else {
		e.errs = append(e.errs, fmt.Errorf("LOG_SAMPLE_N must be >= 1"))
	}

	if cfg.StorageBackend != BackendAzure && cfg.StorageBackend != BackendS3 {
		e.errs = append(e.errs, fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendAzure, BackendS3, cfg.StorageBackend))
	}
	if cfg.MaxBodySize <= 0 {
		e.errs = append(e.errs, fmt.Errorf("MAX_BODY_SIZE must be positive"))
	}

	if err := errors.Join(e.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// env
//
// must / str / i64 / dur / flag 공통 패턴.
// 누락/형식 오류를 만나도 바로 종료하지 않고 에러를 누적한다.
// (Load 가 마지막에 한 번만 fail-fast 처리)
type env struct {
	getenv func(string) string
	errs   []error
}

func (e *env) lookup(key string) string {
	return strings.TrimSpace(e.getenv(key))
}

// must 는 keys 를 순서대로 조회해 처음으로 비어있지 않은 값을 돌려준다.
func (e *env) must(keys ...string) string {
	for _, k := range keys {
		if v := e.lookup(k); v != "" {
			return v
		}
	}
	e.errs = append(e.errs, fmt.Errorf("missing required env: %s", keys[0]))
	return ""
}

func (e *env) str(key, def string) string {
	if v := e.lookup(key); v != "" {
		return v
	}
	return def
}

func (e *env) i64(key string, def int64) int64 {
	v := e.lookup(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid int env %s=%q: %w", key, v, err))
		return def
	}
	return n
}

func (e *env) dur(key string, def time.Duration) time.Duration {
	v := e.lookup(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid duration env %s=%q: %w", key, v, err))
		return def
	}
	return d
}

func (e *env) flag(key string, def bool) bool {
	v := e.lookup(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid bool env %s=%q: %w", key, v, err))
		return def
	}
	return b
}

// fallbackInstanceID
//
// 이 게이트웨이 인스턴스를 식별하는 고유 값.
//   - 기본: hostname (Function/Lambda 컨테이너마다 고유)
//   - fallback: 12자리 랜덤 hex
func fallbackInstanceID() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	var b [6]byte
	if _, err := rand.Read(b[:]); err == nil {
		return hex.EncodeToString(b[:])
	}
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
