// internal/logger/log.go
package logger

import (
	"io"
	"os"
	"strings"

	"docchat-gateway/internal/config"

	stdlog "log"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Init
//
// 애플리케이션 시작 시 한 번만 호출되는 로거 초기화 함수.
// Config(환경변수)에 따라 '개발자용 콘솔' 또는 '운영용 JSON 로그'로 전환한다.
//
//   - LOG_PRETTY=true : 색상 콘솔 출력
//   - LOG_PRETTY=false: JSON (Application Insights / CloudWatch 수집용)
//
// 모든 로그에 "service", "instance" 필드가 붙는다.
// Debug/Info 는 LOG_SAMPLE_N 에 따라 샘플링되고 Warn/Error 는 100% 기록한다.
func Init(cfg config.Config) {
	InitWriter(cfg, nil)
}

// InitWriter 는 출력 대상을 지정할 수 있는 Init. out 이 nil 이면 stdout.
func InitWriter(cfg config.Config, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}

	level := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel))); err == nil && l != zerolog.NoLevel {
		level = l
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = out
	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
		}
	}

	base := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("instance", cfg.InstanceID).
		Logger()

	logger := base
	if cfg.LogSampleN > 1 {
		logger = base.Sample(&zerolog.LevelSampler{
			DebugSampler: &zerolog.BasicSampler{N: cfg.LogSampleN},
			InfoSampler:  &zerolog.BasicSampler{N: cfg.LogSampleN},
			// Warn/Error: 샘플링하지 않음
		})
	}

	zlog.Logger = logger

	// 요청 context 에 logger 가 없을 때 log.Ctx(ctx) 가 전역 logger 로 떨어지도록 한다.
	zerolog.DefaultContextLogger = &zlog.Logger

	// 표준 log 패키지(log.Printf, log.Fatalf)도 zerolog 로 흘려보낸다.
	stdlog.SetFlags(0)
	stdlog.SetOutput(zlog.Logger)
}
