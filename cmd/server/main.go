package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"docchat-gateway/internal/config"
	"docchat-gateway/internal/logger"
	"docchat-gateway/internal/server"

	"github.com/rs/zerolog/log"
)

func main() {

	// ====================================================================
	// CPU 설정
	// ====================================================================
	//
	// 컨테이너 vCPU 할당보다 GOMAXPROCS 가 크면 스케줄링 낭비가 생긴다.
	// 게이트웨이는 대부분 downstream 응답을 기다리는 I/O 대기이므로
	// 기본값 1 로 충분하다. 환경변수로 재정의 가능.
	// ====================================================================
	if v := os.Getenv("GOMAXPROCS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			runtime.GOMAXPROCS(n)
		}
	} else {
		runtime.GOMAXPROCS(1)
	}

	// ====================================================================
	// Config & Logger
	// ====================================================================
	//
	// 필수 환경변수(스토리지, downstream URL, API key)가 하나라도 없으면
	// 여기서 바로 종료한다.
	// ====================================================================
	cfg := config.Load()
	logger.Init(cfg)

	// ====================================================================
	// 공유 자원 (blob store / bridge / metrics)
	// ====================================================================
	h, collector, err := server.Setup(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}

	// ====================================================================
	// HTTP 서버 설정
	// ====================================================================
	//
	// ReadTimeout 은 base64 업로드(최대 MaxBodySize)를 읽을 수 있을 만큼,
	// WriteTimeout 은 downstream 호출 시간을 넘기도록 잡는다.
	// ====================================================================
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewRouter(h, collector),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.DownstreamTimeout + cfg.StorageTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// ====================================================================
	// Graceful Shutdown
	// ====================================================================
	//
	// SIGTERM 수신 시 새 요청을 받지 않고, 진행 중인 downstream 호출 /
	// 업로드가 끝날 때까지 기다린다.
	// ====================================================================
	idle := make(chan struct{})
	go func() {
		defer close(idle)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("storage_backend", cfg.StorageBackend).
		Str("container", cfg.ContainerName).
		Msg("gateway listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server terminated")
	}

	<-idle
	log.Info().Msg("shutdown complete")
}
