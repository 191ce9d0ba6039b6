// Lambda 진입점. cmd/server 와 같은 라우터를 API Gateway HTTP API 뒤에서 돌린다.
package main

import (
	"context"

	"docchat-gateway/internal/config"
	"docchat-gateway/internal/logger"
	"docchat-gateway/internal/server"
	"docchat-gateway/internal/serverless"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg)

	// cold start 때 한 번만 만들고 이후 invocation 들이 공유한다.
	h, collector, err := server.Setup(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}

	// Lambda 응답은 문자열 body 로 돌려주므로 gzip 없이 라우트만 건다.
	adapter := serverless.NewAdapter(server.Routes(h, collector))
	lambda.Start(adapter.Handle)
}
