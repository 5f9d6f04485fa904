package main

import (
	"log"

	"github.com/H420Prajyot/Matrix/internal/version"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync() // nolint: errcheck

	logger.Info(
		"starting Matrix API server",
		zap.String("version", version.Version()),
		zap.String("commit", version.Commit()),
	)

	apiServer, err := getAPIServerFromEnvironment(logger)
	if err != nil {
		logger.Fatal("error initializing API server", zap.Error(err))
	}

	logger.Fatal(
		"API server stopped",
		zap.Error(apiServer.ListenAndServe()),
	)
}
