package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/estateflow/server/internal/adapter/outbound/backendapi"
	"github.com/estateflow/server/internal/infra/config"
	"github.com/estateflow/server/internal/infra/httpclient"
	"github.com/estateflow/server/internal/shared/logger"
)

type globalOptions struct {
	configPath string
	backendURL string
	logLevel   string
}

// env holds what every command needs to talk to the backend.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	client *backendapi.Client
}

func loadEnv(opts *globalOptions) (*env, error) {
	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.backendURL != "" {
		cfg.Backend.BaseURL = opts.backendURL
	}

	log, err := logger.NewZapLogger(&logger.Config{Level: opts.logLevel, Format: "console"})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	client := backendapi.NewClient(cfg.Backend.BaseURL, httpclient.New(cfg.Backend, "estatectl/"+Version), cfg.Backend.CircuitBreaker, log)
	return &env{cfg: cfg, logger: log, client: client}, nil
}

func (e *env) close() {
	_ = e.logger.Sync()
}
