package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/dmorgan81/capyattitude/internal/config"
	"github.com/dmorgan81/capyattitude/internal/handler"
	"github.com/dmorgan81/capyattitude/internal/inject"
	"github.com/dmorgan81/capyattitude/internal/lambdaurl"
	"github.com/dmorgan81/capyattitude/internal/log"
	"github.com/dmorgan81/capyattitude/internal/server"
	"github.com/samber/do"
)

func main() {
	cfg, err := config.Load(os.Getenv("CAPY_CONFIG"))
	if err != nil {
		log.New(os.Stderr, log.ParseLevel("")).Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, log.ParseLevel(cfg.LogLevel))
	ctx := log.NewContext(context.Background(), logger)
	injector := inject.Setup(ctx, cfg)

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		adapter := do.MustInvoke[*lambdaurl.Adapter](injector)
		lambda.StartWithOptions(adapter.Handle, lambda.WithContext(ctx), lambda.WithEnableSIGTERM(func() {
			_ = injector.Shutdown()
		}))
		return
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := do.MustInvoke[*handler.Handler](injector)
	if err := server.Run(ctx, cfg.Addr, h); err != nil {
		logger.Error("serving", "error", err)
		_ = injector.Shutdown()
		os.Exit(1)
	}
	_ = injector.Shutdown()
}
