package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jj82931/Cost-of-Living-saver/internal/catalog"
	"github.com/jj82931/Cost-of-Living-saver/internal/config"
	"github.com/jj82931/Cost-of-Living-saver/internal/llm"
	"github.com/jj82931/Cost-of-Living-saver/internal/logging"
	"github.com/jj82931/Cost-of-Living-saver/internal/pipeline"
	"github.com/jj82931/Cost-of-Living-saver/internal/server"
	"github.com/jj82931/Cost-of-Living-saver/pkg/billing"
	"github.com/jj82931/Cost-of-Living-saver/pkg/constants"
	"go.uber.org/zap"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	configLocation := flag.String("config", "", "path to comparison configuration file (defaults apply when omitted)")
	serverConfigLocation := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.String("address", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	serverConf, err := server.LoadConfig(*serverConfigLocation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": %q}\n", *serverConfigLocation, err.Error())
		os.Exit(1)
	}
	if *address != "" {
		serverConf.Address = *address
	}

	conf := config.Default()
	if *configLocation != "" {
		conf, err = config.LoadConfiguration(*configLocation)
		if err != nil {
			fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": %q}\n", *configLocation, err.Error())
			os.Exit(1)
		}
	}

	// The server's own logging section wins when it sets anything.
	loggingConf := conf.Logging
	if serverConf.Logging != (config.LoggingConfig{}) {
		loggingConf = serverConf.Logging
	}
	logger, err := logging.New(loggingConf, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": %q}\n", err.Error())
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning, zap.String("op", "main"))
	}

	var plans []billing.Plan
	if conf.Catalog.Path == "" {
		plans, err = catalog.LoadSample()
	} else {
		plans, err = catalog.Load(conf.Catalog.Path)
	}
	if err != nil {
		logger.Fatal("failed to load plan catalog",
			zap.String("op", "main"),
			zap.String("path", conf.Catalog.Path),
			zap.Error(err),
		)
	}

	compare := pipeline.DefaultOptions()
	compare.Limit = conf.Match.Limit
	compare.NormalizeText = conf.Extract.NormalizeText
	compare.MinConfidence = conf.Extract.MinConfidence

	opts := server.Options{
		Logger:            logger,
		MaxUploadSize:     serverConf.UploadSizeBytes(),
		Version:           version,
		Plans:             plans,
		Compare:           compare,
		ExplainCacheTTL:   conf.LLM.CacheTTL,
		RequestsPerMinute: serverConf.RequestsPerMinute,
	}
	if conf.LLM.Enabled {
		opts.Explainer = llm.NewClient(conf.LLM.ClientOptions(logger))
	}

	srv := &http.Server{
		Addr:              serverConf.Address,
		Handler:           server.NewHandler(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.String("op", "main"), zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("op", "main"),
		zap.String("address", serverConf.Address),
		zap.Int64("maxUploadSize", serverConf.UploadSizeBytes()),
		zap.Int("plans", len(plans)),
		zap.Bool("explain", opts.Explainer != nil),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	logger.Info("server stopped", zap.String("op", "main"))
}
