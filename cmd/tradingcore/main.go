package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/efreitasn/tradingcore/internal/config"
	"github.com/efreitasn/tradingcore/internal/engine"
	"github.com/efreitasn/tradingcore/internal/handler"
	"github.com/efreitasn/tradingcore/internal/logger"
	"github.com/efreitasn/tradingcore/internal/observer"
)

func main() {
	file := flag.String("file", "", "newline-delimited JSON command file (default stdin)")
	envFile := flag.String("env", "", "optional .env file loaded before the environment is parsed")
	flag.Parse()

	if err := run(*file, *envFile); err != nil {
		fmt.Fprintln(os.Stderr, "tradingcore:", err)
		os.Exit(1)
	}
}

func run(path, envFile string) error {
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	// Results go to stdout, logs to stderr.
	log, err := logger.New(cfg.LogLevel, "stderr")
	if err != nil {
		return errors.Wrap(err, "build logger")
	}
	defer func() { _ = log.Sync() }()

	opts, err := cfg.EngineOptions()
	if err != nil {
		return errors.Wrap(err, "engine options")
	}
	tape := observer.NewCollector()
	opts = append(opts,
		engine.WithLogger(log),
		engine.WithExpirationInterval(cfg.ExpirationInterval),
		engine.WithObservers(observer.NewLogging(log), tape),
	)
	e := engine.New(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	e.Start(ctx)

	var in io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrap(err, "open command file")
		}
		defer f.Close()
		in = f
	}

	log.Info("replay starting",
		zap.String("source", sourceName(path)),
		zap.String("strategy", cfg.MatchingStrategy),
		zap.String("id_scheme", cfg.IDScheme),
	)

	n, err := handler.New(e, log).Run(ctx, in, os.Stdout)
	switch {
	case errors.Is(err, context.Canceled):
		log.Info("replay interrupted", zap.Int("commands", n))
		return nil
	case err != nil:
		return errors.Wrapf(err, "replay stopped after %d commands", n)
	}

	symbols := e.Symbols()
	log.Info("replay finished",
		zap.Int("commands", n),
		zap.Int("trades", len(tape.Trades())),
		zap.Strings("symbols", symbols),
	)
	for _, symbol := range symbols {
		log.Info("symbol volume", zap.String("symbol", symbol), zap.Int64("shares", tape.Volume(symbol)))
	}
	return nil
}

func sourceName(path string) string {
	if path == "" {
		return "stdin"
	}
	return path
}
