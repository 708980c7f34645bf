package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/internal/app"
	"github.com/kapu/movie-advisor-bot/internal/command"
	"github.com/kapu/movie-advisor-bot/internal/config"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/util"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	// Initialize logger
	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	buildCtx, buildCancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		return 1
	}
	defer container.Close()

	failed := false
	send := func(_, message string) error {
		_, err := fmt.Fprintln(os.Stdout, message)
		return err
	}
	sendError := func(room, message string) error {
		failed = true
		return send(room, container.Formatter.FormatError(message))
	}

	dispatcher, err := container.NewDispatcher(send, sendError)
	if err != nil {
		logger.Error("Failed to initialize commands", zap.Error(err))
		return 1
	}

	// Cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	message := strings.TrimSpace(strings.Join(os.Args[1:], " "))
	if message == "" {
		message = cfg.Bot.Prefix + "recommend"
	}
	parsed := container.MessageAdapter.ParseMessage(message)

	logger.Info("Movie advisor command",
		zap.String("command", parsed.Type.String()),
		zap.Any("params", parsed.Params),
	)

	user := os.Getenv("USER")
	cmdCtx := domain.NewCommandContext("cli", user, parsed.RawMessage)
	if _, err := dispatcher.Publish(ctx, cmdCtx, command.CommandEvent{Type: parsed.Type, Params: parsed.Params}); err != nil {
		logger.Error("Command failed", zap.String("command", parsed.Type.String()), zap.Error(err))
		return 1
	}
	if failed {
		return 1
	}
	return 0
}
