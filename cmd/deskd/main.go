package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	apiPkg "github.com/syntaxsamurai/supportdesk/internal/api"
	"github.com/syntaxsamurai/supportdesk/internal/chat"
	"github.com/syntaxsamurai/supportdesk/internal/config"
	slackconn "github.com/syntaxsamurai/supportdesk/internal/connector/slack"
	"github.com/syntaxsamurai/supportdesk/internal/connector/telegram"
	"github.com/syntaxsamurai/supportdesk/internal/connector/webhook"
	"github.com/syntaxsamurai/supportdesk/internal/connector/ws"
	"github.com/syntaxsamurai/supportdesk/internal/kb"
	"github.com/syntaxsamurai/supportdesk/internal/logbuf"
	"github.com/syntaxsamurai/supportdesk/internal/respond"
	"github.com/syntaxsamurai/supportdesk/internal/scheduler"
	"github.com/syntaxsamurai/supportdesk/internal/ticket"
)

func main() {
	configPath := flag.String("config", "", "Path to config JSON file")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	// Set up logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logBuf := logbuf.New(2000)
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logbuf.NewHandler(jsonHandler, logBuf))

	// Load config (file or env)
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("deskd starting", "store", cfg.Store.Path)

	// 1. Ticket store + service
	os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755)
	store, err := ticket.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open ticket store", "path", cfg.Store.Path, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	tickets := ticket.NewService(store, logger.With("component", "tickets"))

	// 2. Session hub + desk
	hub := chat.NewHub(tickets, respond.New(), logger.With("component", "chat"))
	desk := &chat.Desk{Hub: hub, Store: store}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Idle session reaper
	idle := time.Duration(cfg.Chat.IdleTimeout)
	sched := scheduler.New(logger.With("component", "scheduler"))
	err = sched.AddJob("session-reaper", cfg.Chat.ReapSchedule, func() {
		if n := hub.PruneIdle(idle); n > 0 {
			logger.Info("pruned idle sessions", "count", n, "remaining", hub.Len())
		}
	})
	if err != nil {
		logger.Error("invalid reap schedule", "schedule", cfg.Chat.ReapSchedule, "error", err)
		os.Exit(1)
	}
	go safeGo(logger, "scheduler", func() {
		sched.Start(ctx)
	})

	// 4. Knowledge base
	var articles apiPkg.ArticleFinder
	if len(cfg.Knowledge) > 0 {
		sources := make([]kb.Source, len(cfg.Knowledge))
		for i, s := range cfg.Knowledge {
			sources[i] = kb.Source{Title: s.Title, URL: s.URL, Keywords: s.Keywords}
		}
		articles = kb.New(sources, logger.With("component", "kb"))
		logger.Info("knowledge base loaded", "sources", len(sources))
	}

	// 5. Platform connectors
	if cfg.Connectors.Telegram != nil {
		tgConn, err := telegram.New(
			telegram.Config{
				Token:     cfg.Connectors.Telegram.Token,
				AllowFrom: cfg.Connectors.Telegram.AllowFrom,
			},
			desk,
			logger.With("connector", "telegram"),
		)
		if err != nil {
			logger.Error("failed to init telegram connector", "error", err)
			os.Exit(1)
		}
		go safeGo(logger, "telegram", func() { tgConn.Start(ctx) })
	}

	if cfg.Connectors.Slack != nil {
		slConn, err := slackconn.New(
			slackconn.Config{
				BotToken: cfg.Connectors.Slack.BotToken,
				AppToken: cfg.Connectors.Slack.AppToken,
			},
			desk,
			logger.With("connector", "slack"),
		)
		if err != nil {
			logger.Error("failed to init slack connector", "error", err)
			os.Exit(1)
		}
		go safeGo(logger, "slack", func() { slConn.Start(ctx) })
	}

	handlers := apiPkg.Handlers{
		Logs:     logBuf,
		Articles: articles,
	}
	if cfg.Connectors.WebSocket != nil && cfg.Connectors.WebSocket.Enabled {
		handlers.WebSocket = ws.NewGateway(desk, logger.With("connector", "ws"))
		logger.Info("websocket gateway enabled")
	}
	if len(cfg.Connectors.Webhooks) > 0 {
		endpoints := make(map[string]webhook.EndpointConfig, len(cfg.Connectors.Webhooks))
		for name, ep := range cfg.Connectors.Webhooks {
			endpoints[name] = webhook.EndpointConfig{Secret: ep.Secret, BearerToken: ep.BearerToken}
		}
		handlers.Webhook = webhook.New(webhook.Config{Endpoints: endpoints}, desk, logger.With("connector", "webhook"))
		logger.Info("webhook endpoints enabled", "count", len(endpoints))
	}

	// 6. API server
	apiSrv := apiPkg.NewServer(desk, apiPkg.Config{
		Host: cfg.API.Host,
		Port: cfg.API.Port,
		Key:  cfg.API.Key,
	}, logger.With("component", "api"), handlers)

	go safeGo(logger, "api-server", func() { apiSrv.Start(ctx) })
	logger.Info("api server started", "port", cfg.API.Port)

	// 7. Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()
	logger.Info("deskd stopped")
}

// safeGo runs fn with panic recovery.
func safeGo(logger *slog.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("goroutine panicked", "name", name, "panic", fmt.Sprintf("%v", r))
		}
	}()
	fn()
}
