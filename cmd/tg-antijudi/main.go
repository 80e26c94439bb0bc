package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tg-antijudi/internal/admin"
	"tg-antijudi/internal/bot"
	"tg-antijudi/internal/classifier"
	"tg-antijudi/internal/config"
	"tg-antijudi/internal/crash"
	"tg-antijudi/internal/gateway"
	"tg-antijudi/internal/handler"
	"tg-antijudi/internal/logger"
	"tg-antijudi/internal/scheduler"
	"tg-antijudi/internal/service"
	"tg-antijudi/internal/storage"
)

func main() {
	defer crash.RecoverWithStackAndExit("main")

	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Setup(cfg); err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	defer logger.Sync()

	backend, err := storage.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.Storage.Backend, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warningf("Failed to close storage: %v", err)
		}
	}()
	store := storage.NewCoordinator(backend, cfg.Storage.Retry)
	logger.Infof("Storage backend %q ready", cfg.Storage.Backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cls, err := classifier.New(ctx, cfg.Classifier)
	if err != nil {
		log.Fatalf("Failed to create classifier: %v", err)
	}
	if closer, ok := cls.(io.Closer); ok {
		defer closer.Close()
	}

	tgBot, err := bot.NewBot(cfg)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	tg, err := gateway.NewTelegram(ctx, tgBot)
	if err != nil {
		log.Fatalf("Failed to query bot identity: %v", err)
	}

	mod, err := service.New(cfg, store, tg, cls)
	if err != nil {
		log.Fatalf("Failed to create moderator: %v", err)
	}

	botService, webhook, err := bot.Initialize(ctx, cfg, tgBot)
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v", err)
	}
	handler.New(mod, tg).SetupMessageHandlers(botService.Handler)

	sched := scheduler.New(store, mod.Executor(), cfg.Scheduler)
	crash.SafeGoroutine("mute-scheduler", func() {
		sched.Run(ctx)
	})

	var adminServer *admin.Server
	if cfg.Admin.Enabled {
		adminServer = admin.NewServer(mod, cfg.Admin)
		crash.SafeGoroutine("admin-server", func() {
			if err := adminServer.Start(); err != nil {
				logger.Errorf("Admin server error: %v", err)
			}
		})
	}

	if webhook != nil {
		crash.SafeGoroutine("webhook-server", func() {
			if err := webhook.Start(); err != nil {
				logger.Errorf("Webhook server error: %v", err)
			}
		})
		// Give server time to start
		time.Sleep(500 * time.Millisecond)
	}

	crash.SafeGoroutine("bot-handler", botService.Start)
	logger.Infof("Bot @%s is running in %s mode", tg.BotUsername(), cfg.Bot.Mode)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGABRT, syscall.SIGQUIT)

	sig := <-sigChan
	logger.Infof("Received signal: %v, shutting down...", sig)

	cancel()
	botService.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if webhook != nil {
		if err := webhook.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Webhook server shutdown error: %v", err)
		}
	}
	if adminServer != nil {
		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Admin server shutdown error: %v", err)
		}
	}

	logger.Infof("Bot gracefully stopped")
}
