package bot

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-antijudi/internal/config"
	"tg-antijudi/internal/logger"
)

// WebhookServer represents a webhook HTTP server
type WebhookServer struct {
	server   *http.Server
	certFile string
	keyFile  string
}

// Start starts the webhook server
func (ws *WebhookServer) Start() error {
	logger.Infof("Starting webhook server on %s", ws.server.Addr)
	if ws.certFile != "" && ws.keyFile != "" {
		logger.Infof("Using TLS with cert: %s, key: %s", ws.certFile, ws.keyFile)
		return ws.server.ListenAndServeTLS(ws.certFile, ws.keyFile)
	}
	logger.Warningf("Webhook server running without TLS, a HTTPS proxy must terminate TLS in front of it")
	return ws.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (ws *WebhookServer) Shutdown(ctx context.Context) error {
	return ws.server.Shutdown(ctx)
}

// SetupWebhook registers the webhook with Telegram and prepares the server
// that receives it.
func SetupWebhook(ctx context.Context, bot *telego.Bot, cfg config.WebhookConfig, secretToken string) (*th.BotHandler, *WebhookServer, error) {
	if cfg.Endpoint == "" {
		return nil, nil, fmt.Errorf("webhook endpoint is required")
	}
	listenPort := cfg.ListenPort
	if listenPort == "" {
		listenPort = "8443"
	}
	if (cfg.CertFile == "" || cfg.KeyFile == "") && !strings.HasPrefix(cfg.Endpoint, "https://") {
		return nil, nil, fmt.Errorf("HTTPS configuration required: set cert_file and key_file in config or use a HTTPS proxy")
	}

	parsedURL, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid webhook endpoint: %w", err)
	}
	webhookPath := parsedURL.Path
	if webhookPath == "" {
		webhookPath = "/webhook"
	}

	logger.Infof("Setting webhook to: %s", cfg.Endpoint)
	err = bot.SetWebhook(ctx, &telego.SetWebhookParams{
		URL:            cfg.Endpoint,
		AllowedUpdates: allowedUpdates,
		SecretToken:    secretToken,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set webhook: %w", err)
	}
	if info, err := bot.GetWebhookInfo(ctx); err != nil {
		logger.Warningf("Failed to get webhook info: %v", err)
	} else {
		logger.Infof("Webhook info: URL=%s, PendingUpdateCount=%d, AllowedUpdates=%v",
			info.URL, info.PendingUpdateCount, info.AllowedUpdates)
	}

	mux := http.NewServeMux()
	if cfg.DebugPath != "" {
		mux.HandleFunc(cfg.DebugPath, debugHandler(ctx, bot, cfg.Endpoint))
	}

	updates, err := bot.UpdatesViaWebhook(ctx,
		telego.WebhookHTTPServeMux(mux, webhookPath, secretToken),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get updates channel: %w", err)
	}

	bh, err := th.NewBotHandler(bot, updates)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create bot handler: %w", err)
	}

	return bh, &WebhookServer{
		server: &http.Server{
			Addr:              "0.0.0.0:" + listenPort,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		certFile: cfg.CertFile,
		keyFile:  cfg.KeyFile,
	}, nil
}

// debugHandler reports the webhook state as plain text.
func debugHandler(ctx context.Context, bot *telego.Bot, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Infof("Debug endpoint accessed: %s %s", r.Method, r.URL.Path)

		var b strings.Builder
		b.WriteString("Bot webhook server is running\n\n")
		fmt.Fprintf(&b, "Webhook endpoint: %s\n", endpoint)

		info, err := bot.GetWebhookInfo(ctx)
		if err != nil {
			fmt.Fprintf(&b, "\nError getting webhook info: %v\n", err)
		} else {
			fmt.Fprintf(&b, "\nURL: %s\nPending Updates: %d\n", info.URL, info.PendingUpdateCount)
			if info.LastErrorDate > 0 {
				fmt.Fprintf(&b, "Last Error: [%s] %s\n",
					time.Unix(int64(info.LastErrorDate), 0).Format("2006-01-02 15:04:05"), info.LastErrorMessage)
			}
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(b.String()))
	}
}
