// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/contentpro/ideagate/adapters/clock"
	"github.com/contentpro/ideagate/adapters/generator"
	"github.com/contentpro/ideagate/adapters/idgen"
	"github.com/contentpro/ideagate/adapters/jsonfile"
	"github.com/contentpro/ideagate/adapters/memory"
	"github.com/contentpro/ideagate/adapters/metrics"
	"github.com/contentpro/ideagate/adapters/sqlite"
	"github.com/contentpro/ideagate/adapters/telegram"
	"github.com/contentpro/ideagate/app"
	"github.com/contentpro/ideagate/config"
	"github.com/contentpro/ideagate/ports"
	"github.com/contentpro/ideagate/web"
	"github.com/rs/zerolog"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Holder     *config.Holder // nil when hot reload is disabled
	DB         *sqlite.DB     // nil unless the sqlite driver is used
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	Entitlements *app.EntitlementService
	Gate         *app.UsageGate
	Payments     *app.PaymentFlow
	Bot          *app.Bot
	Poller       *telegram.Poller
}

// New builds the application from a loaded configuration.
func New(cfg *config.Config) (*App, error) {
	return build(cfg, nil)
}

// NewWithHotReload builds the application with config file watching.
// Quota and price changes apply without restart.
func NewWithHotReload(path string) (*App, error) {
	logger := setupLogger(nil)

	holder, err := config.NewHolder(path, logger)
	if err != nil {
		return nil, err
	}

	a, err := build(holder.Get(), holder)
	if err != nil {
		return nil, err
	}

	holder.OnChange(func(cfg *config.Config) {
		a.Gate.SetDailyQuota(cfg.Quota.DailyFree)
		a.Payments.SetPrices(cfg.PriceTable())
		a.Payments.SetSubscriptionDays(cfg.Quota.SubscriptionDays)
	})
	if err := holder.WatchFile(); err != nil {
		return nil, err
	}
	holder.WatchSignals()

	return a, nil
}

func build(cfg *config.Config, holder *config.Holder) (*App, error) {
	logger := setupLogger(cfg)

	collector := metrics.New()

	users, conversations, db, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	gen, err := buildGenerator(cfg)
	if err != nil {
		return nil, err
	}

	tgClient := telegram.NewClient(telegram.ClientConfig{
		BaseURL:       cfg.Telegram.APIURL,
		Token:         cfg.Telegram.Token,
		ProviderToken: cfg.Telegram.ProviderToken,
		Timeout:       cfg.Telegram.Timeout,
	})

	clk := clock.Real{}

	entitlements := app.NewEntitlementService(users, clk, collector,
		logger.With().Str("component", "entitlements").Logger())
	gate := app.NewUsageGate(entitlements, cfg.Quota.DailyFree,
		logger.With().Str("component", "gate").Logger())
	payments := app.NewPaymentFlow(entitlements, cfg.PriceTable(), cfg.Quota.SubscriptionDays,
		logger.With().Str("component", "payments").Logger())

	bot := app.NewBot(app.BotConfig{
		Entitlements:  entitlements,
		Gate:          gate,
		Payments:      payments,
		Generator:     gen,
		Conversations: conversations,
		Messenger:     tgClient,
		Clock:         clk,
		Metrics:       collector,
		Logger:        logger.With().Str("component", "bot").Logger(),
	})

	poller := telegram.NewPoller(tgClient, bot, collector, idgen.UUID{},
		logger.With().Str("component", "poller").Logger())

	handler := web.NewHandler(users, cfg.Metrics.Path,
		logger.With().Str("component", "web").Logger())

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return &App{
		Logger:       logger,
		Holder:       holder,
		DB:           db,
		HTTPServer:   httpServer,
		Metrics:      collector,
		Entitlements: entitlements,
		Gate:         gate,
		Payments:     payments,
		Bot:          bot,
		Poller:       poller,
	}, nil
}

// openStorage builds the stores for the configured driver.
func openStorage(cfg *config.Config) (ports.UserStore, ports.ConversationStore, *sqlite.DB, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return memory.NewUserStore(), memory.NewConversationStore(), nil, nil

	case "jsonfile":
		store, err := jsonfile.Open(cfg.Storage.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open jsonfile store: %w", err)
		}
		return store, store, nil, nil

	case "sqlite":
		db, err := sqlite.Open(cfg.Storage.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return sqlite.NewUserStore(db), sqlite.NewConversationStore(db), db, nil
	}

	return nil, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// buildGenerator builds the content generator for the configured mode.
func buildGenerator(cfg *config.Config) (ports.Generator, error) {
	switch cfg.Generator.Mode {
	case "openai":
		return generator.NewOpenAI(generator.OpenAIConfig{
			BaseURL:   cfg.Generator.BaseURL,
			APIKey:    cfg.Generator.APIKey,
			Model:     cfg.Generator.Model,
			MaxTokens: cfg.Generator.MaxTokens,
			Timeout:   cfg.Generator.Timeout,
		}), nil
	case "static":
		return generator.NewStatic(), nil
	}
	return nil, fmt.Errorf("unknown generator mode %q", cfg.Generator.Mode)
}

// Run starts the HTTP surface and the update poll loop, and blocks
// until the context is cancelled. The poller drains in-flight handlers
// before Run returns.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("http surface listening")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	pollDone := make(chan error, 1)
	go func() {
		pollDone <- a.Poller.Run(ctx)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case err := <-pollDone:
		if err != nil {
			return fmt.Errorf("poll loop: %w", err)
		}
	case <-ctx.Done():
		a.Logger.Info().Msg("shutdown requested")
		<-pollDone
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warn().Err(err).Msg("http shutdown incomplete")
	}

	return a.Close()
}

// Close releases resources.
func (a *App) Close() error {
	if a.Holder != nil {
		a.Holder.Stop()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// setupLogger builds the zerolog logger from config; a nil config uses
// environment defaults (bootstrap before config is available).
func setupLogger(cfg *config.Config) zerolog.Logger {
	levelStr := os.Getenv("IDEAGATE_LOG_LEVEL")
	format := os.Getenv("IDEAGATE_LOG_FORMAT")
	if cfg != nil {
		levelStr = cfg.Logging.Level
		format = cfg.Logging.Format
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
