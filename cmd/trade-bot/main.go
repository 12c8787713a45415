// trade-bot runs the periodic risk-managed trading cycle for one symbol
// and serves the operational HTTP API.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/broker"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/config"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/engine"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/httpapi"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/monitoring"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/notify"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/scheduler"
	tradesignal "github.com/Mr-BiG1/cursor-trade-bot/internal/signal"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/util"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfgPath := "config/tradebot.yaml"
	if p := os.Getenv("TRADEBOT_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	// Paper mode without credentials runs against the in-memory
	// simulator; anything else talks to Alpaca.
	var gateway broker.Gateway
	var alpacaGw *broker.AlpacaGateway
	if cfg.Trading.PaperMode && cfg.Alpaca.APIKey == "" {
		sim := broker.NewSimulator(decimal.NewFromInt(100000))
		sim.SetMarketOpen(true)
		gateway = sim
		logger.Info("running against simulator")
	} else {
		alpacaGw = broker.NewAlpacaGateway(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL, cfg.Alpaca.DataURL)
		gateway = alpacaGw
		logger.Info("running against alpaca", "base_url", cfg.Alpaca.BaseURL, "paper_mode", cfg.Trading.PaperMode)
	}

	validator := engine.NewValidator(gateway, gateway, cfg.Trading, logger)
	executor := engine.NewExecutor(gateway, logger)

	health := monitoring.NewHealthChecker()
	health.SetConnected(true)

	notifier := buildNotifier(cfg, logger)
	decisions := buildPipeline(cfg, alpacaGw, logger)

	sched := scheduler.New(
		cfg.Symbol,
		cfg.Trading.CycleInterval.Std(),
		decisions,
		validator,
		executor,
		gateway,
		notifier,
		health,
		logger,
	)

	api := httpapi.NewServer(cfg.Symbol, gateway, health, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler: api.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
		}
	}()

	if err := sched.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// buildNotifier assembles the alert sinks from config. With no Telegram
// token, alerts only go to the log.
func buildNotifier(cfg *config.Config, logger *slog.Logger) notify.Notifier {
	sinks := notify.Multi{logNotifier{logger}}

	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			logger.Warn("telegram disabled", "error", err)
		} else {
			sinks = append(sinks, tg)
			logger.Info("telegram notifications enabled", "chat_id", cfg.Telegram.ChatID)
		}
	}

	return sinks
}

// buildPipeline assembles the signal pipeline. News and indicators need
// the Alpaca marketdata client and are disabled in simulator mode; the
// predictor is disabled when no ML base URL is configured.
func buildPipeline(cfg *config.Config, alpacaGw *broker.AlpacaGateway, logger *slog.Logger) *tradesignal.Pipeline {
	var news tradesignal.ArticleSource
	var indicators tradesignal.IndicatorProvider
	if alpacaGw != nil {
		news = tradesignal.NewNewsFetcher(alpacaGw.MarketData())
		indicators = tradesignal.NewIndicatorSource(alpacaGw.MarketData())
	}

	var predictor tradesignal.PricePredictor
	if cfg.ML.BaseURL != "" {
		predictor = tradesignal.NewPredictor(cfg.ML.BaseURL, cfg.ML.Timeout.Std())
	}

	decider := tradesignal.NewDecider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout.Std())

	return tradesignal.NewPipeline(news, indicators, predictor, decider, logger)
}

// logNotifier mirrors every alert into the structured log so alerts are
// visible even with no external sink configured.
type logNotifier struct {
	log *slog.Logger
}

func (l logNotifier) Send(_ context.Context, a notify.Alert) error {
	switch a.Level {
	case notify.LevelUrgent:
		l.log.Error(a.Title, "body", a.Body)
	case notify.LevelWarning:
		l.log.Warn(a.Title, "body", a.Body)
	default:
		l.log.Info(a.Title, "body", a.Body)
	}
	return nil
}
