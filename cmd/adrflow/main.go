package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ADRFlow/internal/basket"
	"ADRFlow/internal/config"
	"ADRFlow/internal/export"
	"ADRFlow/internal/logging"
	"ADRFlow/internal/metrics"
	"ADRFlow/internal/model"
	"ADRFlow/internal/notifier"
	"ADRFlow/internal/provider"
	"ADRFlow/internal/report"
	"ADRFlow/internal/resolver"
	"ADRFlow/internal/scheduler"
	"ADRFlow/internal/server"
)

func main() {
	cfgPath := flag.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "path to the YAML config file")
	date := flag.String("date", "", "report date YYYY-MM-DD (default today)")
	compare := flag.String("compare", "", "earlier date YYYY-MM-DD to compare against")
	xlsxPath := flag.String("xlsx", "", "also write the report to this .xlsx file")
	serve := flag.Bool("serve", false, "run the HTTP API, scheduler and Telegram bot")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal("load config", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("config validation", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		fatal("init logger", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("init", zap.Error(err))
	}

	if *serve {
		err = app.serve(ctx, cfg)
	} else {
		err = app.once(ctx, *date, *compare, *xlsxPath)
	}
	if err != nil {
		logger.Fatal("adrflow failed", zap.Error(err))
	}
}

type app struct {
	def     *basket.Definition
	builder *report.Builder
	metrics *metrics.Metrics
	loc     *time.Location
	logger  *zap.Logger
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	def, err := basket.Load(cfg.BasketsFile)
	if err != nil {
		return nil, err
	}

	p, err := provider.New(cfg.Provider.Name, cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.Proxy, cfg.Provider.Timeout)
	if err != nil {
		return nil, err
	}
	m := metrics.New()
	limited := provider.NewLimited(p, cfg.Provider.RPS, cfg.Provider.Burst, m)

	res := resolver.New(limited, resolver.Options{
		LookbackDays: cfg.Resolver.LookbackDays,
		Debug:        cfg.Resolver.Debug,
	}, logger.Named("resolver"), m)
	agg := basket.NewAggregator(res, cfg.Resolver.Concurrency, logger.Named("basket"))
	loc := cfg.Location()

	logger.Info("adrflow ready",
		zap.String("provider", p.Name()),
		zap.Int("definition_version", def.Version),
		zap.Int("baskets", len(def.Baskets)),
		zap.Int("symbols", def.SymbolCount()),
		zap.String("timezone", loc.String()))

	return &app{
		def:     def,
		builder: report.NewBuilder(def, agg, loc, logger.Named("report"), m),
		metrics: m,
		loc:     loc,
		logger:  logger,
	}, nil
}

// once builds one report, prints it and optionally writes it as XLSX.
func (a *app) once(ctx context.Context, date, compare, xlsxPath string) error {
	target := a.builder.Today()
	if date != "" {
		d, err := model.ParseDate(date)
		if err != nil {
			return fmt.Errorf("-date: %w", err)
		}
		target = d
	}
	dates := []time.Time{target}
	if compare != "" {
		d, err := model.ParseDate(compare)
		if err != nil {
			return fmt.Errorf("-compare: %w", err)
		}
		dates = []time.Time{d, target}
	}

	rep, err := a.builder.Build(ctx, dates...)
	if err != nil {
		return err
	}
	fmt.Print(notifier.FormatPlain(rep))

	if xlsxPath != "" {
		if err := export.WriteXLSX(rep, xlsxPath); err != nil {
			return err
		}
		a.logger.Info("workbook written", zap.String("path", xlsxPath))
	}
	return nil
}

// serve runs the HTTP API, the report schedule and Telegram polling until ctx is cancelled.
func (a *app) serve(ctx context.Context, cfg *config.Config) error {
	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Provider.Proxy, a.logger)
		sender = tn
	} else {
		a.logger.Warn("telegram not configured, scheduled reports are only logged")
	}

	sched := scheduler.NewScheduler(ctx, a.builder, a.def, sender, a.loc, a.logger)
	if err := sched.Register(cfg.Schedule.ReportCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.HTTP.Addr != "" {
		srv := server.New(a.builder, a.def, a.metrics, a.logger)
		g.Go(func() error { return srv.ListenAndServe(gctx, cfg.HTTP.Addr) })
	}
	if tn != nil {
		g.Go(func() error {
			tn.StartPolling(gctx, sched.HandleCommand)
			return nil
		})
		a.logger.Info("telegram polling started")
	}
	if os.Getenv("RUN_ON_START") == "true" {
		a.logger.Info("RUN_ON_START enabled, running report now")
		g.Go(func() error {
			sched.RunNow()
			return nil
		})
	}

	a.logger.Info("adrflow is running, press Ctrl+C to stop")
	<-gctx.Done()
	a.logger.Info("shutdown signal received, stopping")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("adrflow stopped")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(what string, err error) {
	fmt.Fprintf(os.Stderr, "adrflow: %s: %v\n", what, err)
	os.Exit(1)
}
