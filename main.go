package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/goopsie/assetExtract/backend"
	"github.com/goopsie/assetExtract/backend/evr"
	"github.com/goopsie/assetExtract/backend/loose"
	"github.com/goopsie/assetExtract/config"
	"github.com/goopsie/assetExtract/downloader"
	"github.com/goopsie/assetExtract/extract"
	"github.com/goopsie/assetExtract/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const jsonManifestName = "manifestdebug.json"

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	cfg, err := config.Parse(fs, os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}
	if len(os.Args) == 1 {
		fs.Usage()
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		os.Exit(2)
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if cfg.MetricsAddr != "" {
		shutdown, err := serveMetrics(cfg.MetricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	switch cfg.Mode {
	case config.ModeExtract:
		return runExtract(cfg, logger, m)
	case config.ModeDownload:
		return runDownload(ctx, cfg, logger, m)
	case config.ModeJSONManifest:
		return runJSONManifest(cfg, logger)
	default:
		return fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

func newRegistry(cfg *config.Config, logger *slog.Logger) *backend.Registry {
	reg := backend.NewRegistry()
	reg.Register("evr", evr.Builder(evr.WithManifestType(cfg.ManifestType), evr.WithLogger(logger)))
	reg.Register("loose", loose.Builder(loose.WithLogger(logger)))
	return reg
}

func runExtract(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) error {
	b, err := newRegistry(cfg, logger).Open(cfg.Backend, backend.Config{
		GameDirs:    cfg.GameDirs,
		PackageName: cfg.PackageName,
	})
	if err != nil {
		return err
	}
	defer b.Close()

	if p := cfg.FileListPath(); p != "" {
		if err := b.LoadFileList(p); err != nil {
			return fmt.Errorf("load file list: %w", err)
		}
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return err
	}
	report, err := extract.ExtractAll(b, osfs.New(cfg.OutputDir),
		extract.WithGzipEntries(cfg.Extraction.GzipEntries),
		extract.WithStrict(cfg.Extraction.Strict),
		extract.WithLogger(logger),
		extract.WithMetrics(m))
	if err != nil {
		return err
	}
	if failed := report.Failed(); len(failed) > 0 {
		logger.Warn(fmt.Sprintf("%d of %d entries could not be extracted", len(failed), len(report.Outcomes)))
	}
	return nil
}

func runDownload(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) error {
	f, err := os.Open(cfg.Download.Manifest)
	if err != nil {
		return fmt.Errorf("open download manifest: %w", err)
	}
	manifest, err := downloader.LoadManifest(f)
	f.Close()
	if err != nil {
		return err
	}

	gameDirs := make([]billy.Filesystem, 0, len(cfg.GameDirs))
	for _, dir := range cfg.GameDirs {
		gameDirs = append(gameDirs, osfs.New(dir))
	}

	d := downloader.New(cfg.Download.Server, osfs.New(cfg.OutputDir),
		downloader.WithGameDirs(gameDirs...),
		downloader.WithParallelism(cfg.Download.Threads),
		downloader.WithDryRun(cfg.Download.DryRun),
		downloader.WithLogger(logger),
		downloader.WithMetrics(m))

	plan := d.Plan(manifest)
	report := d.Run(ctx, plan.Items)
	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d downloads failed", len(failed), len(plan.Items))
	}
	return nil
}

func runJSONManifest(cfg *config.Config, logger *slog.Logger) error {
	b, err := evr.Open(cfg.GameDirs[0], cfg.PackageName,
		evr.WithManifestType(cfg.ManifestType),
		evr.WithLogger(logger))
	if err != nil {
		return err
	}
	defer b.Close()

	data, err := json.MarshalIndent(b.Manifest(), "", "\t")
	if err != nil {
		return err
	}

	out := jsonManifestName
	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return err
		}
		out = filepath.Join(cfg.OutputDir, jsonManifestName)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	logger.Info("wrote manifest", slog.String("path", out))
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", slog.Any("error", err))
		}
	}()
	logger.Info("serving metrics", slog.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
