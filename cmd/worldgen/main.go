// Package main provides the worldgen binary, which converts a pokefirered
// map data tree into a resolved world graph written as YAML.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/worldgen/internal/config"
	"github.com/cory-johannsen/worldgen/internal/importer"
	"github.com/cory-johannsen/worldgen/internal/importer/pret"
	"github.com/cory-johannsen/worldgen/internal/mapping"
	"github.com/cory-johannsen/worldgen/internal/observability"
	"github.com/cory-johannsen/worldgen/internal/snapshot"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty = defaults and WORLDGEN_ environment")
	outputDir := flag.String("output", "", "output directory; overrides output.dir")
	rebuild := flag.Bool("rebuild", false, "discard the snapshot and retrieve the source again")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mappings, found, err := mapping.Load(cfg.Mappings.Path)
	if err != nil {
		logger.Fatal("loading mappings", zap.Error(err))
	}
	if !found {
		logger.Warn("mappings file not found; using empty dictionaries", zap.String("path", cfg.Mappings.Path))
	}

	var fetcher importer.Fetcher
	if cfg.Source.Dir != "" {
		logger.Info("reading source from directory", zap.String("dir", cfg.Source.Dir))
		fetcher = importer.NewDirFetcher(cfg.Source.Dir)
	} else {
		logger.Info("reading source over http", zap.String("base_url", cfg.Source.BaseURL))
		fetcher = importer.NewHTTPFetcher(cfg.Source.BaseURL, cfg.Source.RequestsPerSecond, cfg.Source.Burst, cfg.Source.Timeout)
	}
	src := pret.NewSource(fetcher, logger)

	cache := snapshot.New(cfg.Snapshot.Path, src.BuildTable, logger)
	if *rebuild {
		if err := cache.Invalidate(); err != nil {
			logger.Fatal("discarding snapshot", zap.Error(err))
		}
	}

	deriver := importer.NewDeriver(mappings, logger)
	converters := func(table *importer.RawTable) importer.Converter {
		return pret.NewConverter(src, pret.NewResolver(table, deriver, mappings, logger))
	}

	imp := importer.New(cache, converters, cfg.Assembly.Workers, logger)
	manifest, err := imp.Run(ctx, cfg.Output.Dir)
	if err != nil {
		logger.Fatal("world generation failed", zap.Error(err))
	}

	logger.Info("world generation complete",
		zap.Int("maps", manifest.Count),
		zap.String("output", cfg.Output.Dir),
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
	)
}
