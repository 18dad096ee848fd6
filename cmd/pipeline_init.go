package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/calclimate/firedash/internal/pipeline"
	"github.com/calclimate/firedash/internal/store"
)

// buildPipeline validates the config for a command mode and builds the full
// pipeline from the configured sources.
func buildPipeline(ctx context.Context, mode string) (*pipeline.Pipeline, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	return pipeline.Build(ctx, cfg.Data.Sources())
}

// openCache opens the derivation cache when enabled. A nil cache disables
// caching without branching at every call site being necessary.
func openCache() *store.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	c, err := store.OpenCache(cfg.Cache.Path)
	if err != nil {
		zap.L().Warn("derivation cache unavailable", zap.Error(err))
		return nil
	}
	return c
}

// cachedSeriesKey computes the cache signature for one variable's source
// directory, or "" when the signature cannot be derived.
func cachedSeriesKey(name string) string {
	dir, err := cfg.Data.Sources().DirFor(name)
	if err != nil {
		return ""
	}
	sig, err := store.DirSignature(dir)
	if err != nil {
		return ""
	}
	return sig
}
