// Package settings reads tunable pipeline parameters from the config_values
// table, falling back to compiled defaults when a key is absent or malformed.
package settings

import (
	"context"
	"strconv"

	"log/slog"

	"github.com/garnizeh/worklog/pkg/repository"
)

// Config categories used by the pipeline.
const (
	CategoryKPI        = "kpi"
	CategoryValidation = "validation"
	CategoryDedup      = "dedup"
)

type Settings struct {
	repo   repository.ConfigRepo
	logger *slog.Logger
}

func New(repo repository.ConfigRepo, logger *slog.Logger) *Settings {
	if logger == nil {
		logger = slog.Default()
	}
	return &Settings{repo: repo, logger: logger}
}

func (s *Settings) Float(ctx context.Context, category, key string, def float64) float64 {
	raw, ok, err := s.repo.GetConfigValue(ctx, category, key)
	if err != nil {
		s.logger.Error("config read failed", "category", category, "key", key, "err", err)
		return def
	}
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.logger.Warn("config value not numeric", "category", category, "key", key, "value", raw)
		return def
	}
	return v
}

func (s *Settings) Int(ctx context.Context, category, key string, def int) int {
	raw, ok, err := s.repo.GetConfigValue(ctx, category, key)
	if err != nil {
		s.logger.Error("config read failed", "category", category, "key", key, "err", err)
		return def
	}
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		s.logger.Warn("config value not an integer", "category", category, "key", key, "value", raw)
		return def
	}
	return v
}

func (s *Settings) Bool(ctx context.Context, category, key string, def bool) bool {
	raw, ok, err := s.repo.GetConfigValue(ctx, category, key)
	if err != nil {
		s.logger.Error("config read failed", "category", category, "key", key, "err", err)
		return def
	}
	if !ok {
		return def
	}
	switch raw {
	case "1", "true":
		return true
	case "0", "false":
		return false
	}
	s.logger.Warn("config value not boolean", "category", category, "key", key, "value", raw)
	return def
}
