// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/prodflow/prodflow/pkg/persistence"
	"github.com/prodflow/prodflow/pkg/persistence/file"
	"github.com/prodflow/prodflow/pkg/persistence/redis"
)

// NewPersistence selects a persistence provider from the database URL scheme.
// Unknown schemes fall back to file storage.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parseProvider(databaseURL) {
	case "redis":
		store, err := redis.NewPersistence(databaseURL)
		if err != nil {
			panic(err)
		}

		logger.InfoContext(ctx, "Using redis persistence")

		return store
	default:
		logger.InfoContext(ctx, "Using file persistence", "url", databaseURL)

		return file.NewPersistence(databaseURL)
	}
}

func parseProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
