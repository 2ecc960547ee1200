package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/unyte/adconnect/pkg/persistence"
	"github.com/unyte/adconnect/pkg/persistence/file"
	"github.com/unyte/adconnect/pkg/persistence/postgresql"
)

func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		postgres, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(err)
		}

		return postgres
	default:
		logger.WarnContext(ctx, "Using file persistence; credentials are stored unencrypted on disk", "path", databaseURL)

		return file.NewPersistence(databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
