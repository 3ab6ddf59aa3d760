// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/praxisflow/praxisflow/pkg/persistence"
	"github.com/praxisflow/praxisflow/pkg/persistence/memory"
	"github.com/praxisflow/praxisflow/pkg/persistence/postgresql"
)

// NewPersistence builds the datastore for a database URL. Postgres URLs get
// the real store; "memory://" is for local development only.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create postgres persistence: %w", err))
		}

		return p
	case strings.HasPrefix(databaseURL, "memory://"):
		return memory.NewStore()
	default:
		panic("Unsupported database URL: " + databaseURL)
	}
}
