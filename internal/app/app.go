// Package app provides application initialization and dependency wiring.
//
// App is the container that orchestrates all components: the database
// pool, the document store, the in-memory vector index kept in sync
// with it, the embedding backend, and the enrichment pipeline.
package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syncmind/syncmind/internal/config"
	"github.com/syncmind/syncmind/internal/log"
	"github.com/syncmind/syncmind/internal/search"
	"github.com/syncmind/syncmind/internal/store"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	DBPool  *pgxpool.Pool
	Store   *store.Store
	Sync    *search.Synchronizer
	Service *search.Service

	otelCleanup func()
}

// Close gracefully shuts down all resources in reverse setup order.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.DBPool != nil {
		a.DBPool.Close()
		if a.Logger != nil {
			a.Logger.Info("database pool closed")
		}
	}

	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return nil
}
