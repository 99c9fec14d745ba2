// Package reader is the snapshot-reader boundary: it fetches the system
// tables of the monitored cluster and decodes their semi-structured rows
// into the typed records the join engine operates on.
package reader

import (
	"context"

	"github.com/rethinkmon/rethinkmon/internal/cluster"
)

// SystemReader fetches one system table per call. Every fetch is an
// independent read-only query honoring the caller's context; no
// transaction spans a collection cycle, so two fetches may observe
// different cluster states.
type SystemReader interface {
	// Stats returns the stats table rows, classified on ingestion.
	Stats(ctx context.Context) ([]cluster.StatsRow, error)

	// ServerConfigs returns the server_config rows. Disconnected servers
	// have no row here.
	ServerConfigs(ctx context.Context) ([]cluster.Server, error)

	// TableConfigs returns the table_config rows.
	TableConfigs(ctx context.Context) ([]cluster.Table, error)

	// TableStatuses returns the table_status rows with replica server
	// references resolved to stable identifiers, not names.
	TableStatuses(ctx context.Context) ([]cluster.TableStatus, error)

	// ServerStatuses returns the server_status rows.
	ServerStatuses(ctx context.Context) ([]cluster.ServerStatus, error)

	// Jobs returns the currently running system jobs.
	Jobs(ctx context.Context) ([]cluster.Job, error)

	// Close releases the underlying session.
	Close() error
}
