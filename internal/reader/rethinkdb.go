package reader

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/rethinkmon/rethinkmon/internal/cluster"
	"github.com/rethinkmon/rethinkmon/internal/config"
	"github.com/rethinkmon/rethinkmon/internal/logging"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// systemDB is the database holding the cluster's system tables.
const systemDB = "rethinkdb"

// RethinkReader implements SystemReader over a driver session. The session
// is owned by this reader and serialized by the driver; the join engine
// never touches the connection.
type RethinkReader struct {
	session      *r.Session
	logger       *logging.Logger
	queryTimeout time.Duration
}

// Connect establishes a driver session against the monitored cluster.
func Connect(cfg config.RethinkDBConfig, logger *logging.Logger) (*RethinkReader, error) {
	opts := r.ConnectOpts{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Timeout:   cfg.ConnectTimeout,
	}

	if cfg.TLSCert != "" || cfg.TLSCA != "" {
		tlsConfig, err := buildTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts.TLSConfig = tlsConfig
	}

	session, err := r.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cluster at %v: %w", cfg.Addresses, err)
	}

	logger.Info("Connected to cluster", "addresses", cfg.Addresses, "username", cfg.Username)

	return &RethinkReader{
		session:      session,
		logger:       logger,
		queryTimeout: cfg.QueryTimeout,
	}, nil
}

func buildTLSConfig(cfg config.RethinkDBConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{}

	if cfg.TLSCert != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if cfg.TLSCA != "" {
		pem, err := os.ReadFile(cfg.TLSCA)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in CA bundle %s", cfg.TLSCA)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}

// Stats fetches the stats table, classifying every row on ingestion.
func (rd *RethinkReader) Stats(ctx context.Context) ([]cluster.StatsRow, error) {
	var raws []map[string]interface{}
	if err := rd.fetch(ctx, r.DB(systemDB).Table("stats"), &raws); err != nil {
		return nil, fmt.Errorf("fetch stats: %w", err)
	}

	rows := make([]cluster.StatsRow, 0, len(raws))
	for _, raw := range raws {
		rows = append(rows, decodeStatsRow(raw))
	}
	return rows, nil
}

// ServerConfigs fetches the server_config table.
func (rd *RethinkReader) ServerConfigs(ctx context.Context) ([]cluster.Server, error) {
	var wires []serverWire
	if err := rd.fetch(ctx, r.DB(systemDB).Table("server_config"), &wires); err != nil {
		return nil, fmt.Errorf("fetch server_config: %w", err)
	}

	servers := make([]cluster.Server, 0, len(wires))
	for _, w := range wires {
		server, err := w.decode()
		if err != nil {
			return nil, err
		}
		servers = append(servers, server)
	}
	return servers, nil
}

// TableConfigs fetches the table_config table.
func (rd *RethinkReader) TableConfigs(ctx context.Context) ([]cluster.Table, error) {
	var wires []tableWire
	if err := rd.fetch(ctx, r.DB(systemDB).Table("table_config"), &wires); err != nil {
		return nil, fmt.Errorf("fetch table_config: %w", err)
	}

	tables := make([]cluster.Table, 0, len(wires))
	for _, w := range wires {
		table, err := w.decode()
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// TableStatuses fetches the table_status table. The uuid identifier format
// makes replica server references stable identifiers, so joins against
// server_config need no name-to-id resolution.
func (rd *RethinkReader) TableStatuses(ctx context.Context) ([]cluster.TableStatus, error) {
	term := r.DB(systemDB).Table("table_status", r.TableOpts{IdentifierFormat: "uuid"})

	var wires []tableStatusWire
	if err := rd.fetch(ctx, term, &wires); err != nil {
		return nil, fmt.Errorf("fetch table_status: %w", err)
	}

	statuses := make([]cluster.TableStatus, 0, len(wires))
	for _, w := range wires {
		status, err := w.decode()
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// ServerStatuses fetches the server_status table.
func (rd *RethinkReader) ServerStatuses(ctx context.Context) ([]cluster.ServerStatus, error) {
	var wires []serverStatusWire
	if err := rd.fetch(ctx, r.DB(systemDB).Table("server_status"), &wires); err != nil {
		return nil, fmt.Errorf("fetch server_status: %w", err)
	}

	statuses := make([]cluster.ServerStatus, 0, len(wires))
	for _, w := range wires {
		status, err := w.decode()
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Jobs fetches the jobs table.
func (rd *RethinkReader) Jobs(ctx context.Context) ([]cluster.Job, error) {
	var wires []jobWire
	if err := rd.fetch(ctx, r.DB(systemDB).Table("jobs"), &wires); err != nil {
		return nil, fmt.Errorf("fetch jobs: %w", err)
	}

	jobs := make([]cluster.Job, 0, len(wires))
	for _, w := range wires {
		jobs = append(jobs, w.decode())
	}
	return jobs, nil
}

// Close terminates the driver session.
func (rd *RethinkReader) Close() error {
	return rd.session.Close()
}

// fetch runs one read-only query and decodes every row of the cursor into
// result (a pointer to a slice). Each fetch is bounded by the configured
// per-query timeout on top of the caller's context.
func (rd *RethinkReader) fetch(ctx context.Context, term r.Term, result interface{}) error {
	ctx, cancel := rd.queryContext(ctx)
	defer cancel()

	cursor, err := term.Run(rd.session, r.RunOpts{Context: ctx})
	if err != nil {
		return err
	}
	defer func() { _ = cursor.Close() }()

	if err := cursor.All(result); err != nil {
		return err
	}
	return nil
}

// queryContext derives the per-fetch context. A zero timeout leaves the
// caller's context untouched.
func (rd *RethinkReader) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if rd.queryTimeout > 0 {
		return context.WithTimeout(ctx, rd.queryTimeout)
	}
	return ctx, func() {}
}
