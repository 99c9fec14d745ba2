package cluster

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrTableConfigMissing reports a table referenced by table_status with no
// table_config row. Unlike a missing server config or missing replica
// stats, this breaks the topology invariant; the caller's policy decides
// whether to skip the affected records or abort the cycle.
var ErrTableConfigMissing = fmt.Errorf("table referenced by table_status has no table_config row")

// ReplicaKey identifies one (table, server) replica statistics row.
type ReplicaKey struct {
	Table  uuid.UUID
	Server uuid.UUID
}

// Enricher resolves flattened replica records against table configuration,
// server configuration and replica statistics. The three lookups are
// independent and each tolerates absence per its own rule:
//
//   - missing server_config: the server was disconnected or decommissioned;
//     substitute a zero-value Server (not an error)
//   - missing replica stats: the shard is too young to have counters;
//     substitute zero-value Stats (not an error)
//   - missing table_config: topology inconsistency; reported as
//     ErrTableConfigMissing
//
// Enrichment is pure per record, so callers may fan it out freely.
type Enricher struct {
	tables  map[uuid.UUID]Table
	servers map[uuid.UUID]Server
	stats   map[ReplicaKey]Stats
}

// NewEnricher indexes the given configuration and statistics snapshots.
// Only replica-kind stats rows are indexed; other kinds are ignored here.
func NewEnricher(tables []Table, servers []Server, stats []StatsRow) *Enricher {
	e := &Enricher{
		tables:  make(map[uuid.UUID]Table, len(tables)),
		servers: make(map[uuid.UUID]Server, len(servers)),
		stats:   make(map[ReplicaKey]Stats),
	}

	for _, t := range tables {
		e.tables[t.ID] = t
	}
	for _, s := range servers {
		e.servers[s.ID] = s
	}
	for _, row := range stats {
		if row.Kind != KindReplica {
			continue
		}
		e.stats[ReplicaKey{Table: row.TableID, Server: row.ServerID}] = row.Stats
	}

	return e
}

// Enrich produces exactly one output row for the given flattened record,
// possibly with a substituted server or empty stats. The only failure is a
// missing table_config row, reported as an error wrapping
// ErrTableConfigMissing.
func (e *Enricher) Enrich(tr TableReplica) (ReplicaRow, error) {
	table, ok := e.tables[tr.Table]
	if !ok {
		return ReplicaRow{}, fmt.Errorf("table %s: %w", tr.Table, ErrTableConfigMissing)
	}

	// Disconnected servers have no config row; substitute the documented
	// placeholder rather than failing.
	server := e.servers[tr.Replica.Server]

	// Stats may legitimately not exist yet for this replica. The zero
	// value means "no data this cycle", never zero counters.
	stats := e.stats[ReplicaKey{Table: tr.Table, Server: tr.Replica.Server}]

	return ReplicaRow{
		Table:   table,
		Server:  server,
		Replica: tr.Replica,
		Stats:   stats,
	}, nil
}
