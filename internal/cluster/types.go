// Package cluster implements the topology-join engine: it reshapes rows from
// the database's system tables (stats, server_config, table_config,
// table_status, server_status, jobs) into flat per-server, per-table and
// per-replica health records ready for metric emission.
package cluster

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Counters is an opaque bag of engine counters (queries_per_sec,
// read_docs_total, ...). Values are kept untyped; the emitter flattens them.
type Counters map[string]interface{}

// Stats holds the two counter groups carried by every stats row. A zero
// value means "no data this cycle", which is distinct from zero counters.
type Stats struct {
	QueryEngine   Counters `json:"query_engine,omitempty"`
	StorageEngine Counters `json:"storage_engine,omitempty"`
}

// IsZero reports whether no statistics were recorded for this entity.
func (s Stats) IsZero() bool {
	return s.QueryEngine == nil && s.StorageEngine == nil
}

// Server is one row of the server_config system table, plucked to the
// fields the metrics layer needs. A zero-value Server stands in for a
// disconnected or decommissioned server that has no config row.
type Server struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
	Tags []string  `json:"tags,omitempty"`
}

// Known reports whether this server has a server_config row. Disconnected
// servers are substituted with a zero-value Server and are not an error.
func (s Server) Known() bool {
	return s.ID != uuid.Nil
}

// MarshalJSON renders the disconnected-server placeholder with a null id,
// so consumers can tell "no config row" apart from a real identifier.
func (s Server) MarshalJSON() ([]byte, error) {
	type alias Server
	if !s.Known() {
		return json.Marshal(struct {
			ID *uuid.UUID `json:"id"`
			alias
		}{nil, alias(s)})
	}
	return json.Marshal(alias(s))
}

// Table is one row of the table_config system table, plucked to id, db
// and name.
type Table struct {
	ID   uuid.UUID `json:"id"`
	DB   string    `json:"db"`
	Name string    `json:"name"`
}

// Replica is one replica entry inside a shard of a table_status row,
// pruned to the hosting server and the convergence state.
type Replica struct {
	Server uuid.UUID `json:"server"`
	State  string    `json:"state"`
}

// Replica convergence states reported by table_status. The set is open;
// states are carried verbatim and never validated against this list.
const (
	ReplicaReady             = "ready"
	ReplicaTransitioning     = "transitioning"
	ReplicaBackfilling       = "backfilling"
	ReplicaDisconnected      = "disconnected"
	ReplicaWaitingForPrimary = "waiting_for_primary"
	ReplicaWaitingForQuorum  = "waiting_for_quorum"
)

// Shard is an ordered group of replicas inside a table_status row.
type Shard struct {
	Replicas []Replica `json:"replicas"`
}

// TableReadiness holds the aggregate status flags of a table_status row.
type TableReadiness struct {
	ReadyForOutdatedReads bool `json:"ready_for_outdated_reads"`
	ReadyForReads         bool `json:"ready_for_reads"`
	ReadyForWrites        bool `json:"ready_for_writes"`
	AllReplicasReady      bool `json:"all_replicas_ready"`
}

// TableStatus is one row of the table_status system table. The Table field
// is the table's id; replica server references are stable identifiers, not
// names (the reader requests uuid identifier format).
type TableStatus struct {
	Table  uuid.UUID      `json:"table"`
	DB     string         `json:"db"`
	Name   string         `json:"name"`
	Status TableReadiness `json:"status"`
	Shards []Shard        `json:"shards"`
}

// ServerStatus is one row of the server_status system table.
type ServerStatus struct {
	ID      uuid.UUID     `json:"id"`
	Name    string        `json:"name"`
	Network NetworkStatus `json:"network"`
	Process ProcessStatus `json:"process"`
}

// NetworkStatus is the network block of a server_status row.
type NetworkStatus struct {
	Hostname      string `json:"hostname"`
	ReqlPort      int    `json:"reql_port"`
	TimeConnected string `json:"time_connected,omitempty"`
}

// ProcessStatus is the process block of a server_status row.
type ProcessStatus struct {
	Version     string  `json:"version"`
	TimeStarted string  `json:"time_started,omitempty"`
	CacheSizeMB float64 `json:"cache_size_mb"`
}

// Job is one row of the jobs system table.
type Job struct {
	Type        string                 `json:"type"`
	DurationSec float64                `json:"duration_sec"`
	Servers     []string               `json:"servers,omitempty"`
	Info        map[string]interface{} `json:"info,omitempty"`
}

// TableReplica is one flattened (table, replica) pair produced by the
// topology flattener. The table id is the record's only anchor back to its
// table after the shard wrapper is discarded.
type TableReplica struct {
	Table   uuid.UUID `json:"table"`
	Replica Replica   `json:"replica"`
}

// ServerRow pairs one server's config with its statistics.
type ServerRow struct {
	Server Server `json:"server"`
	Stats  Stats  `json:"stats"`
}

// TableRow pairs one table's config with its statistics.
type TableRow struct {
	Table Table `json:"table"`
	Stats Stats `json:"stats"`
}

// ReplicaRow is one fully enriched replica record.
type ReplicaRow struct {
	Table   Table   `json:"table"`
	Server  Server  `json:"server"`
	Replica Replica `json:"replica"`
	Stats   Stats   `json:"stats"`
}
