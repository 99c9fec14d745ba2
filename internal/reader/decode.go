package reader

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rethinkmon/rethinkmon/internal/cluster"
)

// Wire types mirror the driver's view of each system table. Identifiers
// arrive as strings; conversion to uuid.UUID happens here, at the
// boundary, so the join engine never sees untyped rows.

type serverWire struct {
	ID   string   `rethinkdb:"id"`
	Name string   `rethinkdb:"name"`
	Tags []string `rethinkdb:"tags"`
}

func (w serverWire) decode() (cluster.Server, error) {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return cluster.Server{}, fmt.Errorf("server_config row %q: bad id: %w", w.Name, err)
	}
	return cluster.Server{ID: id, Name: w.Name, Tags: w.Tags}, nil
}

type tableWire struct {
	ID   string `rethinkdb:"id"`
	DB   string `rethinkdb:"db"`
	Name string `rethinkdb:"name"`
}

func (w tableWire) decode() (cluster.Table, error) {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return cluster.Table{}, fmt.Errorf("table_config row %q.%q: bad id: %w", w.DB, w.Name, err)
	}
	return cluster.Table{ID: id, DB: w.DB, Name: w.Name}, nil
}

type replicaWire struct {
	Server string `rethinkdb:"server"`
	State  string `rethinkdb:"state"`
}

type shardWire struct {
	Replicas []replicaWire `rethinkdb:"replicas"`
}

type readinessWire struct {
	ReadyForOutdatedReads bool `rethinkdb:"ready_for_outdated_reads"`
	ReadyForReads         bool `rethinkdb:"ready_for_reads"`
	ReadyForWrites        bool `rethinkdb:"ready_for_writes"`
	AllReplicasReady      bool `rethinkdb:"all_replicas_ready"`
}

type tableStatusWire struct {
	ID     string        `rethinkdb:"id"`
	DB     string        `rethinkdb:"db"`
	Name   string        `rethinkdb:"name"`
	Status readinessWire `rethinkdb:"status"`
	Shards []shardWire   `rethinkdb:"shards"`
}

func (w tableStatusWire) decode() (cluster.TableStatus, error) {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return cluster.TableStatus{}, fmt.Errorf("table_status row %q.%q: bad id: %w", w.DB, w.Name, err)
	}

	status := cluster.TableStatus{
		Table: id,
		DB:    w.DB,
		Name:  w.Name,
		Status: cluster.TableReadiness{
			ReadyForOutdatedReads: w.Status.ReadyForOutdatedReads,
			ReadyForReads:         w.Status.ReadyForReads,
			ReadyForWrites:        w.Status.ReadyForWrites,
			AllReplicasReady:      w.Status.AllReplicasReady,
		},
		Shards: make([]cluster.Shard, 0, len(w.Shards)),
	}

	for _, shard := range w.Shards {
		replicas := make([]cluster.Replica, 0, len(shard.Replicas))
		for _, rep := range shard.Replicas {
			// The reader requests uuid identifier format, so server
			// references must be stable identifiers here.
			serverID, err := uuid.Parse(rep.Server)
			if err != nil {
				return cluster.TableStatus{}, fmt.Errorf("table_status row %q.%q: replica server %q is not a uuid: %w", w.DB, w.Name, rep.Server, err)
			}
			replicas = append(replicas, cluster.Replica{Server: serverID, State: rep.State})
		}
		status.Shards = append(status.Shards, cluster.Shard{Replicas: replicas})
	}

	return status, nil
}

type networkWire struct {
	Hostname      string `rethinkdb:"hostname"`
	ReqlPort      int    `rethinkdb:"reql_port"`
	TimeConnected string `rethinkdb:"time_connected"`
}

type processWire struct {
	Version     string  `rethinkdb:"version"`
	TimeStarted string  `rethinkdb:"time_started"`
	CacheSizeMB float64 `rethinkdb:"cache_size_mb"`
}

type serverStatusWire struct {
	ID      string      `rethinkdb:"id"`
	Name    string      `rethinkdb:"name"`
	Network networkWire `rethinkdb:"network"`
	Process processWire `rethinkdb:"process"`
}

func (w serverStatusWire) decode() (cluster.ServerStatus, error) {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return cluster.ServerStatus{}, fmt.Errorf("server_status row %q: bad id: %w", w.Name, err)
	}
	return cluster.ServerStatus{
		ID:   id,
		Name: w.Name,
		Network: cluster.NetworkStatus{
			Hostname:      w.Network.Hostname,
			ReqlPort:      w.Network.ReqlPort,
			TimeConnected: w.Network.TimeConnected,
		},
		Process: cluster.ProcessStatus{
			Version:     w.Process.Version,
			TimeStarted: w.Process.TimeStarted,
			CacheSizeMB: w.Process.CacheSizeMB,
		},
	}, nil
}

type jobWire struct {
	Type        string                 `rethinkdb:"type"`
	DurationSec float64                `rethinkdb:"duration_sec"`
	Servers     []string               `rethinkdb:"servers"`
	Info        map[string]interface{} `rethinkdb:"info"`
}

func (w jobWire) decode() cluster.Job {
	return cluster.Job{
		Type:        w.Type,
		DurationSec: w.DurationSec,
		Servers:     w.Servers,
		Info:        w.Info,
	}
}

// decodeStatsRow classifies a raw stats row and plucks its counter
// groups. The raw map is retained verbatim for the stats pass-through.
// Rows of unknown identifier shape decode as unclassified, never as an
// error.
func decodeStatsRow(raw map[string]interface{}) cluster.StatsRow {
	id, _ := raw["id"].([]interface{})

	stats := cluster.Stats{
		QueryEngine:   countersField(raw, "query_engine"),
		StorageEngine: countersField(raw, "storage_engine"),
	}

	return cluster.NewStatsRow(id, stats, raw)
}

func countersField(raw map[string]interface{}, key string) cluster.Counters {
	m, ok := raw[key].(map[string]interface{})
	if !ok {
		return nil
	}
	return cluster.Counters(m)
}
