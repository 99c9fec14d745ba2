package emitter

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rethinkmon/rethinkmon/internal/cluster"
	"github.com/rethinkmon/rethinkmon/internal/collector"
)

func sampleResult() *collector.Result {
	serverID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	tableID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	return &collector.Result{
		CollectedAt: time.Unix(1700000000, 0),
		Servers: []cluster.ServerRow{
			{
				Server: cluster.Server{ID: serverID, Name: "s1", Tags: []string{"default", "us_east"}},
				Stats: cluster.Stats{
					QueryEngine: cluster.Counters{
						"queries_per_sec": 5.0,
						"clients": map[string]interface{}{
							"active": 2.0,
						},
						"version": "2.4.1", // non-numeric, skipped
					},
				},
			},
		},
		Tables: []cluster.TableRow{
			{
				Table: cluster.Table{ID: tableID, DB: "app", Name: "users"},
				Stats: cluster.Stats{
					QueryEngine: cluster.Counters{"read_docs_per_sec": 3.0},
				},
			},
		},
		Replicas: []cluster.ReplicaRow{
			{
				Table:   cluster.Table{ID: tableID, DB: "app", Name: "users"},
				Server:  cluster.Server{}, // disconnected placeholder
				Replica: cluster.Replica{State: cluster.ReplicaDisconnected},
			},
		},
		ClusterStats: []cluster.StatsRow{
			cluster.NewStatsRow(
				[]interface{}{"cluster"},
				cluster.Stats{QueryEngine: cluster.Counters{"queries_per_sec": 12.0}},
				nil,
			),
			cluster.NewStatsRow(
				[]interface{}{"server", serverID.String()},
				cluster.Stats{QueryEngine: cluster.Counters{"queries_per_sec": 5.0}},
				nil,
			),
		},
		TableStatuses: []cluster.TableStatus{
			{
				Table:  tableID,
				DB:     "app",
				Name:   "users",
				Status: cluster.TableReadiness{ReadyForReads: true, ReadyForOutdatedReads: true},
				Shards: []cluster.Shard{
					{Replicas: []cluster.Replica{
						{Server: serverID, State: cluster.ReplicaReady},
						{State: cluster.ReplicaBackfilling},
					}},
				},
			},
		},
		ServerStatuses: []cluster.ServerStatus{
			{
				ID:      serverID,
				Name:    "s1",
				Network: cluster.NetworkStatus{Hostname: "h1", ReqlPort: 28015},
				Process: cluster.ProcessStatus{Version: "2.4.1", CacheSizeMB: 100.5},
			},
		},
		Jobs: []cluster.Job{
			{Type: "index_construction", DurationSec: 12.5},
			{Type: "index_construction", DurationSec: 2.0},
			{Type: "backfill", DurationSec: 45.0},
		},
	}
}

func findMetric(t *testing.T, metrics []Metric, name string) Metric {
	t.Helper()
	for _, m := range metrics {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("metric %s not found", name)
	return Metric{}
}

func hasTag(m Metric, tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func TestBuildMetrics_ServerFamily(t *testing.T) {
	metrics := BuildMetrics(sampleResult(), []string{"env:test"})

	m := findMetric(t, metrics, "rethinkdb.stats.server.query_engine.queries_per_sec")
	if m.Value != 5.0 {
		t.Errorf("expected value 5.0, got %v", m.Value)
	}
	if !hasTag(m, "server:s1") || !hasTag(m, "server_tag:us_east") || !hasTag(m, "env:test") {
		t.Errorf("missing expected tags, got %v", m.Tags)
	}
	if m.Timestamp != 1700000000 {
		t.Errorf("expected timestamp 1700000000, got %d", m.Timestamp)
	}

	// Nested counter groups flatten with dotted names
	nested := findMetric(t, metrics, "rethinkdb.stats.server.query_engine.clients.active")
	if nested.Value != 2.0 {
		t.Errorf("expected nested value 2.0, got %v", nested.Value)
	}
}

func TestBuildMetrics_SkipsNonNumericCounters(t *testing.T) {
	metrics := BuildMetrics(sampleResult(), nil)
	for _, m := range metrics {
		if m.Name == "rethinkdb.stats.server.query_engine.version" {
			t.Errorf("non-numeric counter should be skipped, got %v", m)
		}
	}
}

func TestBuildMetrics_ReplicaPlaceholderServer(t *testing.T) {
	metrics := BuildMetrics(sampleResult(), nil)

	m := findMetric(t, metrics, "rethinkdb.table_status.replicas.total")
	if m.Value != 2 {
		t.Errorf("expected 2 replicas, got %v", m.Value)
	}

	// Replica rows for disconnected servers tag server:unknown
	found := false
	for _, m := range metrics {
		if hasTag(m, "server:unknown") && hasTag(m, "state:disconnected") {
			found = true
		}
	}
	// The sample replica carries no stats, so no stats.table_server metrics
	// exist for it; server:unknown only appears if a counter was present.
	if found {
		t.Errorf("replica without stats should produce no table_server metrics")
	}
}

func TestBuildMetrics_ClusterRowOnly(t *testing.T) {
	metrics := BuildMetrics(sampleResult(), nil)

	m := findMetric(t, metrics, "rethinkdb.stats.cluster.query_engine.queries_per_sec")
	if m.Value != 12.0 {
		t.Errorf("expected cluster value 12.0, got %v", m.Value)
	}

	// Each name appears once: the server-kind stats row in the raw
	// pass-through must not be double counted as cluster.
	count := 0
	for _, mm := range metrics {
		if mm.Name == "rethinkdb.stats.cluster.query_engine.queries_per_sec" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected 1 cluster metric, got %d", count)
	}
}

func TestBuildMetrics_TableStatus(t *testing.T) {
	metrics := BuildMetrics(sampleResult(), nil)

	if m := findMetric(t, metrics, "rethinkdb.table_status.ready_for_reads"); m.Value != 1 {
		t.Errorf("expected ready_for_reads 1, got %v", m.Value)
	}
	if m := findMetric(t, metrics, "rethinkdb.table_status.ready_for_writes"); m.Value != 0 {
		t.Errorf("expected ready_for_writes 0, got %v", m.Value)
	}
	if m := findMetric(t, metrics, "rethinkdb.table_status.shards.total"); m.Value != 1 {
		t.Errorf("expected 1 shard, got %v", m.Value)
	}

	foundReady := false
	for _, m := range metrics {
		if m.Name == "rethinkdb.table_status.replicas.by_state" && hasTag(m, "state:ready") {
			foundReady = true
			if m.Value != 1 {
				t.Errorf("expected 1 ready replica, got %v", m.Value)
			}
		}
	}
	if !foundReady {
		t.Error("expected replicas.by_state metric for state:ready")
	}
}

func TestBuildMetrics_Jobs(t *testing.T) {
	metrics := BuildMetrics(sampleResult(), nil)

	count := 0
	for _, m := range metrics {
		if m.Name == "rethinkdb.jobs.duration_sec" && hasTag(m, "job_type:index_construction") {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected 2 index_construction duration metrics, got %d", count)
	}

	for _, m := range metrics {
		if m.Name == "rethinkdb.jobs.total" && hasTag(m, "job_type:backfill") {
			if m.Value != 1 {
				t.Errorf("expected 1 backfill job, got %v", m.Value)
			}
			return
		}
	}
	t.Error("expected jobs.total metric for backfill")
}

func TestToFloat64(t *testing.T) {
	cases := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{5.0, 5.0, true},
		{int(3), 3.0, true},
		{int64(7), 7.0, true},
		{"2.5", 2.5, true},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, c := range cases {
		got, ok := toFloat64(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("toFloat64(%v) = (%v, %v), want (%v, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}
