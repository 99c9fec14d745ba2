package reader

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rethinkmon/rethinkmon/internal/cluster"
)

func TestDecodeStatsRow_Replica(t *testing.T) {
	tableID, serverID := uuid.New(), uuid.New()
	raw := map[string]interface{}{
		"id":           []interface{}{"table_server", tableID.String(), serverID.String()},
		"table":        "t1",
		"query_engine": map[string]interface{}{"read_docs_per_sec": 4.0},
		"storage_engine": map[string]interface{}{
			"disk": map[string]interface{}{"read_bytes_per_sec": 100.0},
		},
	}

	row := decodeStatsRow(raw)
	if row.Kind != cluster.KindReplica {
		t.Fatalf("Expected replica kind, got %v", row.Kind)
	}
	if row.TableID != tableID || row.ServerID != serverID {
		t.Errorf("Keys not extracted: table=%s server=%s", row.TableID, row.ServerID)
	}
	if row.Stats.QueryEngine["read_docs_per_sec"] != 4.0 {
		t.Errorf("query_engine not plucked: %+v", row.Stats.QueryEngine)
	}
	if row.Stats.StorageEngine == nil {
		t.Error("storage_engine not plucked")
	}
	if row.Raw == nil || row.Raw["table"] != "t1" {
		t.Error("Raw row not preserved")
	}
}

func TestDecodeStatsRow_ClusterRowUnclassified(t *testing.T) {
	raw := map[string]interface{}{
		"id":           []interface{}{"cluster"},
		"query_engine": map[string]interface{}{"queries_per_sec": 1.0},
	}

	row := decodeStatsRow(raw)
	if row.Kind != cluster.KindUnclassified {
		t.Errorf("Cluster row must classify as unclassified, got %v", row.Kind)
	}
	if row.Stats.IsZero() {
		t.Error("Counters should still be plucked for the pass-through")
	}
}

func TestDecodeStatsRow_MissingEngines(t *testing.T) {
	row := decodeStatsRow(map[string]interface{}{"id": []interface{}{"server", uuid.New().String()}})
	if !row.Stats.IsZero() {
		t.Errorf("Absent counter groups must decode as no-data: %+v", row.Stats)
	}
}

func TestServerWire_Decode(t *testing.T) {
	id := uuid.New()
	server, err := serverWire{ID: id.String(), Name: "srv", Tags: []string{"default", "ssd"}}.decode()
	if err != nil {
		t.Fatal(err)
	}
	if server.ID != id || server.Name != "srv" || len(server.Tags) != 2 {
		t.Errorf("Unexpected server: %+v", server)
	}

	if _, err := (serverWire{ID: "nope"}).decode(); err == nil {
		t.Error("Expected error for malformed server id")
	}
}

func TestTableStatusWire_Decode(t *testing.T) {
	tableID, serverID := uuid.New(), uuid.New()

	wire := tableStatusWire{
		ID:   tableID.String(),
		DB:   "d",
		Name: "t1",
		Status: readinessWire{ReadyForReads: true},
		Shards: []shardWire{
			{Replicas: []replicaWire{{Server: serverID.String(), State: "ready"}}},
			{Replicas: nil},
		},
	}

	status, err := wire.decode()
	if err != nil {
		t.Fatal(err)
	}
	if status.Table != tableID {
		t.Errorf("Bad table id: %s", status.Table)
	}
	if !status.Status.ReadyForReads || status.Status.ReadyForWrites {
		t.Errorf("Status flags not carried: %+v", status.Status)
	}
	if len(status.Shards) != 2 || len(status.Shards[0].Replicas) != 1 {
		t.Fatalf("Shard structure not preserved: %+v", status.Shards)
	}
	if status.Shards[0].Replicas[0].Server != serverID {
		t.Errorf("Replica server not converted: %s", status.Shards[0].Replicas[0].Server)
	}
}

func TestTableStatusWire_NameInsteadOfUUID(t *testing.T) {
	wire := tableStatusWire{
		ID:     uuid.New().String(),
		Shards: []shardWire{{Replicas: []replicaWire{{Server: "server-by-name", State: "ready"}}}},
	}

	if _, err := wire.decode(); err == nil {
		t.Error("Replica server names must be rejected; the reader requires uuid identifier format")
	}
}

func TestServerStatusWire_Decode(t *testing.T) {
	id := uuid.New()
	wire := serverStatusWire{
		ID:      id.String(),
		Name:    "srv",
		Network: networkWire{Hostname: "box1", ReqlPort: 28015},
		Process: processWire{Version: "rethinkdb 2.4.1", CacheSizeMB: 512},
	}

	status, err := wire.decode()
	if err != nil {
		t.Fatal(err)
	}
	if status.Network.Hostname != "box1" || status.Process.CacheSizeMB != 512 {
		t.Errorf("Unexpected status: %+v", status)
	}
}
