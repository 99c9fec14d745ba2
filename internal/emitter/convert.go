package emitter

import (
	"strconv"

	"github.com/rethinkmon/rethinkmon/internal/cluster"
	"github.com/rethinkmon/rethinkmon/internal/collector"
)

// namespace prefixes every metric produced by this agent.
const namespace = "rethinkdb."

// BuildMetrics flattens one collection result into metric records. Every
// record carries the base tags plus tags identifying its entity. Counter
// groups are flattened recursively with dotted names; non-numeric counter
// values are skipped.
func BuildMetrics(res *collector.Result, baseTags []string) []Metric {
	b := &metricBuilder{
		ts:   res.CollectedAt.Unix(),
		base: baseTags,
	}

	for _, row := range res.Servers {
		tags := serverTags(row.Server)
		b.counters("stats.server.query_engine", row.Stats.QueryEngine, tags)
		b.counters("stats.server.storage_engine", row.Stats.StorageEngine, tags)
	}

	for _, row := range res.Tables {
		tags := []string{"table:" + row.Table.Name, "db:" + row.Table.DB}
		b.counters("stats.table.query_engine", row.Stats.QueryEngine, tags)
		b.counters("stats.table.storage_engine", row.Stats.StorageEngine, tags)
	}

	for _, row := range res.Replicas {
		tags := append(serverTags(row.Server),
			"table:"+row.Table.Name,
			"db:"+row.Table.DB,
			"state:"+row.Replica.State)
		b.counters("stats.table_server.query_engine", row.Stats.QueryEngine, tags)
		b.counters("stats.table_server.storage_engine", row.Stats.StorageEngine, tags)
	}

	for _, row := range res.ClusterStats {
		if !isClusterRow(row) {
			continue
		}
		b.counters("stats.cluster.query_engine", row.Stats.QueryEngine, nil)
		b.counters("stats.cluster.storage_engine", row.Stats.StorageEngine, nil)
	}

	for _, st := range res.TableStatuses {
		b.tableStatus(st)
	}

	for _, st := range res.ServerStatuses {
		tags := []string{"server:" + st.Name}
		b.add("server_status.process.cache_size_mb", st.Process.CacheSizeMB, tags)
		b.add("server_status.network.reql_port", float64(st.Network.ReqlPort), tags)
	}

	b.jobs(res.Jobs)

	return b.metrics
}

type metricBuilder struct {
	ts      int64
	base    []string
	metrics []Metric
}

func (b *metricBuilder) add(name string, value float64, tags []string) {
	all := make([]string, 0, len(b.base)+len(tags))
	all = append(all, b.base...)
	all = append(all, tags...)
	b.metrics = append(b.metrics, Metric{
		Name:      namespace + name,
		Value:     value,
		Tags:      all,
		Timestamp: b.ts,
	})
}

// counters recursively flattens a counter group under a dotted prefix.
func (b *metricBuilder) counters(prefix string, c cluster.Counters, tags []string) {
	for key, v := range c {
		name := prefix + "." + key
		if nested, ok := v.(map[string]interface{}); ok {
			b.counters(name, cluster.Counters(nested), tags)
			continue
		}
		if f, ok := toFloat64(v); ok {
			b.add(name, f, tags)
		}
	}
}

func (b *metricBuilder) tableStatus(st cluster.TableStatus) {
	tags := []string{"table:" + st.Name, "db:" + st.DB}
	b.add("table_status.ready_for_outdated_reads", boolMetric(st.Status.ReadyForOutdatedReads), tags)
	b.add("table_status.ready_for_reads", boolMetric(st.Status.ReadyForReads), tags)
	b.add("table_status.ready_for_writes", boolMetric(st.Status.ReadyForWrites), tags)
	b.add("table_status.all_replicas_ready", boolMetric(st.Status.AllReplicasReady), tags)
	b.add("table_status.shards.total", float64(len(st.Shards)), tags)

	byState := make(map[string]int)
	total := 0
	for _, shard := range st.Shards {
		total += len(shard.Replicas)
		for _, rep := range shard.Replicas {
			byState[rep.State]++
		}
	}
	b.add("table_status.replicas.total", float64(total), tags)
	for state, n := range byState {
		b.add("table_status.replicas.by_state", float64(n), append(tags, "state:"+state))
	}
}

func (b *metricBuilder) jobs(jobs []cluster.Job) {
	byType := make(map[string]int)
	for _, job := range jobs {
		byType[job.Type]++
		b.add("jobs.duration_sec", job.DurationSec, []string{"job_type:" + job.Type})
	}
	for jobType, n := range byType {
		b.add("jobs.total", float64(n), []string{"job_type:" + jobType})
	}
}

// serverTags tags a record with the server's name and its server tags. The
// disconnected-server placeholder has no name and no tags.
func serverTags(s cluster.Server) []string {
	name := s.Name
	if !s.Known() {
		name = "unknown"
	}
	tags := []string{"server:" + name}
	for _, t := range s.Tags {
		tags = append(tags, "server_tag:"+t)
	}
	return tags
}

// isClusterRow matches the single ['cluster'] stats row among the raw
// pass-through rows.
func isClusterRow(row cluster.StatsRow) bool {
	if row.Kind != cluster.KindUnclassified || len(row.ID) != 1 {
		return false
	}
	head, ok := row.ID[0].(string)
	return ok && head == "cluster"
}

func boolMetric(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// toFloat64 converts the numeric types the driver may hand back to float64.
// Returns false for non-numeric values so they are skipped, not zeroed.
func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}
