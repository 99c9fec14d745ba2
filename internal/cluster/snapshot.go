package cluster

import (
	"iter"

	"github.com/google/uuid"
)

// Snapshot holds one collection cycle's rows from the six system tables.
// The fetches behind it are independent reads, not one transaction, so the
// snapshot is not cross-table consistent; the join paths tolerate entities
// appearing in one table but not another. A Snapshot is immutable once
// built - every accessor derives lazily from the same row sets, so
// consuming the same sequence twice yields identical tuples.
type Snapshot struct {
	Stats          []StatsRow
	ServerConfigs  []Server
	TableConfigs   []Table
	TableStatuses  []TableStatus
	ServerStatuses []ServerStatus
	Jobs           []Job
}

// ServersWithStats pairs each server's config row with its stats row.
// Inner-join semantics: stats rows whose server id has no config row are
// dropped, as are config rows with no stats row.
func (s *Snapshot) ServersWithStats() iter.Seq2[Server, Stats] {
	serverRows := filterSeq(seqOf(s.Stats), func(row StatsRow) bool {
		return row.Kind == KindServer
	})

	joined := EquiJoin(
		serverRows, func(row StatsRow) uuid.UUID { return row.ServerID },
		s.ServerConfigs, func(srv Server) uuid.UUID { return srv.ID },
	)

	return func(yield func(Server, Stats) bool) {
		for pair := range joined {
			if !yield(pair.Right, pair.Left.Stats) {
				return
			}
		}
	}
}

// TablesWithStats pairs each table's config row with its stats row, with
// the same inner-join semantics as ServersWithStats.
func (s *Snapshot) TablesWithStats() iter.Seq2[Table, Stats] {
	tableRows := filterSeq(seqOf(s.Stats), func(row StatsRow) bool {
		return row.Kind == KindTable
	})

	joined := EquiJoin(
		tableRows, func(row StatsRow) uuid.UUID { return row.TableID },
		s.TableConfigs, func(tbl Table) uuid.UUID { return tbl.ID },
	)

	return func(yield func(Table, Stats) bool) {
		for pair := range joined {
			if !yield(pair.Right, pair.Left.Stats) {
				return
			}
		}
	}
}

// ReplicasWithStats flattens every table's shard topology and enriches
// each replica. For every flattened record exactly one pair is yielded:
// either (row, nil), or (zero, err) when the owning table has no
// table_config row - the consumer decides whether that skips the record or
// aborts the cycle. Already-yielded rows remain valid regardless.
func (s *Snapshot) ReplicasWithStats() iter.Seq2[ReplicaRow, error] {
	enricher := NewEnricher(s.TableConfigs, s.ServerConfigs, s.Stats)

	return func(yield func(ReplicaRow, error) bool) {
		for tr := range FlattenStatuses(s.TableStatuses) {
			row, err := enricher.Enrich(tr)
			if !yield(row, err) {
				return
			}
		}
	}
}

// ClusterStats re-publishes every stats row unmodified, including rows of
// kinds outside the three joined families (such as the cluster-wide
// ['cluster'] row).
func (s *Snapshot) ClusterStats() iter.Seq[StatsRow] {
	return seqOf(s.Stats)
}

// RawTableStatuses re-publishes the table_status rows without join logic.
func (s *Snapshot) RawTableStatuses() iter.Seq[TableStatus] {
	return seqOf(s.TableStatuses)
}

// RawServerStatuses re-publishes the server_status rows without join logic.
func (s *Snapshot) RawServerStatuses() iter.Seq[ServerStatus] {
	return seqOf(s.ServerStatuses)
}

// SystemJobs re-publishes the jobs rows without join logic.
func (s *Snapshot) SystemJobs() iter.Seq[Job] {
	return seqOf(s.Jobs)
}
