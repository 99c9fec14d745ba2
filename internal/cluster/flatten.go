package cluster

import "iter"

// FlattenStatuses expands each table's nested shard/replica structure into
// one flat record per (table, replica). The table id is attached to every
// shard before the shard container is discarded, then to every replica, so
// it survives both expansion levels. A table with zero shards, or a shard
// with zero replicas, contributes zero records.
//
// Flattening is size-preserving: the number of records equals the total
// replica count across all shards of all tables.
func FlattenStatuses(statuses []TableStatus) iter.Seq[TableReplica] {
	return func(yield func(TableReplica) bool) {
		for _, status := range statuses {
			for _, shard := range status.Shards {
				for _, replica := range shard.Replicas {
					record := TableReplica{
						Table: status.Table,
						Replica: Replica{
							Server: replica.Server,
							State:  replica.State,
						},
					}
					if !yield(record) {
						return
					}
				}
			}
		}
	}
}
