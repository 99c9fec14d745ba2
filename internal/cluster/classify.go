package cluster

import "github.com/google/uuid"

// StatsKind is the family of entity a stats row describes, derived purely
// from the shape of its composite identifier.
type StatsKind int

const (
	// KindUnclassified marks identifier shapes outside the three tracked
	// families (e.g. ['cluster']). Such rows are excluded from all joins
	// but still surface through the raw stats pass-through.
	KindUnclassified StatsKind = iota
	// KindServer marks ['server', serverId] rows.
	KindServer
	// KindTable marks ['table', tableId] rows.
	KindTable
	// KindReplica marks ['table_server', tableId, serverId] rows.
	KindReplica
)

// String returns the kind name for logs.
func (k StatsKind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindTable:
		return "table"
	case KindReplica:
		return "replica"
	default:
		return "unclassified"
	}
}

// StatsRow is one decoded row of the stats system table: the raw composite
// identifier, its classification, and the extracted entity keys. ServerID
// and TableID are uuid.Nil when the kind does not carry them.
type StatsRow struct {
	ID       []interface{} `json:"id"`
	Kind     StatsKind     `json:"-"`
	ServerID uuid.UUID     `json:"-"`
	TableID  uuid.UUID     `json:"-"`
	Stats    Stats         `json:"stats"`

	// Raw is the undecoded row, republished verbatim by the stats
	// pass-through.
	Raw map[string]interface{} `json:"-"`
}

// NewStatsRow classifies a raw stats identifier and builds the tagged row.
func NewStatsRow(id []interface{}, stats Stats, raw map[string]interface{}) StatsRow {
	row := StatsRow{ID: id, Stats: stats, Raw: raw}
	row.Kind, row.TableID, row.ServerID = ClassifyStatsID(id)
	return row
}

// ClassifyStatsID determines the family of a stats row from its composite
// identifier. Only the first element and the length are inspected to pick
// the kind; remaining elements are the entity keys. Any unknown shape, or
// a key that is not a UUID string, classifies as unclassified - never an
// error, since the stats table carries entity kinds beyond the tracked
// three.
func ClassifyStatsID(id []interface{}) (kind StatsKind, tableID, serverID uuid.UUID) {
	if len(id) == 0 {
		return KindUnclassified, uuid.Nil, uuid.Nil
	}

	head, ok := id[0].(string)
	if !ok {
		return KindUnclassified, uuid.Nil, uuid.Nil
	}

	switch {
	case head == "server" && len(id) == 2:
		serverID, ok = parseID(id[1])
		if !ok {
			return KindUnclassified, uuid.Nil, uuid.Nil
		}
		return KindServer, uuid.Nil, serverID

	case head == "table" && len(id) == 2:
		tableID, ok = parseID(id[1])
		if !ok {
			return KindUnclassified, uuid.Nil, uuid.Nil
		}
		return KindTable, tableID, uuid.Nil

	case head == "table_server" && len(id) == 3:
		tableID, ok = parseID(id[1])
		if !ok {
			return KindUnclassified, uuid.Nil, uuid.Nil
		}
		serverID, ok = parseID(id[2])
		if !ok {
			return KindUnclassified, uuid.Nil, uuid.Nil
		}
		return KindReplica, tableID, serverID

	default:
		return KindUnclassified, uuid.Nil, uuid.Nil
	}
}

func parseID(v interface{}) (uuid.UUID, bool) {
	s, ok := v.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
