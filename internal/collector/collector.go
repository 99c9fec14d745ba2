package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rethinkmon/rethinkmon/internal/cluster"
	"github.com/rethinkmon/rethinkmon/internal/config"
	"github.com/rethinkmon/rethinkmon/internal/logging"
	"github.com/rethinkmon/rethinkmon/internal/reader"
)

// Result is one collection cycle's output: the three joined record
// families plus the four raw pass-throughs. A family that failed is nil
// and carries its error in Errors; the other families remain valid.
type Result struct {
	CollectedAt time.Time     `json:"collected_at"`
	Duration    time.Duration `json:"duration"`

	Servers  []cluster.ServerRow  `json:"servers,omitempty"`
	Tables   []cluster.TableRow   `json:"tables,omitempty"`
	Replicas []cluster.ReplicaRow `json:"replicas,omitempty"`

	ClusterStats   []cluster.StatsRow     `json:"cluster_stats,omitempty"`
	TableStatuses  []cluster.TableStatus  `json:"table_statuses,omitempty"`
	ServerStatuses []cluster.ServerStatus `json:"server_statuses,omitempty"`
	Jobs           []cluster.Job          `json:"jobs,omitempty"`

	// SkippedTables counts replica records dropped under the skip policy.
	SkippedTables int `json:"skipped_tables,omitempty"`

	Errors []*FamilyError `json:"errors,omitempty"`
}

// numFamilies is the count of independently collected record families.
const numFamilies = 7

// Failed reports whether any family failed this cycle.
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}

// AllFailed reports whether every family failed, i.e. the cluster was
// unreachable for the entire cycle.
func (r *Result) AllFailed() bool {
	return len(r.Errors) == numFamilies
}

// Collector runs collection cycles against one cluster.
type Collector struct {
	logger      *logging.Logger
	reader      reader.SystemReader
	policy      string
	parallelism int
}

// New creates a Collector.
func New(logger *logging.Logger, rd reader.SystemReader, cfg config.CollectorConfig) *Collector {
	return &Collector{
		logger:      logger,
		reader:      rd,
		policy:      cfg.TopologyPolicy,
		parallelism: cfg.Parallelism,
	}
}

// Collect runs one full cycle. Every record family is fetched and joined
// independently, so a transport failure in one family leaves the others
// intact; per-family errors are gathered into the result rather than
// aborting the cycle. The fetches behind the families are independent
// reads with no cross-table transaction.
func (c *Collector) Collect(ctx context.Context) *Result {
	start := time.Now()
	result := &Result{CollectedAt: start}

	var mu sync.Mutex
	fail := func(fe *FamilyError) {
		mu.Lock()
		result.Errors = append(result.Errors, fe)
		mu.Unlock()
		c.logger.Warn("Record family failed", "family", fe.Family, "error", fe.Err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := c.CollectServers(gctx)
		if err != nil {
			fail(err)
			return nil
		}
		result.Servers = rows
		return nil
	})

	g.Go(func() error {
		rows, err := c.CollectTables(gctx)
		if err != nil {
			fail(err)
			return nil
		}
		result.Tables = rows
		return nil
	})

	g.Go(func() error {
		rows, skipped, err := c.CollectReplicas(gctx)
		if err != nil {
			fail(err)
			return nil
		}
		result.Replicas = rows
		result.SkippedTables = skipped
		return nil
	})

	g.Go(func() error {
		rows, err := c.reader.Stats(gctx)
		if err != nil {
			fail(failedFamily("cluster_stats", err))
			return nil
		}
		result.ClusterStats = rows
		return nil
	})

	g.Go(func() error {
		rows, err := c.reader.TableStatuses(gctx)
		if err != nil {
			fail(failedFamily("table_statuses", err))
			return nil
		}
		result.TableStatuses = rows
		return nil
	})

	g.Go(func() error {
		rows, err := c.reader.ServerStatuses(gctx)
		if err != nil {
			fail(failedFamily("server_statuses", err))
			return nil
		}
		result.ServerStatuses = rows
		return nil
	})

	g.Go(func() error {
		rows, err := c.reader.Jobs(gctx)
		if err != nil {
			fail(failedFamily("jobs", err))
			return nil
		}
		result.Jobs = rows
		return nil
	})

	_ = g.Wait() // family errors are gathered, never returned

	result.Duration = time.Since(start)
	c.logger.Debug("Cycle collected",
		"servers", len(result.Servers),
		"tables", len(result.Tables),
		"replicas", len(result.Replicas),
		"jobs", len(result.Jobs),
		"skipped_tables", result.SkippedTables,
		"errors", len(result.Errors),
		"duration", result.Duration)

	return result
}

// CollectServers produces the (server, stats) family: stats rows of server
// kind inner-joined against server_config on the server id.
func (c *Collector) CollectServers(ctx context.Context) ([]cluster.ServerRow, *FamilyError) {
	stats, err := c.reader.Stats(ctx)
	if err != nil {
		return nil, failedFamily("servers", err)
	}
	configs, err := c.reader.ServerConfigs(ctx)
	if err != nil {
		return nil, failedFamily("servers", err)
	}

	snap := &cluster.Snapshot{Stats: stats, ServerConfigs: configs}

	var rows []cluster.ServerRow
	for server, st := range snap.ServersWithStats() {
		rows = append(rows, cluster.ServerRow{Server: server, Stats: st})
	}
	return rows, nil
}

// CollectTables produces the (table, stats) family: stats rows of table
// kind inner-joined against table_config on the table id.
func (c *Collector) CollectTables(ctx context.Context) ([]cluster.TableRow, *FamilyError) {
	stats, err := c.reader.Stats(ctx)
	if err != nil {
		return nil, failedFamily("tables", err)
	}
	configs, err := c.reader.TableConfigs(ctx)
	if err != nil {
		return nil, failedFamily("tables", err)
	}

	snap := &cluster.Snapshot{Stats: stats, TableConfigs: configs}

	var rows []cluster.TableRow
	for table, st := range snap.TablesWithStats() {
		rows = append(rows, cluster.TableRow{Table: table, Stats: st})
	}
	return rows, nil
}

// CollectReplicas produces the enriched (table, server, replica, stats)
// family. A missing server config or missing replica stats substitutes
// the documented defaults; a missing table config is handled per the
// topology policy: skip drops that table's records with a warning, fail
// aborts this family only. Returns the rows and the number of records
// skipped.
func (c *Collector) CollectReplicas(ctx context.Context) ([]cluster.ReplicaRow, int, *FamilyError) {
	stats, err := c.reader.Stats(ctx)
	if err != nil {
		return nil, 0, failedFamily("replicas", err)
	}
	tableConfigs, err := c.reader.TableConfigs(ctx)
	if err != nil {
		return nil, 0, failedFamily("replicas", err)
	}
	serverConfigs, err := c.reader.ServerConfigs(ctx)
	if err != nil {
		return nil, 0, failedFamily("replicas", err)
	}
	statuses, err := c.reader.TableStatuses(ctx)
	if err != nil {
		return nil, 0, failedFamily("replicas", err)
	}

	snap := &cluster.Snapshot{
		Stats:         stats,
		ServerConfigs: serverConfigs,
		TableConfigs:  tableConfigs,
		TableStatuses: statuses,
	}

	if c.parallelism > 1 {
		return c.enrichParallel(ctx, snap)
	}

	var rows []cluster.ReplicaRow
	skipped := 0
	for row, err := range snap.ReplicasWithStats() {
		if err != nil {
			if c.policy == config.TopologyFail {
				return nil, 0, inconsistentFamily("replicas", err)
			}
			skipped++
			c.logger.Warn("Skipping replica with unknown table", "error", err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

// enrichParallel fans replica enrichment out over a bounded worker group.
// Enrichment is pure per record, so parallelism changes only throughput
// and output order, which is unspecified anyway.
func (c *Collector) enrichParallel(ctx context.Context, snap *cluster.Snapshot) ([]cluster.ReplicaRow, int, *FamilyError) {
	enricher := cluster.NewEnricher(snap.TableConfigs, snap.ServerConfigs, snap.Stats)

	in := make(chan cluster.TableReplica)
	out := make(chan cluster.ReplicaRow)
	skips := make(chan error)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(in)
		for tr := range cluster.FlattenStatuses(snap.TableStatuses) {
			select {
			case in <- tr:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for range c.parallelism {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for tr := range in {
				row, err := enricher.Enrich(tr)
				if err != nil {
					if c.policy == config.TopologyFail {
						return err
					}
					select {
					case skips <- err:
					case <-gctx.Done():
						return gctx.Err()
					}
					continue
				}
				select {
				case out <- row:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(out)
		close(skips)
	}()

	var rows []cluster.ReplicaRow
	skipped := 0
	for out != nil || skips != nil {
		select {
		case row, ok := <-out:
			if !ok {
				out = nil
				continue
			}
			rows = append(rows, row)
		case err, ok := <-skips:
			if !ok {
				skips = nil
				continue
			}
			skipped++
			c.logger.Warn("Skipping replica with unknown table", "error", err)
		}
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, 0, failedFamily("replicas", err)
		}
		return nil, 0, inconsistentFamily("replicas", err)
	}
	return rows, skipped, nil
}
