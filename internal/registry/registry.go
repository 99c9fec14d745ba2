// Package registry registers the agent in etcd and runs leader election,
// so that at most one agent per monitored cluster emits metrics.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/rethinkmon/rethinkmon/internal/config"
	"github.com/rethinkmon/rethinkmon/internal/logging"
)

const agentPrefix = "/rethinkmon/agents"
const electionPrefix = "/rethinkmon/leader"

// AgentInfo describes one running agent instance.
type AgentInfo struct {
	ID        string    `json:"id"`
	Hostname  string    `json:"hostname"`
	Cluster   string    `json:"cluster"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
}

// Registry handles agent registration and leader election against etcd.
type Registry struct {
	client   *clientv3.Client
	session  *concurrency.Session
	election *concurrency.Election
	info     AgentInfo
	logger   *logging.Logger
	leaseTTL int
	leader   atomic.Bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// New connects to etcd and prepares a Registry for the agent.
func New(cfg config.RegistryConfig, info AgentInfo, logger *logging.Logger) (*Registry, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	ttl := cfg.LeaseTTL
	if ttl <= 0 {
		ttl = 10
	}
	if info.Cluster == "" {
		info.Cluster = cfg.Cluster
	}

	return &Registry{
		client:   client,
		info:     info,
		logger:   logger,
		leaseTTL: ttl,
		done:     make(chan struct{}),
	}, nil
}

// Start registers the agent under a lease and begins campaigning for
// leadership of its cluster. The session keeps the lease alive until
// Close is called or the context ends.
func (r *Registry) Start(ctx context.Context) error {
	session, err := concurrency.NewSession(r.client, concurrency.WithTTL(r.leaseTTL), concurrency.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to create etcd session: %w", err)
	}
	r.session = session

	key := fmt.Sprintf("%s/%s", agentPrefix, r.info.ID)
	data, err := json.Marshal(r.info)
	if err != nil {
		return fmt.Errorf("failed to marshal agent info: %w", err)
	}
	if _, err := r.client.Put(ctx, key, string(data), clientv3.WithLease(session.Lease())); err != nil {
		return fmt.Errorf("failed to register agent: %w", err)
	}

	r.logger.Info("Agent registered",
		"agent_id", r.info.ID,
		"cluster", r.info.Cluster,
		"lease_id", int64(session.Lease()),
		"ttl", r.leaseTTL)

	r.election = concurrency.NewElection(session, fmt.Sprintf("%s/%s", electionPrefix, r.info.Cluster))

	campaignCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	go r.campaign(campaignCtx)

	return nil
}

// campaign blocks until this agent wins the election, then holds
// leadership until the session lapses or the context ends.
func (r *Registry) campaign(ctx context.Context) {
	defer close(r.done)

	r.logger.Info("Campaigning for leadership", "cluster", r.info.Cluster)
	if err := r.election.Campaign(ctx, r.info.ID); err != nil {
		if ctx.Err() == nil {
			r.logger.Error("Leadership campaign failed", "error", err)
		}
		return
	}

	r.leader.Store(true)
	r.logger.Info("Acquired leadership", "cluster", r.info.Cluster, "agent_id", r.info.ID)

	select {
	case <-ctx.Done():
	case <-r.session.Done():
		r.logger.Warn("Etcd session lapsed, leadership lost")
	}
	r.leader.Store(false)
}

// IsLeader reports whether this agent currently holds leadership.
func (r *Registry) IsLeader() bool {
	return r.leader.Load()
}

// Leader returns the id of the current leader for this cluster.
func (r *Registry) Leader(ctx context.Context) (string, error) {
	if r.election == nil {
		return "", fmt.Errorf("registry not started")
	}
	resp, err := r.election.Leader(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to query leader: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return "", nil
	}
	return string(resp.Kvs[0].Value), nil
}

// Close resigns leadership, revokes the lease and closes the client.
func (r *Registry) Close() error {
	wasLeader := r.leader.Load()
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}

	if r.election != nil && wasLeader {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := r.election.Resign(ctx); err != nil {
			r.logger.Warn("Failed to resign leadership", "error", err)
		}
		cancel()
	}
	if r.session != nil {
		if err := r.session.Close(); err != nil {
			r.logger.Warn("Failed to close etcd session", "error", err)
		}
	}
	return r.client.Close()
}
