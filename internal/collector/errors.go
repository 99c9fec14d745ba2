// Package collector orchestrates collection cycles: it drives the reader,
// runs the join engine per record family, applies the topology policy and
// assembles the cycle result consumed by the emitter and the status API.
package collector

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two failure classes of a cycle. Missing-but-
// expected data (disconnected servers, not-yet-existing replica stats) is
// not an error at all; it is substituted inside the join engine.
var (
	// ErrCollectionFailed marks a transport failure during a fetch. The
	// collector performs no retry; the next scheduled cycle is the retry.
	ErrCollectionFailed = errors.New("collection failed")

	// ErrInconsistentTopology marks a table referenced by table_status
	// with no table_config row. The topology policy decides whether this
	// skips the affected records or fails the replica family.
	ErrInconsistentTopology = errors.New("inconsistent topology")
)

// FamilyError ties a failure to the one record family it affects, so that
// unrelated families stay collectable.
type FamilyError struct {
	Family string // servers, tables, replicas, cluster_stats, table_statuses, server_statuses, jobs
	Err    error
}

func (e *FamilyError) Error() string {
	return fmt.Sprintf("family %s: %v", e.Family, e.Err)
}

func (e *FamilyError) Unwrap() error {
	return e.Err
}

func failedFamily(family string, err error) *FamilyError {
	return &FamilyError{Family: family, Err: fmt.Errorf("%w: %v", ErrCollectionFailed, err)}
}

func inconsistentFamily(family string, err error) *FamilyError {
	return &FamilyError{Family: family, Err: fmt.Errorf("%w: %v", ErrInconsistentTopology, err)}
}
