package reader

import (
	"context"
	"testing"
	"time"
)

func TestQueryContext_AppliesTimeout(t *testing.T) {
	rd := &RethinkReader{queryTimeout: 50 * time.Millisecond}

	ctx, cancel := rd.queryContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline on the per-fetch context")
	}
	if remaining := time.Until(deadline); remaining > 50*time.Millisecond {
		t.Errorf("deadline further away than the configured timeout: %v", remaining)
	}
}

func TestQueryContext_TightensCallerDeadline(t *testing.T) {
	rd := &RethinkReader{queryTimeout: 10 * time.Millisecond}

	parent, parentCancel := context.WithTimeout(context.Background(), time.Hour)
	defer parentCancel()

	ctx, cancel := rd.queryContext(parent)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline on the per-fetch context")
	}
	if time.Until(deadline) > 10*time.Millisecond {
		t.Error("per-fetch deadline should be tighter than the caller's")
	}
}

func TestQueryContext_ZeroTimeoutPassesThrough(t *testing.T) {
	rd := &RethinkReader{}

	ctx, cancel := rd.queryContext(context.Background())
	defer cancel()

	if _, ok := ctx.Deadline(); ok {
		t.Error("zero timeout must not add a deadline")
	}
}
