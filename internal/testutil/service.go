package testutil

import (
	"testing"

	"arv-go/internal/arv"
	"arv-go/internal/audit"
	"arv-go/internal/store"
)

// NewTestService wires a Service over a fresh temp store with a stub
// clock and a real audit logger, so tests exercise the full id
// allocation and log append paths.
func NewTestService(t *testing.T) (*arv.Service, *store.Store) {
	t.Helper()

	st := NewTestStore(t)
	clock := FixedClock()
	auditor := audit.New(st, clock)
	svc := arv.NewService(st, auditor, arv.NewNopLogger(), clock, "test-invocation")
	return svc, st
}
