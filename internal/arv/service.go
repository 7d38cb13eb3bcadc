// Package arv implements the archive storage engine: the batch
// operations that move objects between the working tree and the store
// (put, restore, move), vault lifecycle management, cd-target
// resolution for the shell integration, and the read-only consistency
// checker.
package arv

import (
	"errors"

	"arv-go/internal/model"
	"arv-go/internal/store"
)

// Auditor is the append-only operation log consumed by the service.
// Write failures must be surfaced, never swallowed.
type Auditor interface {
	Log(level model.LogLevel, op model.Operation, message string, refs model.Refs) error
}

// Service is the orchestration layer over the metadata store and the
// filesystem. One instance is created per process invocation; batch
// items are processed strictly sequentially so id allocation and
// record-set mutation never race within a call.
type Service struct {
	store  *store.Store
	audit  Auditor
	logger Logger
	clock  Clock
	source string // invocation id stamped into audit records
}

// NewService creates a Service with the provided dependencies.
func NewService(st *store.Store, audit Auditor, logger Logger, clock Clock, source string) *Service {
	return &Service{
		store:  st,
		audit:  audit,
		logger: logger,
		clock:  clock,
		source: source,
	}
}

// ErrRemovedVaultExists signals that a vault with the requested name
// exists in removed state. Callers can offer recovery as a remediation
// instead of failing outright.
var ErrRemovedVaultExists = errors.New("a removed vault with this name exists")

// ErrVaultProtected signals an attempt to remove or rename the
// permanent default vault.
var ErrVaultProtected = errors.New("the default vault is protected")

func (s *Service) op(command, action string, args []string, options map[string]string) model.Operation {
	return model.Operation{
		Command: command,
		Action:  action,
		Args:    args,
		Options: options,
		Source:  s.source,
	}
}
