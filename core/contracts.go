package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

// CapabilityContract is the introspection surface a transformer candidate
// exposes. Implementations are untrusted: they may lie, block, fail, or panic.
type CapabilityContract interface {
	SupportsInterface(ctx context.Context, id InterfaceID) (bool, error)
}

type CapabilityContractFunc func(ctx context.Context, id InterfaceID) (bool, error)

func (f CapabilityContractFunc) SupportsInterface(ctx context.Context, id InterfaceID) (bool, error) {
	return f(ctx, id)
}

// ProviderResolver locates the contract deployed at an address.
type ProviderResolver interface {
	Resolve(ctx context.Context, address Address) (CapabilityContract, error)
}

// AuthorityCapsule reports the single identity allowed to mutate the registry.
type AuthorityCapsule interface {
	CurrentAuthority(ctx context.Context) (Address, error)
}

// Mutation is the unit a MappingStore commits atomically: every write plus the
// audit event describing them.
type Mutation struct {
	Writes []MappingWrite
	Event  AuditEvent
}

type MappingStore interface {
	// Load returns the provider for each dependent in input order, zero when
	// unregistered.
	Load(ctx context.Context, dependents []Address) ([]Address, error)
	// Apply commits the writes and the event together, returning the event
	// with its assigned sequence.
	Apply(ctx context.Context, mutation Mutation) (AuditEvent, error)
}

type AuditEventReader interface {
	ListAuditEvents(ctx context.Context, filter AuditEventFilter) (AuditEventPage, error)
}

// AuditLog receives every committed audit event after the mutation commits.
type AuditLog interface {
	Append(ctx context.Context, event AuditEvent) error
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
