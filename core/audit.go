package core

import (
	"context"
	"sync"
	"time"
)

type AuditEventKind string

const (
	AuditEventTransformersRegistered AuditEventKind = "transformers.registered"
	AuditEventTransformersRemoved    AuditEventKind = "transformers.removed"
)

// AuditEvent records one committed registry mutation. Registered events carry
// Registrations, removed events carry Dependents, both in submission order.
type AuditEvent struct {
	ID            string         `json:"id"`
	Sequence      uint64         `json:"sequence"`
	Kind          AuditEventKind `json:"kind"`
	Authority     Address        `json:"authority"`
	Registrations []Registration `json:"registrations,omitempty"`
	Dependents    []Address      `json:"dependents,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

func (e AuditEvent) Clone() AuditEvent {
	cloned := e
	cloned.Registrations = cloneRegistrations(e.Registrations)
	cloned.Dependents = cloneAddresses(e.Dependents)
	return cloned
}

type AuditEventFilter struct {
	Kind          AuditEventKind
	AfterSequence uint64
	Limit         int
}

type AuditEventPage struct {
	Items        []AuditEvent
	HasNext      bool
	NextSequence uint64
}

const defaultAuditPageLimit = 50

func (f AuditEventFilter) limit() int {
	if f.Limit <= 0 {
		return defaultAuditPageLimit
	}
	return f.Limit
}

// MemoryAuditLog keeps every appended event in order.
type MemoryAuditLog struct {
	mu     sync.RWMutex
	events []AuditEvent
}

func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{}
}

func (l *MemoryAuditLog) Name() string { return "memory" }

func (l *MemoryAuditLog) Append(_ context.Context, event AuditEvent) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event.Clone())
	return nil
}

func (l *MemoryAuditLog) Events() []AuditEvent {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]AuditEvent, 0, len(l.events))
	for _, event := range l.events {
		out = append(out, event.Clone())
	}
	return out
}

// LoggingAuditLog writes each event as a structured log line.
type LoggingAuditLog struct {
	logger Logger
}

func NewLoggingAuditLog(logger Logger) *LoggingAuditLog {
	return &LoggingAuditLog{logger: logger}
}

func (l *LoggingAuditLog) Name() string { return "logger" }

func (l *LoggingAuditLog) Append(ctx context.Context, event AuditEvent) error {
	if l == nil || l.logger == nil {
		return nil
	}
	fields := map[string]any{
		"event_id":       event.ID,
		"event_sequence": event.Sequence,
		"event_kind":     string(event.Kind),
		"authority":      event.Authority.Hex(),
	}
	switch event.Kind {
	case AuditEventTransformersRegistered:
		registrations := make([]map[string]any, 0, len(event.Registrations))
		for _, registration := range event.Registrations {
			registrations = append(registrations, map[string]any{
				"transformer": registration.Provider.Hex(),
				"dependents":  AddressStrings(registration.Dependents),
			})
		}
		fields["registrations"] = registrations
	case AuditEventTransformersRemoved:
		fields["dependents"] = AddressStrings(event.Dependents)
	}

	logger := l.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	logger.Info(string(event.Kind), flattenFields(fields)...)
	return nil
}

var (
	_ AuditLog = (*MemoryAuditLog)(nil)
	_ AuditLog = (*LoggingAuditLog)(nil)
)
