package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// AuditDispatcher fans committed audit events out to registered logs.
type AuditDispatcher struct {
	mu   sync.RWMutex
	logs []AuditLog
}

func NewAuditDispatcher(logs ...AuditLog) *AuditDispatcher {
	dispatcher := &AuditDispatcher{logs: make([]AuditLog, 0, len(logs))}
	for _, log := range logs {
		dispatcher.Register(log)
	}
	return dispatcher
}

func (d *AuditDispatcher) Register(log AuditLog) {
	if d == nil || log == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logs = append(d.logs, log)
}

// Dispatch delivers the event to every log in registration order. Failures
// are aggregated; the mutation behind the event is already committed.
func (d *AuditDispatcher) Dispatch(ctx context.Context, event AuditEvent) error {
	var dispatchErr error
	for _, log := range d.snapshot() {
		if err := log.Append(ctx, event.Clone()); err != nil {
			dispatchErr = errors.Join(dispatchErr, fmt.Errorf("audit log %q failed: %w", auditLogName(log), err))
		}
	}
	return dispatchErr
}

func (d *AuditDispatcher) Len() int {
	if d == nil {
		return 0
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.logs)
}

func (d *AuditDispatcher) snapshot() []AuditLog {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]AuditLog, len(d.logs))
	copy(out, d.logs)
	return out
}

func auditLogName(log AuditLog) string {
	named, ok := log.(interface{ Name() string })
	if !ok {
		return fmt.Sprintf("%T", log)
	}
	name := strings.TrimSpace(named.Name())
	if name == "" {
		return "unnamed"
	}
	return name
}
