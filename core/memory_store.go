package core

import (
	"context"
	"sync"
)

// MemoryMappingStore keeps the mapping and the event journal in process.
// Apply holds the write lock for the whole mutation, so Load never observes a
// partially applied batch. The zero value is ready to use.
type MemoryMappingStore struct {
	mu       sync.RWMutex
	entries  map[Address]Address
	events   []AuditEvent
	sequence uint64
}

func NewMemoryMappingStore() *MemoryMappingStore {
	return &MemoryMappingStore{entries: make(map[Address]Address)}
}

func (s *MemoryMappingStore) Load(_ context.Context, dependents []Address) ([]Address, error) {
	out := make([]Address, len(dependents))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, dependent := range dependents {
		out[i] = s.entries[dependent]
	}
	return out, nil
}

func (s *MemoryMappingStore) Apply(_ context.Context, mutation Mutation) (AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[Address]Address, len(mutation.Writes))
	}
	for _, write := range mutation.Writes {
		s.entries[write.Dependent] = write.Provider
	}
	s.sequence++
	event := mutation.Event.Clone()
	event.Sequence = s.sequence
	s.events = append(s.events, event)
	return event.Clone(), nil
}

func (s *MemoryMappingStore) ListAuditEvents(_ context.Context, filter AuditEventFilter) (AuditEventPage, error) {
	limit := filter.limit()
	s.mu.RLock()
	defer s.mu.RUnlock()

	page := AuditEventPage{Items: make([]AuditEvent, 0, limit)}
	for _, event := range s.events {
		if event.Sequence <= filter.AfterSequence {
			continue
		}
		if filter.Kind != "" && event.Kind != filter.Kind {
			continue
		}
		if len(page.Items) == limit {
			page.HasNext = true
			break
		}
		page.Items = append(page.Items, event.Clone())
	}
	if page.HasNext {
		page.NextSequence = page.Items[len(page.Items)-1].Sequence
	}
	return page, nil
}

var (
	_ MappingStore     = (*MemoryMappingStore)(nil)
	_ AuditEventReader = (*MemoryMappingStore)(nil)
)
