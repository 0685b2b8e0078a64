package sqlstore

import (
	"time"

	"github.com/goliatone/go-capabilities/core"
	"github.com/uptrace/bun"
)

type capabilityMappingRecord struct {
	bun.BaseModel `bun:"table:capability_mappings,alias:cm"`

	Dependent string    `bun:"dependent,pk"`
	Provider  string    `bun:"provider,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type auditEventRecord struct {
	bun.BaseModel `bun:"table:capability_audit_events,alias:cae"`

	ID        string       `bun:"id,pk"`
	Sequence  int64        `bun:"sequence,notnull"`
	Kind      string       `bun:"kind,notnull"`
	Authority string       `bun:"authority,notnull"`
	Payload   auditPayload `bun:"payload,type:jsonb,notnull"`
	CreatedAt time.Time    `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// auditPayload is the JSON body of an audit row. Registered events carry
// registrations, removed events carry dependents.
type auditPayload struct {
	Registrations []core.Registration `json:"registrations,omitempty"`
	Dependents    []core.Address      `json:"dependents,omitempty"`
}

func newAuditEventRecord(event core.AuditEvent, sequence int64) *auditEventRecord {
	createdAt := event.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	cloned := event.Clone()
	return &auditEventRecord{
		ID:        event.ID,
		Sequence:  sequence,
		Kind:      string(event.Kind),
		Authority: event.Authority.Hex(),
		Payload: auditPayload{
			Registrations: cloned.Registrations,
			Dependents:    cloned.Dependents,
		},
		CreatedAt: createdAt,
	}
}

func (r *auditEventRecord) toDomain() (core.AuditEvent, error) {
	if r == nil {
		return core.AuditEvent{}, nil
	}
	authority, err := core.ParseAddress(r.Authority)
	if err != nil {
		return core.AuditEvent{}, err
	}
	event := core.AuditEvent{
		ID:            r.ID,
		Sequence:      uint64(r.Sequence),
		Kind:          core.AuditEventKind(r.Kind),
		Authority:     authority,
		Registrations: r.Payload.Registrations,
		Dependents:    r.Payload.Dependents,
		OccurredAt:    r.CreatedAt.UTC(),
	}
	switch event.Kind {
	case core.AuditEventTransformersRegistered:
		if event.Registrations == nil {
			event.Registrations = []core.Registration{}
		}
	case core.AuditEventTransformersRemoved:
		if event.Dependents == nil {
			event.Dependents = []core.Address{}
		}
	}
	return event.Clone(), nil
}
