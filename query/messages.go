package query

import (
	"github.com/goliatone/go-capabilities/core"
)

const (
	TypeTransformers    = "capabilities.query.transformers"
	TypeGovernor        = "capabilities.query.governor"
	TypeListAuditEvents = "capabilities.query.audit_events.list"
)

type TransformersMessage struct {
	Dependents []core.Address `json:"dependents"`
}

func (TransformersMessage) Type() string { return TypeTransformers }

func (TransformersMessage) Validate() error { return nil }

type GovernorMessage struct{}

func (GovernorMessage) Type() string { return TypeGovernor }

func (GovernorMessage) Validate() error { return nil }

type ListAuditEventsMessage struct {
	Filter core.AuditEventFilter
}

func (ListAuditEventsMessage) Type() string { return TypeListAuditEvents }

func (m ListAuditEventsMessage) Validate() error {
	if m.Filter.Limit < 0 {
		return queryValidationError("limit", "limit must be >= 0")
	}
	switch m.Filter.Kind {
	case "", core.AuditEventTransformersRegistered, core.AuditEventTransformersRemoved:
		return nil
	default:
		return queryValidationError("kind", "unknown audit event kind "+string(m.Filter.Kind))
	}
}
