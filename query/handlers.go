package query

import (
	"context"

	"github.com/goliatone/go-capabilities/core"
)

type TransformerReader interface {
	Transformers(ctx context.Context, dependents []core.Address) ([]core.Address, error)
}

type GovernorReader interface {
	Governor(ctx context.Context) (core.Address, error)
}

type AuditEventReader interface {
	AuditEvents(ctx context.Context, filter core.AuditEventFilter) (core.AuditEventPage, error)
}

type TransformersQuery struct {
	reader TransformerReader
}

func NewTransformersQuery(reader TransformerReader) *TransformersQuery {
	return &TransformersQuery{reader: reader}
}

func (q *TransformersQuery) Query(ctx context.Context, msg TransformersMessage) ([]core.Address, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: transformer reader is required")
	}
	return q.reader.Transformers(ctx, msg.Dependents)
}

type GovernorQuery struct {
	reader GovernorReader
}

func NewGovernorQuery(reader GovernorReader) *GovernorQuery {
	return &GovernorQuery{reader: reader}
}

func (q *GovernorQuery) Query(ctx context.Context, _ GovernorMessage) (core.Address, error) {
	if q == nil || q.reader == nil {
		return core.ZeroAddress, queryDependencyError("query: governor reader is required")
	}
	return q.reader.Governor(ctx)
}

type ListAuditEventsQuery struct {
	reader AuditEventReader
}

func NewListAuditEventsQuery(reader AuditEventReader) *ListAuditEventsQuery {
	return &ListAuditEventsQuery{reader: reader}
}

func (q *ListAuditEventsQuery) Query(ctx context.Context, msg ListAuditEventsMessage) (core.AuditEventPage, error) {
	if q == nil || q.reader == nil {
		return core.AuditEventPage{}, queryDependencyError("query: audit event reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.AuditEventPage{}, err
	}
	return q.reader.AuditEvents(ctx, msg.Filter)
}
