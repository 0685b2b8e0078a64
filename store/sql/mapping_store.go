package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-capabilities/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const maxSequenceAttempts = 3

// MappingStore persists the dependent -> provider mapping and the audit
// journal in the same database so a mutation and its event commit together.
type MappingStore struct {
	db     *bun.DB
	events repository.Repository[*auditEventRecord]
}

func NewMappingStore(db *bun.DB) (*MappingStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	events := repository.NewRepository[*auditEventRecord](db, auditEventHandlers())
	if validator, ok := events.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid audit event repository wiring: %w", err)
		}
	}
	return &MappingStore{db: db, events: events}, nil
}

func (s *MappingStore) Load(ctx context.Context, dependents []core.Address) ([]core.Address, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: mapping store is not configured")
	}
	out := make([]core.Address, len(dependents))
	if len(dependents) == 0 {
		return out, nil
	}

	keys := make([]string, 0, len(dependents))
	seen := make(map[core.Address]struct{}, len(dependents))
	for _, dependent := range dependents {
		if _, ok := seen[dependent]; ok {
			continue
		}
		seen[dependent] = struct{}{}
		keys = append(keys, dependent.Hex())
	}

	var records []capabilityMappingRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.dependent IN (?)", bun.In(keys)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	providers := make(map[string]core.Address, len(records))
	for _, record := range records {
		provider, parseErr := core.ParseAddress(record.Provider)
		if parseErr != nil {
			return nil, fmt.Errorf("sqlstore: stored provider for %s is corrupt: %w", record.Dependent, parseErr)
		}
		providers[strings.ToLower(record.Dependent)] = provider
	}
	for i, dependent := range dependents {
		out[i] = providers[dependent.Hex()]
	}
	return out, nil
}

func (s *MappingStore) Apply(ctx context.Context, mutation core.Mutation) (core.AuditEvent, error) {
	if s == nil || s.db == nil || s.events == nil {
		return core.AuditEvent{}, fmt.Errorf("sqlstore: mapping store is not configured")
	}
	event := mutation.Event
	if strings.TrimSpace(event.ID) == "" {
		event.ID = uuid.NewString()
	}
	records := collapseWrites(mutation.Writes, time.Now().UTC())

	var (
		committed core.AuditEvent
		err       error
	)
	for attempt := 0; attempt < maxSequenceAttempts; attempt++ {
		err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if len(records) > 0 {
				_, upsertErr := tx.NewInsert().
					Model(&records).
					On("CONFLICT (dependent) DO UPDATE").
					Set("provider = EXCLUDED.provider").
					Set("updated_at = EXCLUDED.updated_at").
					Exec(ctx)
				if upsertErr != nil {
					return upsertErr
				}
			}

			sequence, seqErr := nextSequence(ctx, tx)
			if seqErr != nil {
				return seqErr
			}
			inserted, createErr := s.events.CreateTx(ctx, tx, newAuditEventRecord(event, sequence))
			if createErr != nil {
				return createErr
			}
			out, convertErr := inserted.toDomain()
			if convertErr != nil {
				return convertErr
			}
			committed = out
			return nil
		})
		if err == nil || !isUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		return core.AuditEvent{}, err
	}
	return committed, nil
}

func (s *MappingStore) ListAuditEvents(ctx context.Context, filter core.AuditEventFilter) (core.AuditEventPage, error) {
	if s == nil || s.events == nil {
		return core.AuditEventPage{}, fmt.Errorf("sqlstore: mapping store is not configured")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	after := int64(filter.AfterSequence)
	selectors := []repository.SelectCriteria{
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.sequence > ?", after)
		}),
		repository.OrderBy("sequence ASC"),
		repository.SelectPaginate(limit, 0),
	}
	if kind := strings.TrimSpace(string(filter.Kind)); kind != "" {
		selectors = append(selectors, repository.SelectBy("kind", "=", kind))
	}

	records, total, err := s.events.List(ctx, selectors...)
	if err != nil {
		return core.AuditEventPage{}, err
	}
	page := core.AuditEventPage{Items: make([]core.AuditEvent, 0, len(records))}
	for _, record := range records {
		event, convertErr := record.toDomain()
		if convertErr != nil {
			return core.AuditEventPage{}, convertErr
		}
		page.Items = append(page.Items, event)
	}
	page.HasNext = len(page.Items) < total
	if page.HasNext && len(page.Items) > 0 {
		page.NextSequence = page.Items[len(page.Items)-1].Sequence
	}
	return page, nil
}

func nextSequence(ctx context.Context, tx bun.Tx) (int64, error) {
	var current int64
	err := tx.NewSelect().
		Model((*auditEventRecord)(nil)).
		ColumnExpr("COALESCE(MAX(sequence), 0)").
		Scan(ctx, &current)
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}

// collapseWrites keeps the last write per dependent; a single upsert cannot
// touch the same row twice.
func collapseWrites(writes []core.MappingWrite, now time.Time) []capabilityMappingRecord {
	if len(writes) == 0 {
		return nil
	}
	index := make(map[core.Address]int, len(writes))
	records := make([]capabilityMappingRecord, 0, len(writes))
	for _, write := range writes {
		record := capabilityMappingRecord{
			Dependent: write.Dependent.Hex(),
			Provider:  write.Provider.Hex(),
			UpdatedAt: now,
		}
		if position, ok := index[write.Dependent]; ok {
			records[position] = record
			continue
		}
		index[write.Dependent] = len(records)
		records = append(records, record)
	}
	return records
}

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
