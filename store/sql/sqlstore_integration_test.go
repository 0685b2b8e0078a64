package sqlstore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-capabilities/core"
	sqlstore "github.com/goliatone/go-capabilities/store/sql"
	goerrors "github.com/goliatone/go-errors"
	persistence "github.com/goliatone/go-persistence-bun"
)

var (
	governor = core.MustParseAddress("0x00000000000000000000000000000000000000aa")
	provider = core.MustParseAddress("0x0000000000000000000000000000000000001001")
	other    = core.MustParseAddress("0x0000000000000000000000000000000000001005")
	spare    = core.MustParseAddress("0x0000000000000000000000000000000000001009")
	depA     = core.MustParseAddress("0x0000000000000000000000000000000000002001")
	depB     = core.MustParseAddress("0x0000000000000000000000000000000000002002")
)

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	for _, table := range []string{"capability_mappings", "capability_audit_events"} {
		var name string
		if err := client.DB().NewRaw(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
			table,
		).Scan(context.Background(), &name); err != nil {
			t.Fatalf("query sqlite master for %s: %v", table, err)
		}
		if name != table {
			t.Fatalf("expected %s table, got %q", table, name)
		}
	}
}

func TestMappingStore_ApplyAndLoad(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()
	ctx := context.Background()

	store, err := sqlstore.NewMappingStore(client.DB())
	if err != nil {
		t.Fatalf("new mapping store: %v", err)
	}

	first, err := store.Apply(ctx, core.Mutation{
		Writes: []core.MappingWrite{
			{Dependent: depA, Provider: provider},
			{Dependent: depB, Provider: provider},
			{Dependent: depA, Provider: other},
		},
		Event: core.AuditEvent{
			ID:            "7d4c1c1e-8a6e-4b55-9a0f-1f2a3b4c5d6e",
			Kind:          core.AuditEventTransformersRegistered,
			Authority:     governor,
			Registrations: []core.Registration{{Provider: provider, Dependents: []core.Address{depA, depB}}, {Provider: other, Dependents: []core.Address{depA}}},
			OccurredAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if first.Sequence != 1 {
		t.Fatalf("expected sequence 1, got %d", first.Sequence)
	}

	got, err := store.Load(ctx, []core.Address{depB, depA, core.ZeroAddress})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got[0] != provider || got[1] != other || !got[2].IsZero() {
		t.Fatalf("unexpected providers %v", core.AddressStrings(got))
	}

	second, err := store.Apply(ctx, core.Mutation{
		Writes: []core.MappingWrite{{Dependent: depA, Provider: core.ZeroAddress}},
		Event: core.AuditEvent{
			ID:         "0b6f3e8e-2f7c-4a5e-8a8b-6c2b1d0e9f11",
			Kind:       core.AuditEventTransformersRemoved,
			Authority:  governor,
			Dependents: []core.Address{depA},
		},
	})
	if err != nil {
		t.Fatalf("apply removal: %v", err)
	}
	if second.Sequence != 2 {
		t.Fatalf("expected sequence 2, got %d", second.Sequence)
	}
	got, err = store.Load(ctx, []core.Address{depA})
	if err != nil {
		t.Fatalf("load after removal: %v", err)
	}
	if !got[0].IsZero() {
		t.Fatalf("expected cleared dependent, got %s", got[0].Hex())
	}
}

func TestMappingStore_ListAuditEvents(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()
	ctx := context.Background()

	store, err := sqlstore.NewMappingStore(client.DB())
	if err != nil {
		t.Fatalf("new mapping store: %v", err)
	}
	for i := 0; i < 3; i++ {
		kind := core.AuditEventTransformersRemoved
		if i == 1 {
			kind = core.AuditEventTransformersRegistered
		}
		if _, err := store.Apply(ctx, core.Mutation{Event: core.AuditEvent{
			ID:        fmt.Sprintf("00000000-0000-4000-8000-00000000000%d", i+1),
			Kind:      kind,
			Authority: governor,
		}}); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}

	page, err := store.ListAuditEvents(ctx, core.AuditEventFilter{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 2 || !page.HasNext || page.NextSequence != 2 {
		t.Fatalf("unexpected first page %+v", page)
	}
	if page.Items[1].Kind != core.AuditEventTransformersRegistered || page.Items[1].Registrations == nil {
		t.Fatalf("expected registered event with empty registrations, got %+v", page.Items[1])
	}

	page, err = store.ListAuditEvents(ctx, core.AuditEventFilter{AfterSequence: 2})
	if err != nil {
		t.Fatalf("list after: %v", err)
	}
	if len(page.Items) != 1 || page.HasNext || page.Items[0].Sequence != 3 {
		t.Fatalf("unexpected second page %+v", page)
	}

	page, err = store.ListAuditEvents(ctx, core.AuditEventFilter{Kind: core.AuditEventTransformersRemoved})
	if err != nil {
		t.Fatalf("list by kind: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 removed events, got %d", len(page.Items))
	}
}

func TestRegistry_PersistsThroughSQLStore(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()
	ctx := context.Background()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	directory := core.NewProviderDirectory()
	capability := core.TransformerCapability.InterfaceID()
	if err := directory.Deploy(provider, core.CapabilityContractFunc(func(_ context.Context, id core.InterfaceID) (bool, error) {
		return id == core.InterfaceIDERC165 || id == capability, nil
	})); err != nil {
		t.Fatalf("deploy: %v", err)
	}

	cfg := core.DefaultConfig()
	cfg.Authority = governor.Hex()
	registry, err := core.NewRegistry(cfg,
		core.WithMappingStore(factory.MappingStore()),
		core.WithProviderResolver(directory),
	)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	if err := registry.RegisterTransformers(ctx, governor, []core.Registration{{Provider: provider, Dependents: []core.Address{depA}}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.RegisterTransformers(ctx, governor, []core.Registration{{Provider: other, Dependents: []core.Address{depB}}}); err == nil {
		t.Fatalf("expected undeployed provider to be rejected")
	}

	got, err := registry.Transformers(ctx, []core.Address{depA, depB})
	if err != nil {
		t.Fatalf("transformers: %v", err)
	}
	if got[0] != provider || !got[1].IsZero() {
		t.Fatalf("unexpected providers %v", core.AddressStrings(got))
	}

	page, err := registry.AuditEvents(ctx, core.AuditEventFilter{})
	if err != nil {
		t.Fatalf("audit events: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected only the committed batch to be journaled, got %d", len(page.Items))
	}
	event := page.Items[0]
	if event.Authority != governor || len(event.Registrations) != 1 || event.Registrations[0].Dependents[0] != depA {
		t.Fatalf("unexpected journaled event %+v", event)
	}
}

func TestRegistry_SQLStoreFailedBatchKeepsExistingMappings(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()
	ctx := context.Background()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	directory := core.NewProviderDirectory()
	capability := core.TransformerCapability.InterfaceID()
	for _, addr := range []core.Address{provider, spare} {
		if err := directory.Deploy(addr, core.CapabilityContractFunc(func(_ context.Context, id core.InterfaceID) (bool, error) {
			return id == core.InterfaceIDERC165 || id == capability, nil
		})); err != nil {
			t.Fatalf("deploy %s: %v", addr.Hex(), err)
		}
	}

	cfg := core.DefaultConfig()
	cfg.Authority = governor.Hex()
	registry, err := core.NewRegistry(cfg,
		core.WithMappingStore(factory.MappingStore()),
		core.WithProviderResolver(directory),
	)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	if err := registry.RegisterTransformers(ctx, governor, []core.Registration{{Provider: provider, Dependents: []core.Address{depA}}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	// other is never deployed, so the second registration fails the batch
	err = registry.RegisterTransformers(ctx, governor, []core.Registration{
		{Provider: spare, Dependents: []core.Address{depA, depB}},
		{Provider: other, Dependents: []core.Address{depB}},
	})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.RegistryErrorAddressIsNotProvider {
		t.Fatalf("expected ADDRESS_IS_NOT_PROVIDER, got %v", err)
	}

	got, err := registry.Transformers(ctx, []core.Address{depA, depB})
	if err != nil {
		t.Fatalf("transformers: %v", err)
	}
	if got[0] != provider || !got[1].IsZero() {
		t.Fatalf("expected failed batch to leave mappings untouched, got %v", core.AddressStrings(got))
	}
	page, err := registry.AuditEvents(ctx, core.AuditEventFilter{})
	if err != nil {
		t.Fatalf("audit events: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected only the committed batch to be journaled, got %d", len(page.Items))
	}
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:capabilities-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	client, err := sqlstore.OpenPersistenceClient(context.Background(), sqlstore.PersistenceConfig{
		Driver:         "sqlite3",
		Server:         dsn,
		PingTimeout:    time.Second,
		OtelIdentifier: "go-capabilities-tests",
	})
	if err != nil {
		t.Fatalf("open persistence client: %v", err)
	}
	return client, func() {
		_ = client.Close()
	}
}
