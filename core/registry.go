package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

// Registry maps dependents to validated transformer providers. Only the
// current governor may mutate it; every committed mutation produces exactly
// one audit event.
type Registry struct {
	mu sync.Mutex

	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	store           MappingStore
	resolver        ProviderResolver
	authority       AuthorityCapsule
	prober          *InterfaceProber
	audit           *AuditDispatcher
	now             func() time.Time
}

type RegistryDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	MappingStore    MappingStore
	Resolver        ProviderResolver
	Authority       AuthorityCapsule
	Prober          *InterfaceProber
	Audit           *AuditDispatcher
}

func NewRegistry(cfg Config, opts ...Option) (*Registry, error) {
	builder := defaultRegistryBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("capabilities", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("capabilities"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.store == nil {
		builder.store = NewMemoryMappingStore()
	}
	if builder.resolver == nil {
		builder.resolver = NewProviderDirectory()
	}
	if builder.clock == nil {
		builder.clock = func() time.Time { return time.Now().UTC() }
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	authority := builder.authority
	if authority == nil {
		raw := strings.TrimSpace(finalConfig.Authority)
		if raw == "" {
			return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: authority is required"))
		}
		address, parseErr := ParseAddress(raw)
		if parseErr != nil {
			return nil, mapBuildError(builder.errorMapper, parseErr)
		}
		authority = StaticAuthority{Address: address}
	}

	capabilityID, err := finalConfig.CapabilityInterfaceID()
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Registry{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		store:           builder.store,
		resolver:        builder.resolver,
		authority:       authority,
		prober:          NewInterfaceProber(builder.resolver, capabilityID, finalConfig.ProbeTimeout()),
		audit:           NewAuditDispatcher(builder.auditLogs...),
		now:             builder.clock,
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Registry, error) {
	return NewRegistry(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (r *Registry) Config() Config {
	if r == nil {
		return Config{}
	}
	return r.config
}

func (r *Registry) Dependencies() RegistryDependencies {
	if r == nil {
		return RegistryDependencies{}
	}
	return RegistryDependencies{
		Logger:          r.logger,
		LoggerProvider:  r.loggerProvider,
		MetricsRecorder: r.metricsRecorder,
		ErrorMapper:     r.errorMapper,
		ConfigProvider:  r.configProvider,
		OptionsResolver: r.optionsResolver,
		MappingStore:    r.store,
		Resolver:        r.resolver,
		Authority:       r.authority,
		Prober:          r.prober,
		Audit:           r.audit,
	}
}

// RegisterTransformers validates every provider in submission order and, only
// if all of them pass, points each listed dependent at its provider. An
// already registered dependent is overwritten.
func (r *Registry) RegisterTransformers(ctx context.Context, caller Address, registrations []Registration) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"caller":        caller.Hex(),
		"registrations": len(registrations),
	}
	defer func() {
		r.observeOperation(ctx, startedAt, "register_transformers", err, fields)
	}()
	if r == nil || r.store == nil {
		return fmt.Errorf("core: registry is not configured")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	authority, err := r.ensureGovernor(ctx, caller)
	if err != nil {
		err = r.mapError(err)
		return err
	}

	writes := make([]MappingWrite, 0, len(registrations))
	for _, registration := range registrations {
		report, probeErr := r.prober.Probe(ctx, registration.Provider)
		if probeErr != nil {
			fields["rejected_transformer"] = registration.Provider.Hex()
			fields["probe_step"] = string(report.Step)
			err = r.mapError(probeErr)
			return err
		}
		for _, dependent := range registration.Dependents {
			writes = append(writes, MappingWrite{Dependent: dependent, Provider: registration.Provider})
		}
	}

	event := r.newAuditEvent(AuditEventTransformersRegistered, authority)
	event.Registrations = cloneRegistrations(registrations)
	if event.Registrations == nil {
		event.Registrations = []Registration{}
	}
	committed, err := r.commit(ctx, Mutation{Writes: writes, Event: event})
	if err != nil {
		return err
	}
	fields["dependents"] = len(writes)
	fields["event_sequence"] = committed.Sequence
	return nil
}

// RemoveTransformers resets every listed dependent to the zero address.
// Dependents that were never registered are accepted.
func (r *Registry) RemoveTransformers(ctx context.Context, caller Address, dependents []Address) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"caller":     caller.Hex(),
		"dependents": len(dependents),
	}
	defer func() {
		r.observeOperation(ctx, startedAt, "remove_transformers", err, fields)
	}()
	if r == nil || r.store == nil {
		return fmt.Errorf("core: registry is not configured")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	authority, err := r.ensureGovernor(ctx, caller)
	if err != nil {
		err = r.mapError(err)
		return err
	}

	writes := make([]MappingWrite, 0, len(dependents))
	for _, dependent := range dependents {
		writes = append(writes, MappingWrite{Dependent: dependent, Provider: ZeroAddress})
	}
	event := r.newAuditEvent(AuditEventTransformersRemoved, authority)
	event.Dependents = cloneAddresses(dependents)
	if event.Dependents == nil {
		event.Dependents = []Address{}
	}
	committed, err := r.commit(ctx, Mutation{Writes: writes, Event: event})
	if err != nil {
		return err
	}
	fields["event_sequence"] = committed.Sequence
	return nil
}

// Transformers returns the provider registered for each dependent, in input
// order, with ZeroAddress for unregistered dependents.
func (r *Registry) Transformers(ctx context.Context, dependents []Address) ([]Address, error) {
	if r == nil || r.store == nil {
		return nil, fmt.Errorf("core: registry is not configured")
	}
	if len(dependents) == 0 {
		return []Address{}, nil
	}
	providers, err := r.store.Load(ctx, dependents)
	if err != nil {
		return nil, r.mapError(err)
	}
	if len(providers) != len(dependents) {
		return nil, r.mapError(fmt.Errorf("core: mapping store returned %d providers for %d dependents", len(providers), len(dependents)))
	}
	return providers, nil
}

func (r *Registry) Governor(ctx context.Context) (Address, error) {
	if r == nil || r.authority == nil {
		return ZeroAddress, fmt.Errorf("core: registry is not configured")
	}
	authority, err := r.authority.CurrentAuthority(ctx)
	if err != nil {
		return ZeroAddress, r.mapError(err)
	}
	return authority, nil
}

func (r *Registry) AuditEvents(ctx context.Context, filter AuditEventFilter) (AuditEventPage, error) {
	if r == nil || r.store == nil {
		return AuditEventPage{}, fmt.Errorf("core: registry is not configured")
	}
	reader, ok := r.store.(AuditEventReader)
	if !ok {
		return AuditEventPage{}, r.mapError(ErrAuditNotSupported)
	}
	page, err := reader.ListAuditEvents(ctx, filter)
	if err != nil {
		return AuditEventPage{}, r.mapError(err)
	}
	return page, nil
}

func (r *Registry) ensureGovernor(ctx context.Context, caller Address) (Address, error) {
	if r.authority == nil {
		return ZeroAddress, fmt.Errorf("%w: no authority configured", ErrNotAuthorized)
	}
	authority, err := r.authority.CurrentAuthority(ctx)
	if err != nil {
		return ZeroAddress, fmt.Errorf("%w: authority unavailable: %w", ErrNotAuthorized, err)
	}
	if authority.IsZero() || caller != authority {
		return ZeroAddress, fmt.Errorf("%w: %s", ErrNotAuthorized, caller.Hex())
	}
	return authority, nil
}

func (r *Registry) commit(ctx context.Context, mutation Mutation) (AuditEvent, error) {
	committed, err := r.store.Apply(ctx, mutation)
	if err != nil {
		return AuditEvent{}, r.mapError(err)
	}
	if dispatchErr := r.audit.Dispatch(ctx, committed); dispatchErr != nil {
		r.logWarn(ctx, "audit dispatch failed", map[string]any{
			"event_id":       committed.ID,
			"event_sequence": committed.Sequence,
			"error":          dispatchErr.Error(),
		})
	}
	return committed, nil
}

func (r *Registry) newAuditEvent(kind AuditEventKind, authority Address) AuditEvent {
	return AuditEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		Authority:  authority,
		OccurredAt: r.now(),
	}
}

func (r *Registry) mapError(err error) error {
	if err == nil {
		return nil
	}
	if r == nil || r.errorMapper == nil {
		return err
	}
	mapped := r.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
