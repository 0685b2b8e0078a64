package core

import (
	"context"
	"testing"
	"time"
)

type fixedConfigProvider struct {
	cfg Config
}

func (p *fixedConfigProvider) Load(context.Context, Config) (Config, error) {
	return p.cfg, nil
}

type fixedOptionsResolver struct {
	cfg Config
}

func (r *fixedOptionsResolver) Resolve(Config, Config, Config) (Config, error) {
	return r.cfg, nil
}

func TestNewRegistry_DefaultDependencies(t *testing.T) {
	cfg := Config{Authority: testGovernor.Hex()}
	registry, err := NewRegistry(cfg)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	deps := registry.Dependencies()
	if deps.Logger == nil || deps.LoggerProvider == nil {
		t.Fatalf("expected default logger and provider")
	}
	if deps.ErrorMapper == nil || deps.ConfigProvider == nil || deps.OptionsResolver == nil {
		t.Fatalf("expected default error mapper, config provider and options resolver")
	}
	if deps.MappingStore == nil || deps.Resolver == nil || deps.Authority == nil || deps.Prober == nil {
		t.Fatalf("expected default store, resolver, authority and prober")
	}
	if got := registry.Config().ServiceName; got != "capabilities" {
		t.Fatalf("expected default service_name=capabilities, got %q", got)
	}
	if got := registry.Config().ProbeTimeout(); got != DefaultProbeTimeout {
		t.Fatalf("expected default probe timeout, got %s", got)
	}
	if deps.Prober.Capability() != TransformerCapability.InterfaceID() {
		t.Fatalf("expected transformer capability by default")
	}
}

func TestNewRegistry_WithXOverrides(t *testing.T) {
	provider := &fixedConfigProvider{cfg: DefaultConfig()}
	resolved := DefaultConfig()
	resolved.ServiceName = "custom"
	resolved.Authority = testGovernor.Hex()
	resolver := &fixedOptionsResolver{cfg: resolved}
	store := NewMemoryMappingStore()

	registry, err := NewRegistry(Config{},
		WithConfigProvider(provider),
		WithOptionsResolver(resolver),
		WithMappingStore(store),
	)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if registry.Config().ServiceName != "custom" {
		t.Fatalf("expected resolver output to win, got %q", registry.Config().ServiceName)
	}
	if registry.Dependencies().MappingStore != store {
		t.Fatalf("expected custom mapping store")
	}
}

func TestNewRegistry_ConfigLayering(t *testing.T) {
	loader := mapRawLoader{values: map[string]any{
		"service_name": "from-config",
		"authority":    testIntruder.Hex(),
		"probe": map[string]any{
			"timeout_ms": 750,
		},
		"capability": map[string]any{
			"interface_id": "0x80ac58cd",
		},
	}}
	runtime := Config{Authority: testGovernor.Hex()}

	registry, err := NewRegistry(runtime, WithConfigProvider(NewCfgxConfigProvider(loader)))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	cfg := registry.Config()
	if cfg.ServiceName != "from-config" {
		t.Fatalf("expected config layer service_name, got %q", cfg.ServiceName)
	}
	if cfg.Authority != testGovernor.Hex() {
		t.Fatalf("expected runtime authority to override config, got %q", cfg.Authority)
	}
	if cfg.ProbeTimeout() != 750*time.Millisecond {
		t.Fatalf("expected 750ms probe timeout, got %s", cfg.ProbeTimeout())
	}
	if got := registry.Dependencies().Prober.Capability().Hex(); got != "0x80ac58cd" {
		t.Fatalf("expected explicit interface id, got %s", got)
	}
	governor, err := registry.Governor(context.Background())
	if err != nil || governor != testGovernor {
		t.Fatalf("expected runtime governor, got %s (%v)", governor.Hex(), err)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}

	cfg.Authority = "0x1234"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid authority error")
	}

	cfg = DefaultConfig()
	cfg.Capability.InterfaceID = "0xabc"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid interface id error")
	}

	cfg = DefaultConfig()
	cfg.Capability.Signatures = nil
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing signatures error")
	}

	cfg = DefaultConfig()
	cfg.Probe.TimeoutMS = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected negative timeout error")
	}
}

func TestConfig_ZeroProbeTimeoutFallsBackToDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Probe.TimeoutMS = 0
	if got := cfg.ProbeTimeout(); got != DefaultProbeTimeout {
		t.Fatalf("expected zero timeout_ms to use the default, got %s", got)
	}

	runtime := Config{Authority: testGovernor.Hex()}
	runtime.Probe.TimeoutMS = 0
	registry, err := NewRegistry(runtime)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if got := registry.Config().ProbeTimeout(); got != DefaultProbeTimeout {
		t.Fatalf("expected registry probe timeout %s, got %s", DefaultProbeTimeout, got)
	}
}
