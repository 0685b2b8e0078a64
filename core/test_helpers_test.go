package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

var (
	testGovernor = MustParseAddress("0x00000000000000000000000000000000000000aa")
	testIntruder = MustParseAddress("0x00000000000000000000000000000000000000bb")
)

func testAddress(n byte) Address {
	return BytesToAddress([]byte{0x10, n})
}

// scriptedContract answers supportsInterface from a fixed table and records
// every probe it receives.
type scriptedContract struct {
	mu       sync.Mutex
	answers  map[InterfaceID]bool
	failures map[InterfaceID]error
	panics   map[InterfaceID]bool
	blocks   map[InterfaceID]bool
	calls    []InterfaceID
}

func newCompliantContract(capability InterfaceID) *scriptedContract {
	return &scriptedContract{answers: map[InterfaceID]bool{
		InterfaceIDERC165: true,
		capability:        true,
	}}
}

func (c *scriptedContract) SupportsInterface(ctx context.Context, id InterfaceID) (bool, error) {
	c.mu.Lock()
	c.calls = append(c.calls, id)
	answer := c.answers[id]
	failure := c.failures[id]
	panics := c.panics[id]
	blocks := c.blocks[id]
	c.mu.Unlock()

	if panics {
		panic(fmt.Sprintf("supportsInterface(%s) exploded", id.Hex()))
	}
	if blocks {
		<-ctx.Done()
		return false, ctx.Err()
	}
	if failure != nil {
		return false, failure
	}
	return answer, nil
}

func (c *scriptedContract) snapshot() []InterfaceID {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]InterfaceID, len(c.calls))
	copy(out, c.calls)
	return out
}

type failingAuditLog struct {
	err   error
	calls int
}

func (l *failingAuditLog) Name() string { return "failing" }

func (l *failingAuditLog) Append(context.Context, AuditEvent) error {
	l.calls++
	return l.err
}

type failingMappingStore struct {
	*MemoryMappingStore
	err error
}

func (s failingMappingStore) Apply(context.Context, Mutation) (AuditEvent, error) {
	return AuditEvent{}, s.err
}

type registryFixture struct {
	registry  *Registry
	directory *ProviderDirectory
	store     *MemoryMappingStore
	audit     *MemoryAuditLog
}

func newRegistryFixture(t *testing.T, opts ...Option) registryFixture {
	t.Helper()
	directory := NewProviderDirectory()
	store := NewMemoryMappingStore()
	audit := NewMemoryAuditLog()
	cfg := DefaultConfig()
	cfg.Authority = testGovernor.Hex()
	cfg.Probe.TimeoutMS = 200
	base := []Option{
		WithProviderResolver(directory),
		WithMappingStore(store),
		WithAuditLog(audit),
		WithLogger(stubLogger{}),
		WithLoggerProvider(stubLoggerProvider{logger: stubLogger{}}),
		WithClock(func() time.Time {
			return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		}),
	}
	registry, err := NewRegistry(cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return registryFixture{registry: registry, directory: directory, store: store, audit: audit}
}

func (f registryFixture) deployCompliant(t *testing.T, address Address) *scriptedContract {
	t.Helper()
	contract := newCompliantContract(f.registry.prober.Capability())
	if err := f.directory.Deploy(address, contract); err != nil {
		t.Fatalf("deploy %s: %v", address.Hex(), err)
	}
	return contract
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}
