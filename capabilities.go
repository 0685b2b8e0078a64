package capabilities

import "github.com/goliatone/go-capabilities/core"

type Config = core.Config

type Option = core.Option

type Registry = core.Registry

type RegistryDependencies = core.RegistryDependencies

type Address = core.Address
type InterfaceID = core.InterfaceID
type Registration = core.Registration
type CapabilityContract = core.CapabilityContract
type CapabilityContractFunc = core.CapabilityContractFunc
type ProviderResolver = core.ProviderResolver
type AuthorityCapsule = core.AuthorityCapsule
type MappingStore = core.MappingStore
type AuditLog = core.AuditLog
type AuditEvent = core.AuditEvent
type AuditEventFilter = core.AuditEventFilter
type AuditEventPage = core.AuditEventPage

var (
	ZeroAddress = core.ZeroAddress

	ErrNotAuthorized        = core.ErrNotAuthorized
	ErrAddressIsNotProvider = core.ErrAddressIsNotProvider
)

var (
	WithLogger           = core.WithLogger
	WithLoggerProvider   = core.WithLoggerProvider
	WithMetricsRecorder  = core.WithMetricsRecorder
	WithErrorMapper      = core.WithErrorMapper
	WithConfigProvider   = core.WithConfigProvider
	WithOptionsResolver  = core.WithOptionsResolver
	WithMappingStore     = core.WithMappingStore
	WithProviderResolver = core.WithProviderResolver
	WithAuthority        = core.WithAuthority
	WithAuditLog         = core.WithAuditLog
	WithClock            = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func ParseAddress(value string) (Address, error) {
	return core.ParseAddress(value)
}

func NewRegistry(cfg Config, opts ...Option) (*Registry, error) {
	return core.NewRegistry(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Registry, error) {
	return core.Setup(cfg, opts...)
}
