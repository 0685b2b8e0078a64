package core

import (
	"fmt"
	"strings"
	"time"
)

type CapabilityConfig struct {
	Name        string   `koanf:"name" mapstructure:"name"`
	Signatures  []string `koanf:"signatures" mapstructure:"signatures"`
	InterfaceID string   `koanf:"interface_id" mapstructure:"interface_id"`
}

type ProbeConfig struct {
	TimeoutMS int `koanf:"timeout_ms" mapstructure:"timeout_ms"`
}

type Config struct {
	ServiceName string           `koanf:"service_name" mapstructure:"service_name"`
	Authority   string           `koanf:"authority" mapstructure:"authority"`
	Capability  CapabilityConfig `koanf:"capability" mapstructure:"capability"`
	Probe       ProbeConfig      `koanf:"probe" mapstructure:"probe"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "capabilities",
		Capability: CapabilityConfig{
			Name:       TransformerCapability.Name,
			Signatures: append([]string(nil), TransformerCapability.Signatures...),
		},
		Probe: ProbeConfig{
			TimeoutMS: int(DefaultProbeTimeout / time.Millisecond),
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if authority := strings.TrimSpace(c.Authority); authority != "" {
		if _, err := ParseAddress(authority); err != nil {
			return fmt.Errorf("core: authority is invalid: %w", err)
		}
	}
	if _, err := c.CapabilityInterfaceID(); err != nil {
		return err
	}
	if c.Probe.TimeoutMS < 0 {
		return fmt.Errorf("core: probe.timeout_ms must be >= 0")
	}
	return nil
}

// CapabilityInterfaceID prefers an explicit interface_id over the one derived
// from the declared signatures.
func (c Config) CapabilityInterfaceID() (InterfaceID, error) {
	if raw := strings.TrimSpace(c.Capability.InterfaceID); raw != "" {
		id, err := ParseInterfaceID(raw)
		if err != nil {
			return InterfaceID{}, fmt.Errorf("core: capability.interface_id is invalid: %w", err)
		}
		return id, nil
	}
	capability := CapabilityInterface{Name: c.Capability.Name, Signatures: c.Capability.Signatures}
	if err := capability.Validate(); err != nil {
		return InterfaceID{}, fmt.Errorf("core: capability signatures are invalid: %w", err)
	}
	return capability.InterfaceID(), nil
}

// ProbeTimeout returns the per-probe deadline. An unset timeout_ms falls back
// to DefaultProbeTimeout; the layered loader cannot tell an explicit zero apart
// from an absent key.
func (c Config) ProbeTimeout() time.Duration {
	if c.Probe.TimeoutMS <= 0 {
		return DefaultProbeTimeout
	}
	return time.Duration(c.Probe.TimeoutMS) * time.Millisecond
}
