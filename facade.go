package capabilities

import (
	"fmt"

	capcommand "github.com/goliatone/go-capabilities/command"
	capquery "github.com/goliatone/go-capabilities/query"
)

type CommandQueryRegistry interface {
	capcommand.MutatingRegistry
	capquery.TransformerReader
	capquery.GovernorReader
}

type Commands struct {
	RegisterTransformers *capcommand.RegisterTransformersCommand
	RemoveTransformers   *capcommand.RemoveTransformersCommand
}

type Queries struct {
	Transformers    *capquery.TransformersQuery
	Governor        *capquery.GovernorQuery
	ListAuditEvents *capquery.ListAuditEventsQuery
}

type Facade struct {
	registry CommandQueryRegistry
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	auditReader capquery.AuditEventReader
}

// WithAuditEventReader serves audit queries from reader instead of the
// registry.
func WithAuditEventReader(reader capquery.AuditEventReader) FacadeOption {
	return func(options *facadeOptions) {
		options.auditReader = reader
	}
}

func NewFacade(registry CommandQueryRegistry, opts ...FacadeOption) (*Facade, error) {
	if registry == nil {
		return nil, fmt.Errorf("capabilities: command/query registry is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.auditReader
	if reader == nil {
		if candidate, ok := registry.(capquery.AuditEventReader); ok {
			reader = candidate
		}
	}

	facade := &Facade{registry: registry}
	facade.commands = Commands{
		RegisterTransformers: capcommand.NewRegisterTransformersCommand(registry),
		RemoveTransformers:   capcommand.NewRemoveTransformersCommand(registry),
	}
	facade.queries = Queries{
		Transformers:    capquery.NewTransformersQuery(registry),
		Governor:        capquery.NewGovernorQuery(registry),
		ListAuditEvents: capquery.NewListAuditEventsQuery(reader),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Registry() CommandQueryRegistry {
	if f == nil {
		return nil
	}
	return f.registry
}
