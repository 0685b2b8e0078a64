package command

import (
	"context"

	"github.com/goliatone/go-capabilities/core"
)

type MutatingRegistry interface {
	RegisterTransformers(ctx context.Context, caller core.Address, registrations []core.Registration) error
	RemoveTransformers(ctx context.Context, caller core.Address, dependents []core.Address) error
}

type RegisterTransformersCommand struct {
	registry MutatingRegistry
}

func NewRegisterTransformersCommand(registry MutatingRegistry) *RegisterTransformersCommand {
	return &RegisterTransformersCommand{registry: registry}
}

func (c *RegisterTransformersCommand) Execute(ctx context.Context, msg RegisterTransformersMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: register transformers registry is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.registry.RegisterTransformers(ctx, msg.Caller, msg.Registrations)
}

type RemoveTransformersCommand struct {
	registry MutatingRegistry
}

func NewRemoveTransformersCommand(registry MutatingRegistry) *RemoveTransformersCommand {
	return &RemoveTransformersCommand{registry: registry}
}

func (c *RemoveTransformersCommand) Execute(ctx context.Context, msg RemoveTransformersMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: remove transformers registry is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.registry.RemoveTransformers(ctx, msg.Caller, msg.Dependents)
}
