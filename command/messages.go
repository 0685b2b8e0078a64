package command

import (
	"github.com/goliatone/go-capabilities/core"
)

const (
	TypeRegisterTransformers = "capabilities.command.transformers.register"
	TypeRemoveTransformers   = "capabilities.command.transformers.remove"
)

// RegisterTransformersMessage submits a batch of provider registrations on
// behalf of Caller.
type RegisterTransformersMessage struct {
	Caller        core.Address        `json:"caller"`
	Registrations []core.Registration `json:"registrations"`
}

func (RegisterTransformersMessage) Type() string { return TypeRegisterTransformers }

func (m RegisterTransformersMessage) Validate() error {
	return validateCaller(m.Caller)
}

type RemoveTransformersMessage struct {
	Caller     core.Address   `json:"caller"`
	Dependents []core.Address `json:"dependents"`
}

func (RemoveTransformersMessage) Type() string { return TypeRemoveTransformers }

func (m RemoveTransformersMessage) Validate() error {
	return validateCaller(m.Caller)
}

func validateCaller(caller core.Address) error {
	if caller.IsZero() {
		return commandValidationError("caller", "caller is required")
	}
	return nil
}
