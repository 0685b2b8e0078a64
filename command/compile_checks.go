package command

import (
	"github.com/goliatone/go-capabilities/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Commander[RegisterTransformersMessage] = (*RegisterTransformersCommand)(nil)
	_ gocmd.Commander[RemoveTransformersMessage]   = (*RemoveTransformersCommand)(nil)

	_ MutatingRegistry = (*core.Registry)(nil)
)
