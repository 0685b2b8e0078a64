package query

import (
	"github.com/goliatone/go-capabilities/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Querier[TransformersMessage, []core.Address]         = (*TransformersQuery)(nil)
	_ gocmd.Querier[GovernorMessage, core.Address]               = (*GovernorQuery)(nil)
	_ gocmd.Querier[ListAuditEventsMessage, core.AuditEventPage] = (*ListAuditEventsQuery)(nil)

	_ TransformerReader = (*core.Registry)(nil)
	_ GovernorReader    = (*core.Registry)(nil)
	_ AuditEventReader  = (*core.Registry)(nil)
)
