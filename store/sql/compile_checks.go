package sqlstore

import "github.com/goliatone/go-capabilities/core"

var (
	_ core.MappingStore     = (*MappingStore)(nil)
	_ core.AuditEventReader = (*MappingStore)(nil)
	_ core.MappingStore     = (*CachedMappingStore)(nil)
	_ core.AuditEventReader = (*CachedMappingStore)(nil)
)
