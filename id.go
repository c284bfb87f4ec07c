package routeguard

import "github.com/xraph/routeguard/id"

// ID is the primary identifier type for all routeguard entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
