package tierq

import "github.com/miriambudayr/tierq/id"

// ID is the primary identifier type for all tierq entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
