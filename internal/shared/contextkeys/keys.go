package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "lattice-cms-init context key " + string(c)
}

// RunIDKey is the key for the bootstrap run identifier in context.Context
const RunIDKey = contextKey("runID")

// DatabaseKey is the key for the target database name in context.Context
const DatabaseKey = contextKey("database")

// CollectionKey is the key for the collection currently being prepared
const CollectionKey = contextKey("collection")

// OperationKey is the key for the operation name in context.Context
const OperationKey = contextKey("operation")
