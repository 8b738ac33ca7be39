package orm

type EntityState string

const (
	// EntityStateUnmanaged is reported for instances the registry has never seen.
	// It is never stored.
	EntityStateUnmanaged  EntityState = "unmanaged"
	EntityStateRegistered EntityState = "registered"
	EntityStateQueued     EntityState = "queued"
	EntityStateDequeued   EntityState = "dequeued"
	EntityStateDetached   EntityState = "detached"
)

type Verb string

const (
	VerbInsert Verb = "insert"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
)
