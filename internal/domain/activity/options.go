package activity

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	Type  *Type
	Since string // event id; only events created after it are returned
	Limit int
}
