package store

// Tag is a category label with a display color. Tags scope document search
// and may be attached to agents.
type Tag struct {
	ID        int32
	Name      string
	Color     string
	CreatedTs int64
}

type FindTag struct {
	ID   *int32
	Name *string
}

type DeleteTag struct {
	ID int32
}
