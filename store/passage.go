package store

// Passage is one embedded chunk of an ingested document. Passages are
// written by the out-of-process ingestion pipeline; the dispatcher only
// reads them.
type Passage struct {
	ID        int32
	UID       string
	Content   string
	Source    string
	Tags      []string
	Embedding []float32
	CreatedTs int64
}

type FindPassage struct {
	ID  *int32
	UID *string
}

type DeletePassage struct {
	ID int32
}

// VectorSearchOptions scopes a top-K nearest-passage query.
type VectorSearchOptions struct {
	Vector []float32
	// TagFilter keeps only passages carrying at least one of these tags.
	// Empty means no tag scoping.
	TagFilter []string
	Limit     int
}

// PassageWithScore pairs a passage with its cosine similarity score (0-1).
type PassageWithScore struct {
	Passage *Passage
	Score   float32
}
