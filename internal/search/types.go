package search

import "github.com/google/uuid"

// AddRequest carries the fields of a document to be stored and indexed.
type AddRequest struct {
	Title   string
	Type    string
	Link    string
	OwnerID string
}

// Result is one resolved search hit. Summary is populated only on the
// best match; it may carry a fixed-format failure string when
// enrichment degraded.
type Result struct {
	ID       uuid.UUID
	Title    string
	Type     string
	Link     string
	OwnerID  uuid.UUID
	Distance float32
	Summary  string
}

// Response is the outcome of a search. When Social is set the query
// contained a social-post link and was summarized directly; Results is
// empty and Summary holds the answer.
type Response struct {
	Social  bool
	Summary string
	Results []Result
}
