package search

import "errors"

// Sentinel errors returned by the service. The API layer maps these to
// HTTP status codes; callers match them with errors.Is.
var (
	// ErrMissingField indicates a required document field was empty.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidOwnerID indicates the owner id was not a valid UUID.
	ErrInvalidOwnerID = errors.New("invalid owner id")

	// ErrInvalidQuery indicates an empty or unusable query string.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrNoResults indicates the search resolved no documents, either
	// because the index is empty or every hit was discarded.
	ErrNoResults = errors.New("no results found")

	// ErrEmbedderUnavailable indicates the embedding backend failed.
	ErrEmbedderUnavailable = errors.New("embedder unavailable")

	// ErrStoreWrite indicates the document could not be persisted.
	ErrStoreWrite = errors.New("store write failed")

	// ErrStoreRead indicates a document read failed.
	ErrStoreRead = errors.New("store read failed")
)
