package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/syncmind/syncmind/internal/log"
	"github.com/syncmind/syncmind/internal/search"
)

// DocumentService defines the operations the handlers need.
// Implemented by search.Service.
type DocumentService interface {
	Add(ctx context.Context, req search.AddRequest) (uuid.UUID, error)
	Search(ctx context.Context, query string) (search.Response, error)
}

// documentHandler serves the add and search endpoints.
type documentHandler struct {
	svc    DocumentService
	logger log.Logger
}

type addRequest struct {
	Title   string `json:"title"`
	Type    string `json:"type"`
	Link    string `json:"link"`
	OwnerID string `json:"ownerId"`
}

type addResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type resultDTO struct {
	Title   string `json:"title"`
	Type    string `json:"type"`
	Link    string `json:"link"`
	OwnerID string `json:"ownerId"`
	Summary string `json:"summary,omitempty"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Results []resultDTO `json:"results"`
}

type socialResponse struct {
	Source  string `json:"source"`
	Summary string `json:"summary"`
}

// add handles POST /add.
func (h *documentHandler) add(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	id, err := h.svc.Add(r.Context(), search.AddRequest{
		Title:   req.Title,
		Type:    req.Type,
		Link:    req.Link,
		OwnerID: req.OwnerID,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, addResponse{
		Message: "Embedding added successfully",
		ID:      id.String(),
	})
}

// search handles POST /search.
func (h *documentHandler) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	resp, err := h.svc.Search(r.Context(), req.Query)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if resp.Social {
		writeJSON(w, http.StatusOK, socialResponse{Source: "Twitter", Summary: resp.Summary})
		return
	}

	results := make([]resultDTO, len(resp.Results))
	for i, res := range resp.Results {
		results[i] = resultDTO{
			Title:   res.Title,
			Type:    res.Type,
			Link:    res.Link,
			OwnerID: res.OwnerID.String(),
			Summary: res.Summary,
		}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

// writeServiceError maps service sentinel errors to HTTP status codes.
func (h *documentHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, search.ErrMissingField):
		writeError(w, http.StatusBadRequest, "missing_field", err.Error())
	case errors.Is(err, search.ErrInvalidOwnerID):
		writeError(w, http.StatusBadRequest, "invalid_owner_id", err.Error())
	case errors.Is(err, search.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
	case errors.Is(err, search.ErrNoResults):
		writeError(w, http.StatusNotFound, "no_results", "No relevant results found.")
	default:
		h.logger.Error("request failed",
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
