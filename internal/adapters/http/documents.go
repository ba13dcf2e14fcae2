package httpadapter

import (
	"net/http"

	"github.com/kirillkom/paperbox/internal/core/domain"
)

func (rt *Router) ingestDocument(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req domain.IngestRequest
	if err := rt.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	doc, err := rt.deps.Ingestor.Ingest(r.Context(), owner, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	query := r.URL.Query()
	listing, err := rt.deps.Documents.List(r.Context(), owner, domain.DocumentFilter{
		Query:    query.Get("q"),
		Category: query.Get("category"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (rt *Router) upcomingDates(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	upcoming, err := rt.deps.Documents.Upcoming(r.Context(), owner, rt.now(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"upcoming": upcoming})
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := rt.deps.Documents.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := rt.deps.Documents.GetByID(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
