package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/voyago/trip-planner/internal/api/respond"
	"github.com/voyago/trip-planner/internal/model"
	"github.com/voyago/trip-planner/internal/services"
)

// DocumentHandler serves rendered trip documents and their metadata.
type DocumentHandler struct {
	svc *services.DocumentService
}

func NewDocumentHandler(svc *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// ListDocuments GET /api/trips/{tripId}/documents
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]
	list, err := h.svc.ListDocuments(r.Context(), tripID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": list,
		"count":     len(list),
	})
}

// GetDocument GET /api/trips/{tripId}/documents/{docType}
// Returns the rendered markdown body rather than a JSON envelope.
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	typ := model.DocumentType(vars["docType"])
	_, content, err := h.svc.GetDocument(r.Context(), vars["tripId"], typ)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
