package handler

import (
	"net/http"

	"github.com/justinj8/fintech-copilot/internal/glossary"
	"github.com/justinj8/fintech-copilot/internal/middleware"
)

// GlossaryHandler serves business-term lookups.
type GlossaryHandler struct {
	glossary *glossary.Glossary
}

// NewGlossaryHandler creates a new glossary handler.
func NewGlossaryHandler(g *glossary.Glossary) *GlossaryHandler {
	return &GlossaryHandler{glossary: g}
}

// Lookup handles GET /api/v1/glossary?term=...
func (h *GlossaryHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	if err := middleware.ValidateTerm(term); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.glossary.Search(r.Context(), term)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"term":    term,
		"result":  result,
		"matched": result != glossary.NoMatch,
	})
}
