package api

import "net/http"

// CriteriaHandler handles criteria requests.
type CriteriaHandler struct {
	deps CriteriaDependencies
}

// NewCriteriaHandler creates a new criteria handler.
func NewCriteriaHandler(deps CriteriaDependencies) *CriteriaHandler {
	return &CriteriaHandler{deps: deps}
}

// HandleList handles GET /criteria requests.
func (h *CriteriaHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_criteria"
	coded, err := h.deps.Criteria(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, coded)
}
