package api

import "net/http"

// EmployeesHandler handles employee pool requests.
type EmployeesHandler struct {
	deps EmployeeDependencies
}

// NewEmployeesHandler creates a new employees handler.
func NewEmployeesHandler(deps EmployeeDependencies) *EmployeesHandler {
	return &EmployeesHandler{deps: deps}
}

// HandleUnevaluated handles GET /employees/unevaluated requests.
func (h *EmployeesHandler) HandleUnevaluated(w http.ResponseWriter, r *http.Request) {
	const op = "api.unevaluated"
	pool, err := h.deps.Unevaluated(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, pool)
}

// MatrixHandler handles decision matrix requests.
type MatrixHandler struct {
	deps MatrixDependencies
}

// NewMatrixHandler creates a new matrix handler.
func NewMatrixHandler(deps MatrixDependencies) *MatrixHandler {
	return &MatrixHandler{deps: deps}
}

// HandleGet handles GET /matrix requests.
func (h *MatrixHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.matrix"
	m, err := h.deps.Matrix(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
