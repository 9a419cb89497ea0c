package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// submitRequest mirrors the OpenAPI schema for PUT /evaluations/{employeeID}.
// Scores are keyed by criterion id; criteria left out take their default.
type submitRequest struct {
	Scores map[string]*float64 `json:"scores" validate:"required,dive,keys,required,endkeys,required"`
}

func (s submitRequest) values() map[string]float64 {
	out := make(map[string]float64, len(s.Scores))
	for id, v := range s.Scores {
		out[id] = *v
	}
	return out
}

type submitResponse struct {
	EmployeeID string `json:"employee_id"`
	Created    int    `json:"created"`
	Updated    int    `json:"updated"`
}

type deleteResponse struct {
	EmployeeID string `json:"employee_id"`
	Deleted    int    `json:"deleted"`
}

// EvaluationsHandler handles evaluation requests.
type EvaluationsHandler struct {
	deps     EvaluationDependencies
	validate *validator.Validate
}

// NewEvaluationsHandler creates a new evaluations handler.
func NewEvaluationsHandler(deps EvaluationDependencies) *EvaluationsHandler {
	return &EvaluationsHandler{deps: deps, validate: validator.New()}
}

func employeeParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "employeeID"))
	if id == "" {
		return "", errors.New("missing employee id")
	}
	return id, nil
}

// HandleList handles GET /evaluations requests.
func (h *EvaluationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_evaluations"
	records, err := h.deps.Evaluations(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleGet handles GET /evaluations/{employeeID} requests.
func (h *EvaluationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_evaluation"
	id, err := employeeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	rec, err := h.deps.Evaluation(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleForm handles GET /evaluations/{employeeID}/form requests.
func (h *EvaluationsHandler) HandleForm(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_form"
	id, err := employeeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	form, err := h.deps.Form(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// HandlePut handles PUT /evaluations/{employeeID} requests.
func (h *EvaluationsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_evaluation"
	id, err := employeeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	var req submitRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	plan, err := h.deps.Submit(r.Context(), id, req.values())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		EmployeeID: id,
		Created:    plan.Creates(),
		Updated:    plan.Updates(),
	})
}

// HandleDelete handles DELETE /evaluations/{employeeID} requests.
func (h *EvaluationsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_evaluation"
	id, err := employeeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	n, err := h.deps.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{EmployeeID: id, Deleted: n})
}
