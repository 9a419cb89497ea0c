package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/appraise/internal/adapters/http/api"
	"github.com/okian/appraise/internal/adapters/repository"
	service "github.com/okian/appraise/internal/app"
	"github.com/okian/appraise/internal/domain/criteria"
	"github.com/okian/appraise/internal/domain/reconcile"
)

type failingCriteria struct{ repository.CriteriaStore }

func (failingCriteria) FetchAll(context.Context) ([]criteria.Criterion, error) {
	return nil, fmt.Errorf("%w: connection reset", repository.ErrLookup)
}

type rejectingScores struct{ repository.ScoreStore }

func (rejectingScores) UpsertBatch(context.Context, reconcile.Plan) error {
	return fmt.Errorf("%w: unique violation", repository.ErrConflict)
}

func newTestService(opts ...service.Option) *service.Service {
	ctx := context.Background()
	st := repository.NewMemoryStore()
	_ = st.Criteria().PutCriterion(ctx, criteria.Criterion{ID: "kk", Name: "Kualitas Kerja", Type: criteria.Benefit, Weight: 0.3, Scale: "1-5"})
	_ = st.Criteria().PutCriterion(ctx, criteria.Criterion{ID: "alpa", Name: "Jumlah Hari Alpa", Type: criteria.Cost, Weight: 0.2, Scale: "0-"})
	_ = st.Employees().PutEmployee(ctx, repository.Employee{ID: "e1", Name: "Sari"})
	_ = st.Employees().PutEmployee(ctx, repository.Employee{ID: "e2", Name: "Budi"})
	svc := service.New(append([]service.Option{service.WithStore(st)}, opts...)...)
	_ = svc.Start(ctx)
	return svc
}

func newHandler(svc *service.Service) http.Handler {
	return api.NewRouter(context.Background(), api.NewServer(svc, svc))
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

func TestAPI_Criteria(t *testing.T) {
	Convey("Given the API over a seeded service", t, func() {
		h := newHandler(newTestService())

		Convey("When listing criteria", func() {
			w := do(h, http.MethodGet, "/criteria", "")

			Convey("Then they come back coded in canonical order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var coded []criteria.Coded
				So(json.Unmarshal(w.Body.Bytes(), &coded), ShouldBeNil)
				So(coded, ShouldHaveLength, 2)
				So(coded[0].Code, ShouldEqual, "C1")
				So(coded[1].Code, ShouldEqual, "C7")
			})
		})
	})

	Convey("Given a criteria store that cannot be reached", t, func() {
		h := newHandler(service.New(service.WithCriteriaStore(failingCriteria{})))

		Convey("Then listing criteria is a 503", func() {
			w := do(h, http.MethodGet, "/criteria", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(errorCode(w), ShouldEqual, "lookup_failed")
		})
	})
}

func TestAPI_Evaluations(t *testing.T) {
	Convey("Given the API over a seeded service", t, func() {
		h := newHandler(newTestService())

		Convey("When submitting scores", func() {
			w := do(h, http.MethodPut, "/evaluations/e1", `{"scores":{"kk":4,"alpa":2}}`)

			Convey("Then the plan counts are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["created"], ShouldEqual, 2)
				So(resp["updated"], ShouldEqual, 0)
			})

			Convey("And the record is readable with legacy field names", func() {
				w := do(h, http.MethodGet, "/evaluations/e1", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var rec map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &rec), ShouldBeNil)
				So(rec["employee_name"], ShouldEqual, "Sari")
				So(rec["kualitasKerja"], ShouldEqual, 4)
				So(rec["hariAlpa"], ShouldEqual, 2)
				So(rec["komunikasi"], ShouldEqual, 1)
			})

			Convey("And the list holds one record", func() {
				w := do(h, http.MethodGet, "/evaluations", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var recs []map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &recs), ShouldBeNil)
				So(recs, ShouldHaveLength, 1)
			})

			Convey("And the form is pre-filled", func() {
				w := do(h, http.MethodGet, "/evaluations/e1/form", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var form service.Form
				So(json.Unmarshal(w.Body.Bytes(), &form), ShouldBeNil)
				So(form.Fields, ShouldHaveLength, 2)
				So(form.Fields[0].Value, ShouldEqual, 4)
				So(form.Fields[0].Existing, ShouldBeTrue)
			})

			Convey("And deleting returns the employee to the pool", func() {
				w := do(h, http.MethodDelete, "/evaluations/e1", "")
				So(w.Code, ShouldEqual, http.StatusOK)

				w = do(h, http.MethodGet, "/employees/unevaluated", "")
				var pool []repository.Employee
				So(json.Unmarshal(w.Body.Bytes(), &pool), ShouldBeNil)
				So(pool, ShouldHaveLength, 2)

				w = do(h, http.MethodDelete, "/evaluations/e1", "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the body is malformed", func() {
			w := do(h, http.MethodPut, "/evaluations/e1", `{"scores":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "bad_request")
		})

		Convey("When the scores object is missing", func() {
			w := do(h, http.MethodPut, "/evaluations/e1", `{}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a score is null", func() {
			w := do(h, http.MethodPut, "/evaluations/e1", `{"scores":{"kk":null}}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a criterion is not active", func() {
			w := do(h, http.MethodPut, "/evaluations/e1", `{"scores":{"nope":3}}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the employee is unknown", func() {
			w := do(h, http.MethodPut, "/evaluations/ghost", `{"scores":{"kk":3}}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the employee has no evaluation", func() {
			w := do(h, http.MethodGet, "/evaluations/e2", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(w), ShouldEqual, "not_found")
		})
	})

	Convey("Given a store that rejects writes", t, func() {
		st := repository.NewMemoryStore()
		svc := newTestService(service.WithScoreStore(rejectingScores{st.Scores()}))
		h := newHandler(svc)

		Convey("Then a submission is a 409", func() {
			w := do(h, http.MethodPut, "/evaluations/e1", `{"scores":{"kk":3}}`)
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(errorCode(w), ShouldEqual, "conflict")
		})
	})
}

func TestAPI_MatrixStatsHealth(t *testing.T) {
	Convey("Given an evaluated employee", t, func() {
		svc := newTestService()
		_, err := svc.Submit(context.Background(), "e2", map[string]float64{"kk": 5})
		So(err, ShouldBeNil)
		h := newHandler(svc)

		Convey("Then the matrix has one row aligned with the criteria", func() {
			w := do(h, http.MethodGet, "/matrix", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var m service.Matrix
			So(json.Unmarshal(w.Body.Bytes(), &m), ShouldBeNil)
			So(m.Rows, ShouldHaveLength, 1)
			So(m.Rows[0].Values, ShouldResemble, []float64{5, 0})
		})

		Convey("Then stats report the counts", func() {
			w := do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
			So(stats["evaluatedEmployees"], ShouldEqual, 1)
		})

		Convey("Then healthz answers JSON by default and metrics on request", func() {
			w := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"ok"`)

			req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
			req.Header.Set("Accept", "text/plain")
			mw := httptest.NewRecorder()
			h.ServeHTTP(mw, req)
			So(mw.Code, ShouldEqual, http.StatusOK)
			So(mw.Body.String(), ShouldContainSubstring, "appraise_")
		})
	})
}

func TestAPI_Errors(t *testing.T) {
	Convey("Given a wrapped API error", t, func() {
		cause := errors.New("boom")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)

		Convey("Then both the kind and the cause match", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("Then a bare kind formats without a cause", func() {
			So(api.NewKind("api.op", api.ErrInternal).Error(), ShouldEqual, "api.op: internal error")
		})
	})
}
