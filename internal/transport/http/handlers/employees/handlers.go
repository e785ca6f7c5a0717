package employeeshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"timeclock/internal/domain/employee"
	"timeclock/internal/domain/punch"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

type Handler struct {
	Employees *employee.Store
	Punches   *punch.Store
	Location  *time.Location
}

func NewHandler(employees *employee.Store, punches *punch.Store, loc *time.Location) *Handler {
	return &Handler{Employees: employees, Punches: punches, Location: loc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees/{id}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Post("/device-codes", h.handleLinkCode)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	emp, err := h.Employees.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
			return
		}
		slog.Error("employee get failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "get_failed", "could not load employee", reqID)
		return
	}
	api.Success(w, emp, reqID)
}

type linkCodeRequest struct {
	Code      string `json:"code"`
	ValidFrom string `json:"validFrom"`
	Backfill  bool   `json:"backfill"`
}

// handleLinkCode opens a linkage window for a device code. With backfill
// set, log rows ingested under the unresolved code are adopted too.
func (h *Handler) handleLinkCode(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "id")

	var req linkCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("code", req.Code, "code is required")
	from := time.Now().In(h.Location)
	if req.ValidFrom != "" {
		from, _ = v.Date("validFrom", req.ValidFrom, h.Location)
	}
	if v.Reject(w, reqID) {
		return
	}

	id, err := h.Employees.LinkCode(r.Context(), employeeID, req.Code, from)
	if err != nil {
		slog.Error("device code link failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "link_failed", "could not link device code", reqID)
		return
	}

	var adopted int64
	if req.Backfill {
		adopted, err = h.Punches.AdoptCode(r.Context(), employeeID, req.Code, from, nil)
		if err != nil {
			slog.Warn("punch backfill failed", "err", err, "requestId", reqID)
		}
	}
	api.Created(w, map[string]any{"id": id, "adoptedPunches": adopted}, reqID)
}
