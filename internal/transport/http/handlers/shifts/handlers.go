package shiftshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"timeclock/internal/domain/shift"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

type Handler struct {
	Store    *shift.Store
	Location *time.Location
}

func NewHandler(store *shift.Store, loc *time.Location) *Handler {
	return &Handler{Store: store, Location: loc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/shift-policies", func(r chi.Router) {
		r.Post("/", h.handleCreatePolicy)
		r.Get("/", h.handleListPolicies)
		r.Get("/{id}", h.handleGetPolicy)
	})
	r.Post("/shift-assignments", h.handleAssign)
}

// policyPayload carries the holiday weekday names that the domain type
// keeps out of its own JSON shape.
type policyPayload struct {
	shift.Policy
	HolidayWeekdays []string `json:"holidayWeekdays"`
}

func toPayload(p shift.Policy) policyPayload {
	names := make([]string, 0, len(p.HolidayWeekdays))
	for _, d := range p.HolidayWeekdays {
		names = append(names, d.String())
	}
	return policyPayload{Policy: p, HolidayWeekdays: names}
}

func (h *Handler) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var req policyPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", reqID)
		return
	}

	raw, err := json.Marshal(req.HolidayWeekdays)
	if err == nil {
		req.Policy.HolidayWeekdays, err = shift.ParseWeekdays(raw)
	}
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_weekdays", "holidayWeekdays must be weekday names", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", req.Name, "name is required")
	if err := req.Policy.Validate(); err != nil {
		v.Add("policy", err.Error())
	}
	if v.Reject(w, reqID) {
		return
	}

	id, err := h.Store.CreatePolicy(r.Context(), req.Policy)
	if err != nil {
		slog.Error("policy create failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "create_failed", "could not create shift policy", reqID)
		return
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	policies, err := h.Store.ListPolicies(r.Context())
	if err != nil {
		slog.Error("policy list failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "list_failed", "could not list shift policies", reqID)
		return
	}
	out := make([]policyPayload, 0, len(policies))
	for _, p := range policies {
		out = append(out, toPayload(p))
	}
	api.Success(w, out, reqID)
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	policy, err := h.Store.GetPolicy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusNotFound, "not_found", "shift policy not found", reqID)
			return
		}
		slog.Error("policy get failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "get_failed", "could not load shift policy", reqID)
		return
	}
	api.Success(w, toPayload(*policy), reqID)
}

type assignRequest struct {
	EmployeeID string `json:"employeeId"`
	PolicyID   string `json:"policyId"`
	StartAt    string `json:"startAt"`
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", req.EmployeeID, "employeeId is required")
	v.Required("policyId", req.PolicyID, "policyId is required")
	startAt, _ := v.Date("startAt", req.StartAt, h.Location)
	if v.Reject(w, reqID) {
		return
	}

	id, err := h.Store.Assign(r.Context(), req.EmployeeID, req.PolicyID, startAt)
	if err != nil {
		slog.Error("assignment failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "assign_failed", "could not assign shift policy", reqID)
		return
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}
