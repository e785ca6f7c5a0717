package terminalshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/domain/device"
	"timeclock/internal/domain/punch"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

type Handler struct {
	Store    *device.Store
	Ingestor *punch.Ingestor
}

func NewHandler(store *device.Store, ingestor *punch.Ingestor) *Handler {
	return &Handler{Store: store, Ingestor: ingestor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/terminals", func(r chi.Router) {
		r.Post("/", h.handleRegister)
		r.Get("/", h.handleList)
		r.Post("/sync", h.handleSyncAll)
		r.Get("/{id}", h.handleGet)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/sync", h.handleSync)
	})
}

type registerRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Port    int    `json:"port"`
	Role    string `json:"role"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", reqID)
		return
	}
	if req.Port == 0 {
		req.Port = 4370
	}
	if req.Role == "" {
		req.Role = device.RoleAuto
	}

	v := shared.NewValidator()
	v.Required("name", req.Name, "name is required")
	v.Required("address", req.Address, "address is required")
	v.Port("port", req.Port)
	if !device.ValidRole(req.Role) {
		v.Add("role", "must be one of in, out, auto")
	}
	if v.Reject(w, reqID) {
		return
	}

	id, err := h.Store.Add(r.Context(), req.Name, req.Address, req.Port, req.Role)
	if err != nil {
		if errors.Is(err, device.ErrDuplicate) {
			api.Fail(w, http.StatusConflict, "duplicate_terminal", "a terminal is already registered at this address and port", reqID)
			return
		}
		slog.Error("terminal create failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "create_failed", "could not register terminal", reqID)
		return
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	terminals, err := h.Store.List(r.Context())
	if err != nil {
		slog.Error("terminal list failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "list_failed", "could not list terminals", reqID)
		return
	}
	if terminals == nil {
		terminals = []device.Terminal{}
	}
	api.Success(w, terminals, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	terminal, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "terminal not found", reqID)
			return
		}
		slog.Error("terminal get failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "get_failed", "could not load terminal", reqID)
		return
	}
	api.Success(w, terminal, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	if err := h.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, device.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "terminal not found", reqID)
			return
		}
		slog.Error("terminal delete failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "delete_failed", "could not delete terminal", reqID)
		return
	}
	api.Success(w, map[string]bool{"deleted": true}, reqID)
}

// handleSync polls one terminal synchronously. Device failures surface in
// the summary status, not as HTTP errors.
func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	summary := h.Ingestor.SyncTerminal(r.Context(), chi.URLParam(r, "id"))
	api.Success(w, summary, reqID)
}

func (h *Handler) handleSyncAll(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	api.Success(w, h.Ingestor.SyncAll(r.Context()), reqID)
}
