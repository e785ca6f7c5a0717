package attendancehandler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/domain/timesheet"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

type Handler struct {
	Service  *timesheet.Service
	Location *time.Location
}

func NewHandler(service *timesheet.Service, loc *time.Location) *Handler {
	return &Handler{Service: service, Location: loc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Get("/", h.handleDaySheet)
		r.Get("/monthly", h.handleMonthly)
		r.Get("/exceptions", h.handleExceptions)
		r.Get("/export/pdf", h.handleExportPDF)
		r.Get("/export/xlsx", h.handleExportXLSX)
	})
}

func (h *Handler) window(w http.ResponseWriter, r *http.Request, reqID string) (time.Time, time.Time, bool) {
	from, to, err := shared.Window(r.URL.Query().Get("from"), r.URL.Query().Get("to"), h.Location)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "from/to must be dates in YYYY-MM-DD format", reqID)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// handleDaySheet serves reconstructed attendance. With raw=true the
// untouched punch log rows come back instead.
func (h *Handler) handleDaySheet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	employeeID := r.URL.Query().Get("employee")
	department := r.URL.Query().Get("department")
	from, to, ok := h.window(w, r, reqID)
	if !ok {
		return
	}

	if r.URL.Query().Get("raw") == "true" {
		punches, err := h.Service.RawPunches(r.Context(), employeeID, department, from, to)
		if err != nil {
			slog.Error("raw punch query failed", "err", err, "requestId", reqID)
			api.Fail(w, http.StatusInternalServerError, "query_failed", "could not load punches", reqID)
			return
		}
		// A month of raw punches for a whole department can be large.
		page := shared.ParsePagination(r, 500, 5000)
		lo, hi := page.Bounds(len(punches))
		api.Success(w, punches[lo:hi], reqID)
		return
	}

	rows, err := h.Service.DaySheet(r.Context(), employeeID, department, from, to)
	if err != nil {
		slog.Error("day sheet build failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "query_failed", "could not build day sheet", reqID)
		return
	}
	if rows == nil {
		rows = []timesheet.DaySheetRow{}
	}
	api.Success(w, rows, reqID)
}

func (h *Handler) handleMonthly(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	employeeID := r.URL.Query().Get("employee")
	if employeeID == "" {
		api.Fail(w, http.StatusBadRequest, "missing_employee", "employee query parameter is required", reqID)
		return
	}
	from, to, ok := h.window(w, r, reqID)
	if !ok {
		return
	}

	report, err := h.Service.Monthly(r.Context(), employeeID, from, to)
	if err != nil {
		slog.Error("monthly report failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "query_failed", "could not build monthly report", reqID)
		return
	}
	api.Success(w, report, reqID)
}

func (h *Handler) handleExceptions(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	from, to, ok := h.window(w, r, reqID)
	if !ok {
		return
	}

	report, err := h.Service.Exceptions(r.Context(), r.URL.Query().Get("employee"), r.URL.Query().Get("department"), from, to)
	if err != nil {
		slog.Error("exception report failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "query_failed", "could not build exception report", reqID)
		return
	}
	api.Success(w, report, reqID)
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	employeeID := r.URL.Query().Get("employee")
	if employeeID == "" {
		api.Fail(w, http.StatusBadRequest, "missing_employee", "employee query parameter is required", reqID)
		return
	}
	from, to, ok := h.window(w, r, reqID)
	if !ok {
		return
	}

	path, err := h.Service.ExportMonthlyPDF(r.Context(), employeeID, from, to)
	if err != nil {
		slog.Error("pdf export failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "export_failed", "could not generate PDF", reqID)
		return
	}
	w.Header().Set("Content-Disposition", "attachment")
	http.ServeFile(w, r, path)
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	from, to, ok := h.window(w, r, reqID)
	if !ok {
		return
	}

	path, err := h.Service.ExportDaySheetXLSX(r.Context(), r.URL.Query().Get("employee"), r.URL.Query().Get("department"), from, to)
	if err != nil {
		slog.Error("xlsx export failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "export_failed", "could not generate spreadsheet", reqID)
		return
	}
	w.Header().Set("Content-Disposition", "attachment")
	http.ServeFile(w, r, path)
}
