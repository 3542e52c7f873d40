package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"training-load/internal/chart"
	"training-load/internal/faults"
	"training-load/internal/fetcher"
	"training-load/internal/service"
	"training-load/internal/storage"
	"training-load/internal/taskbridge"
)

const (
	defaultDays    = 42
	maxDays        = 90
	defaultHistory = 90
)

// Handler routes HTTP requests to the pipeline and its collaborators. svc,
// store, source, and tasks may each be nil; their routes then answer 503.
type Handler struct {
	svc    *service.Service
	store  storage.LoadStore
	source fetcher.ActivitySource
	tasks  *taskbridge.Client
	userID string
	apiKey string
	logger zerolog.Logger
}

// NewHandler builds a Handler.
func NewHandler(svc *service.Service, store storage.LoadStore, source fetcher.ActivitySource, tasks *taskbridge.Client, userID, apiKey string, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		store:  store,
		source: source,
		tasks:  tasks,
		userID: userID,
		apiKey: apiKey,
		logger: logger.With().Str("component", "server").Logger(),
	}
}

// Routes wires all endpoints into a mux. Every route except /health sits
// behind the API-key check.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.health)

	guard := func(fn http.HandlerFunc) http.HandlerFunc {
		return requireAPIKey(h.apiKey, h.logger, fn)
	}
	mux.HandleFunc("/training-load", guard(h.trainingLoad))
	mux.HandleFunc("/training-load/history", guard(h.trainingLoadHistory))
	mux.HandleFunc("/training-load/chart", guard(h.trainingLoadChart))
	mux.HandleFunc("/latest-activity", guard(h.latestActivity))
	mux.HandleFunc("/task", guard(h.createTask))
	mux.HandleFunc("/task/", guard(h.taskByID))
	mux.HandleFunc("/tasks", guard(h.listTasks))
	mux.HandleFunc("/tasks/summary", guard(h.taskSummary))
	return mux
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"api_key_present":  h.apiKey != "",
		"todoist_present":  h.tasks != nil,
		"database_present": h.store != nil,
		"activity_source":  h.source != nil,
	})
}

func (h *Handler) trainingLoad(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "activity source not configured")
		return
	}

	days, ok := h.daysParam(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Refresh(r.Context(), days)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) trainingLoadHistory(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "database not configured")
		return
	}

	limit := defaultHistory
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	rows, err := h.store.ListHistory(r.Context(), h.userID, limit)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "not_found", "no stored training data found")
		return
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]any{
			"date": row.Date.Format("2006-01-02"),
			"tss":  row.TSS.InexactFloat64(),
			"ctl":  row.CTL.InexactFloat64(),
			"atl":  row.ATL.InexactFloat64(),
			"tsb":  row.TSB.InexactFloat64(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) trainingLoadChart(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "activity source not configured")
		return
	}

	days, ok := h.daysParam(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Refresh(r.Context(), days)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if len(result.History) == 0 {
		writeError(w, http.StatusBadRequest, "no_data", "no load data")
		return
	}

	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, result.History); err != nil {
		h.writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) latestActivity(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "activity source not configured")
		return
	}

	activity, err := h.source.LatestActivity(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if activity == nil {
		writeJSON(w, http.StatusOK, map[string]string{"message": "no activities found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":            activity.ID,
		"type":          string(activity.Kind),
		"distance_m":    activity.Distance,
		"moving_time_s": activity.MovingTime,
		"average_hr":    activity.AverageHR,
		"start_date":    activity.StartDate.Format("2006-01-02T15:04:05Z"),
	})
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if h.tasks == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "todoist not configured")
		return
	}

	var req taskbridge.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "content is required")
		return
	}

	raw, err := h.tasks.CreateTask(r.Context(), req)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeRaw(w, http.StatusOK, raw)
}

func (h *Handler) taskByID(w http.ResponseWriter, r *http.Request) {
	if h.tasks == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "todoist not configured")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/task/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing task id")
		return
	}

	if id, found := strings.CutSuffix(rest, "/close"); found {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		if err := h.tasks.CloseTask(r.Context(), id); err != nil {
			h.writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
		return
	}

	if r.Method != http.MethodPatch && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var update taskbridge.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	raw, err := h.tasks.UpdateTask(r.Context(), rest, update)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeRaw(w, http.StatusOK, raw)
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	if h.tasks == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "todoist not configured")
		return
	}

	tasks, err := h.tasks.ListTasks(r.Context(), r.URL.Query().Get("label"))
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) taskSummary(w http.ResponseWriter, r *http.Request) {
	if h.tasks == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "todoist not configured")
		return
	}

	summary, err := h.tasks.TaskSummary(r.Context(), nowFunc().UTC())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) daysParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	days := defaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "days must be an integer")
			return 0, false
		}
		days = parsed
	}
	if days < 1 || days > maxDays {
		writeError(w, http.StatusBadRequest, "invalid_request", "days must be between 1 and 90")
		return 0, false
	}
	return days, true
}

// writeFailure maps the closed error kinds onto HTTP status codes.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	h.logger.Error().Err(err).Msg("request failed")
	switch {
	case errors.Is(err, faults.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, faults.ErrMissingCredentials):
		writeError(w, http.StatusInternalServerError, "misconfigured", err.Error())
	case errors.Is(err, faults.ErrUpstream):
		writeError(w, http.StatusBadGateway, "upstream_error", err.Error())
	case errors.Is(err, faults.ErrStorage):
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRaw(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
