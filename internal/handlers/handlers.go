package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/logger"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/sabermetrics"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Dashboard is the controller surface the HTTP layer drives
type Dashboard interface {
	Refresh(ctx context.Context) error
	Submit(ctx context.Context, p models.NewPlayer) (models.NewPlayer, error)
	Delete(ctx context.Context, id int64, confirmed bool) error
	View(m sabermetrics.Metric) dashboard.View
	Team() models.TeamAverages
	Ping(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	dash    Dashboard
	logger  *logger.Logger
	service string
	title   string
}

// NewHandler creates a new handler with dependencies
func NewHandler(d Dashboard, l *logger.Logger, service, title string) *Handler {
	if l == nil {
		l = logger.NewNop()
	}
	return &Handler{
		dash:    d,
		logger:  l.With(zap.String("component", "handlers")),
		service: service,
		title:   title,
	}
}

// PlayersResponse is the sorted roster plus team context
type PlayersResponse struct {
	Loaded  bool                        `json:"loaded"`
	Sort    sabermetrics.Metric         `json:"sort"`
	Players []models.DerivedPlayerStats `json:"players"`
	Team    models.TeamAverages         `json:"team"`
	Count   int                         `json:"count"`
}

// HealthCheck returns the health status of the service
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.dash.Ping(ctx); err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "players store unhealthy", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   h.service,
	})
}

// GetPlayers returns the cached roster sorted by ?sort=
func (h *Handler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	m, err := sabermetrics.ParseMetric(r.URL.Query().Get("sort"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	h.respondJSON(w, http.StatusOK, playersResponse(h.dash.View(m)))
}

// CreatePlayer inserts a player from a JSON NewPlayer body
func (h *Handler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var p models.NewPlayer
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if _, err := h.dash.Submit(r.Context(), p); err != nil {
		status, msg := statusFor(err)
		h.respondError(w, status, msg, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, playersResponse(h.dash.View(sabermetrics.DefaultMetric)))
}

// DeletePlayer removes a player; requires ?confirm=true
func (h *Handler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid player id", nil)
		return
	}

	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := h.dash.Delete(r.Context(), id, confirmed); err != nil {
		status, msg := statusFor(err)
		h.respondError(w, status, msg, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "deleted",
		"id":     id,
	})
}

// GetLeaders returns the leader of each headline metric
func (h *Handler) GetLeaders(w http.ResponseWriter, r *http.Request) {
	v := h.dash.View(sabermetrics.DefaultMetric)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"leaders": v.Leaders,
	})
}

// GetSummary returns the team averages
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.dash.Team())
}

// Refresh forces a re-fetch of the players collection
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.dash.Refresh(r.Context()); err != nil {
		status, msg := statusFor(err)
		h.respondError(w, status, msg, err)
		return
	}

	h.respondJSON(w, http.StatusOK, playersResponse(h.dash.View(sabermetrics.DefaultMetric)))
}

func playersResponse(v dashboard.View) PlayersResponse {
	players := v.Players
	if players == nil {
		players = []models.DerivedPlayerStats{}
	}
	return PlayersResponse{
		Loaded:  v.Loaded,
		Sort:    v.Metric,
		Players: players,
		Team:    v.Team,
		Count:   len(players),
	}
}

// statusFor maps controller errors to an HTTP status and a user-facing message
func statusFor(err error) (int, string) {
	var (
		verr *dashboard.ValidationError
		ierr *dashboard.InsertError
		derr *dashboard.DeleteError
		ferr *dashboard.FetchError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, dashboard.ErrNotConfirmed):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, dashboard.ErrBusy):
		return http.StatusConflict, err.Error()
	case errors.As(err, &ierr):
		return http.StatusBadGateway, ierr.Error()
	case errors.As(err, &derr):
		return http.StatusBadGateway, derr.Error()
	case errors.As(err, &ferr):
		return http.StatusBadGateway, "failed to load players"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("error encoding response", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil {
		h.logger.Debug("request error", zap.String("message", message), zap.Int("status", status), zap.Error(err))
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		h.logger.Error("error encoding error response", err)
	}
}
