package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mtlprog/plotina/internal/dashboard"
	"github.com/mtlprog/plotina/internal/domain"
	"github.com/mtlprog/plotina/internal/events"
	"github.com/mtlprog/plotina/internal/export"
)

const maxBodyBytes = 1 << 20

// Handler serves the computed dashboard state.
type Handler struct {
	dash *dashboard.Service
	bus  *events.Bus
	demo bool
}

// NewHandler creates a new API handler.
func NewHandler(dash *dashboard.Service, bus *events.Bus, demo bool) *Handler {
	return &Handler{dash: dash, bus: bus, demo: demo}
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.dash.Err(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetMeta handles GET /api/v1/meta.
func (h *Handler) GetMeta(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"demo": h.demo})
}

// GetState handles GET /api/v1/state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.dash.State()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// GetComposite handles GET /api/v1/composite.
func (h *Handler) GetComposite(w http.ResponseWriter, r *http.Request) {
	series, err := h.dash.Composite()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	threshold, err := h.dash.Threshold(domain.CompositeCode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"threshold": threshold, "points": series})
}

// GetImpacts handles GET /api/v1/impacts.
func (h *Handler) GetImpacts(w http.ResponseWriter, r *http.Request) {
	impacts, err := h.dash.Impacts()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, impacts)
}

// Recalculate handles POST /api/v1/recalculate.
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	if err := h.dash.Recompute(); err != nil {
		writeServiceError(w, err)
		return
	}
	h.GetState(w, r)
}

// Reload handles POST /api/v1/reload. Both sources are fetched again.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.dash.Reload(r.Context()); err != nil {
		slog.Error("reload failed", "error", err)
		writeServiceError(w, err)
		return
	}
	h.GetState(w, r)
}

// selectionRequest keeps index raw so an absent index (leave as is) differs
// from an explicit null (clear).
type selectionRequest struct {
	Index json.RawMessage `json:"index"`
	Show  *bool           `json:"show"`
}

// SetSelection handles PUT /api/v1/selection.
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Index) > 0 {
		var idx *int
		if err := json.Unmarshal(req.Index, &idx); err != nil {
			writeError(w, http.StatusBadRequest, "index must be an integer or null")
			return
		}
		if err := h.dash.SelectIndex(idx); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	if req.Show != nil {
		h.dash.ShowIndex(*req.Show)
	}
	idx, shown := h.dash.Selection()
	writeJSON(w, http.StatusOK, map[string]any{"index": idx, "show": shown})
}

// DownloadSettings handles GET /api/v1/settings.
func (h *Handler) DownloadSettings(w http.ResponseWriter, r *http.Request) {
	list, err := h.dash.Indicators()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteSettings(&buf, list); err != nil {
		slog.Error("failed to encode settings", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="settings.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
	}
}

// ExportXLSX handles GET /api/v1/export.xlsx.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	state, err := h.dash.State()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, state); err != nil {
		slog.Error("failed to build workbook", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="dashboard.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
	}
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// writeServiceError maps dashboard errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		loadErr  *domain.LoadError
		shapeErr *domain.ShapeMismatchError
	)
	switch {
	case errors.Is(err, dashboard.ErrUnknownIndicator):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrWeightOutOfRange),
		errors.Is(err, domain.ErrWeightSaturated),
		errors.Is(err, dashboard.ErrIndexOutOfRange):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &loadErr), errors.As(err, &shapeErr), errors.Is(err, domain.ErrNotLoaded):
		writeError(w, http.StatusServiceUnavailable, "load failed: "+err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
