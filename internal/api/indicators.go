package api

import (
	"net/http"

	"github.com/mtlprog/plotina/internal/dashboard"
	"github.com/mtlprog/plotina/internal/domain"
)

// IndicatorHandler provides HTTP endpoints for reading and tuning indicators.
type IndicatorHandler struct {
	dash *dashboard.Service
}

// NewIndicatorHandler creates a new indicator handler.
func NewIndicatorHandler(dash *dashboard.Service) *IndicatorHandler {
	return &IndicatorHandler{dash: dash}
}

// ListIndicators handles GET /api/v1/indicators. COMP is listed last.
func (h *IndicatorHandler) ListIndicators(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, h.dash.Indicators)
}

// ListCore handles GET /api/v1/indicators/core.
func (h *IndicatorHandler) ListCore(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, h.dash.Core)
}

// ListSpecific handles GET /api/v1/indicators/specific.
func (h *IndicatorHandler) ListSpecific(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, h.dash.Specific)
}

func (h *IndicatorHandler) writeList(w http.ResponseWriter, list func() ([]domain.Indicator, error)) {
	indicators, err := list()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if indicators == nil {
		indicators = []domain.Indicator{}
	}
	writeJSON(w, http.StatusOK, indicators)
}

// GetIndicator handles GET /api/v1/indicators/{code}.
func (h *IndicatorHandler) GetIndicator(w http.ResponseWriter, r *http.Request) {
	ind, err := h.dash.Indicator(r.PathValue("code"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ind)
}

type weightRequest struct {
	Weight *float64 `json:"weight"`
}

// SetWeight handles PUT /api/v1/indicators/{code}/weight.
func (h *IndicatorHandler) SetWeight(w http.ResponseWriter, r *http.Request) {
	var req weightRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Weight == nil {
		writeError(w, http.StatusBadRequest, "weight is required")
		return
	}

	code := r.PathValue("code")
	if err := h.dash.SetWeight(code, *req.Weight); err != nil {
		writeServiceError(w, err)
		return
	}
	h.GetIndicator(w, r)
}

type thresholdRequest struct {
	Threshold *float64 `json:"threshold"`
}

// SetThreshold handles PUT /api/v1/indicators/{code}/threshold.
func (h *IndicatorHandler) SetThreshold(w http.ResponseWriter, r *http.Request) {
	var req thresholdRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Threshold == nil {
		writeError(w, http.StatusBadRequest, "threshold is required")
		return
	}

	if err := h.dash.SetThreshold(r.PathValue("code"), *req.Threshold); err != nil {
		writeServiceError(w, err)
		return
	}
	h.GetIndicator(w, r)
}

// SetWeights handles PUT /api/v1/weights with a {code: weight} body. The batch
// is applied atomically with a single recompute.
func (h *IndicatorHandler) SetWeights(w http.ResponseWriter, r *http.Request) {
	var req map[string]float64
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req) == 0 {
		writeError(w, http.StatusBadRequest, "no weights given")
		return
	}

	if err := h.dash.SetWeights(req); err != nil {
		writeServiceError(w, err)
		return
	}
	impacts, err := h.dash.Impacts()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, impacts)
}
