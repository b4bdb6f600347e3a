package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ShcoderDev/crypto-alerts-bot/internal/domain"
	"github.com/ShcoderDev/crypto-alerts-bot/internal/usecase"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Handlers struct {
	alertUC *usecase.AlertUsecase
	candles domain.CandleSource
	logger  *zap.Logger
}

func NewHandlers(alertUC *usecase.AlertUsecase, candles domain.CandleSource, logger *zap.Logger) *Handlers {
	return &Handlers{alertUC: alertUC, candles: candles, logger: logger}
}

type alertCreateRequest struct {
	Cryptocurrency string  `json:"cryptocurrency"`
	TargetPrice    float64 `json:"target_price"`
	IsAbove        bool    `json:"is_above"`
}

type alertUpdateRequest struct {
	Cryptocurrency *string  `json:"cryptocurrency"`
	TargetPrice    *float64 `json:"target_price"`
	IsAbove        *bool    `json:"is_above"`
}

type alertResponse struct {
	ID             uint    `json:"id"`
	UserID         int64   `json:"user_id"`
	Cryptocurrency string  `json:"cryptocurrency"`
	TargetPrice    float64 `json:"target_price"`
	IsAbove        bool    `json:"is_above"`
	CreatedAt      string  `json:"created_at"`
	IsActive       bool    `json:"is_active"`
}

func (h *Handlers) GetCryptocurrencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"cryptocurrencies": h.alertUC.SupportedCryptocurrencies(),
	})
}

func (h *Handlers) GetCandles(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1m"
	}

	limit := 60
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	candles, err := h.candles.GetCandles(r.Context(), symbol, interval, limit)
	if err != nil {
		h.logger.Warn("failed to fetch candles", zap.String("symbol", symbol), zap.Error(err))
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) {
			writeError(w, upstream.StatusCode, upstream.Message)
			return
		}
		writeError(w, http.StatusBadGateway, "failed to fetch candle data")
		return
	}

	writeJSON(w, http.StatusOK, map[string][]domain.Candle{"candles": candles})
}

func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	alerts, err := h.alertUC.ListAlerts(r.Context(), userID)
	if err != nil {
		h.logger.Warn("failed to list alerts", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load alerts")
		return
	}

	responses := make([]alertResponse, 0, len(alerts))
	for _, alert := range alerts {
		responses = append(responses, mapAlertResponse(alert))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *Handlers) CreateAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req alertCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	alert, err := h.alertUC.CreateAlert(r.Context(), userID, req.Cryptocurrency, decimal.NewFromFloat(req.TargetPrice), req.IsAbove)
	if err != nil {
		h.writeAlertError(w, userID, err)
		return
	}

	writeJSON(w, http.StatusOK, mapAlertResponse(*alert))
}

func (h *Handlers) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	alertID, ok := alertIDParam(w, r)
	if !ok {
		return
	}

	var req alertUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	update := domain.AlertUpdate{
		Cryptocurrency: req.Cryptocurrency,
		IsAbove:        req.IsAbove,
	}
	if req.TargetPrice != nil {
		price := decimal.NewFromFloat(*req.TargetPrice)
		update.TargetPrice = &price
	}

	alert, err := h.alertUC.UpdateAlert(r.Context(), userID, alertID, update)
	if err != nil {
		h.writeAlertError(w, userID, err)
		return
	}

	writeJSON(w, http.StatusOK, mapAlertResponse(*alert))
}

func (h *Handlers) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	alertID, ok := alertIDParam(w, r)
	if !ok {
		return
	}

	if err := h.alertUC.DeleteAlert(r.Context(), userID, alertID); err != nil {
		h.writeAlertError(w, userID, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "alert deleted"})
}

func (h *Handlers) writeAlertError(w http.ResponseWriter, userID int64, err error) {
	switch {
	case errors.Is(err, usecase.ErrUnsupportedCryptocurrency):
		writeError(w, http.StatusBadRequest, "unsupported cryptocurrency")
	case errors.Is(err, usecase.ErrInvalidTargetPrice):
		writeError(w, http.StatusBadRequest, "target price must be positive")
	case errors.Is(err, usecase.ErrAlertNotFound):
		writeError(w, http.StatusNotFound, "alert not found")
	case errors.Is(err, usecase.ErrAlertAccessDenied):
		writeError(w, http.StatusForbidden, "no access to this alert")
	default:
		h.logger.Warn("alert request failed", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return 0, false
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "user_id must be an integer")
		return 0, false
	}
	return userID, true
}

func alertIDParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := r.PathValue("id")
	alertID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "alert id must be an integer")
		return 0, false
	}
	return uint(alertID), true
}

func mapAlertResponse(alert domain.PriceAlert) alertResponse {
	return alertResponse{
		ID:             alert.ID,
		UserID:         alert.UserID,
		Cryptocurrency: alert.Cryptocurrency,
		TargetPrice:    alert.TargetPrice.InexactFloat64(),
		IsAbove:        alert.IsAbove,
		CreatedAt:      alert.CreatedAt.Format(time.RFC3339),
		IsActive:       alert.IsActive,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
