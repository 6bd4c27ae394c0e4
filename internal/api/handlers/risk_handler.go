package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"polybet/internal/models"
	"polybet/internal/service"
)

// RiskHandler отвечает за управление состоянием риска
//
// Endpoints:
// - GET   /api/v1/risk          - состояние риска + лимиты
// - PUT   /api/v1/risk/trading  - kill switch
// - PUT   /api/v1/risk/paper    - режим paper/live
// - PATCH /api/v1/risk/limits   - изменение одного лимита
// - GET   /api/v1/audit         - журнал админ-команд
//
// Каждая мутирующая команда записывается в audit_log с X-Actor-ID.
type RiskHandler struct {
	adminService service.AdminServiceInterface
}

// NewRiskHandler создает новый RiskHandler с внедрением зависимости
func NewRiskHandler(adminService service.AdminServiceInterface) *RiskHandler {
	return &RiskHandler{
		adminService: adminService,
	}
}

// RiskStateResponse представляет состояние риска с лимитами
type RiskStateResponse struct {
	State  *models.RiskState `json:"state"`
	Limits models.RiskLimits `json:"limits"`
}

// GetRiskState возвращает текущее состояние риска и лимиты
//
// GET /api/v1/risk
func (h *RiskHandler) GetRiskState(w http.ResponseWriter, r *http.Request) {
	state, err := h.adminService.GetRiskState()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get risk state: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, RiskStateResponse{
		State:  state,
		Limits: h.adminService.GetLimits(),
	})
}

// ToggleRequest - тело запроса для переключателей
type ToggleRequest struct {
	Enabled bool `json:"enabled"`
}

// SetTrading включает/выключает торговлю (kill switch)
//
// PUT /api/v1/risk/trading
//
// Body: {"enabled": true|false}
//
// HTTP коды:
// - 200 OK: состояние обновлено, возвращает новое состояние
// - 400 Bad Request: невалидное тело запроса
// - 409 Conflict: не удалось применить из-за конкурентных команд
func (h *RiskHandler) SetTrading(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	state, err := h.adminService.SetTradingEnabled(actorID(r), req.Enabled)
	if err != nil {
		h.respondStateError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, state)
}

// SetPaper переключает режим paper/live
//
// PUT /api/v1/risk/paper
//
// Body: {"enabled": true|false}
func (h *RiskHandler) SetPaper(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	state, err := h.adminService.SetPaperMode(actorID(r), req.Enabled)
	if err != nil {
		h.respondStateError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, state)
}

// UpdateLimitRequest - тело запроса изменения лимита
type UpdateLimitRequest struct {
	Param string  `json:"param"`
	Value float64 `json:"value"`

	// Strategy обязателен только для param=strategy_cap
	Strategy string `json:"strategy,omitempty"`
}

// UpdateLimits изменяет один лимит риска
//
// PATCH /api/v1/risk/limits
//
// Body: {"param": "max_order_size", "value": 75}
// Body: {"param": "strategy_cap", "strategy": "vegas_value", "value": 20}
//
// Допустимые параметры: max_open_positions, max_order_size,
// max_position_size, max_daily_loss, strategy_cap.
//
// HTTP коды:
// - 200 OK: лимит применен, возвращает полный набор лимитов
// - 400 Bad Request: неизвестный параметр или невалидное значение
func (h *RiskHandler) UpdateLimits(w http.ResponseWriter, r *http.Request) {
	var req UpdateLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var (
		limits models.RiskLimits
		err    error
	)
	if req.Param == "strategy_cap" {
		if req.Strategy == "" {
			respondWithError(w, http.StatusBadRequest, "strategy is required for strategy_cap")
			return
		}
		limits, err = h.adminService.SetStrategyCap(actorID(r), req.Strategy, req.Value)
	} else {
		limits, err = h.adminService.SetRiskParam(actorID(r), req.Param, req.Value)
	}

	if err != nil {
		if errors.Is(err, service.ErrUnknownRiskParam) || errors.Is(err, service.ErrInvalidParam) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to update limits: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, limits)
}

// AuditLogResponse представляет ответ журнала аудита
type AuditLogResponse struct {
	Entries []*models.AuditEntry `json:"entries"`
	Total   int                  `json:"total"`
}

// GetAuditLog возвращает последние записи журнала админ-команд
//
// GET /api/v1/audit
//
// Query параметры:
// - limit (int): количество записей (по умолчанию 100, максимум 500)
func (h *RiskHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil {
			limit = parsed
		}
	}

	entries, err := h.adminService.GetAuditLog(limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get audit log: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, AuditLogResponse{
		Entries: entries,
		Total:   len(entries),
	})
}

// respondStateError переводит ошибки обновления состояния в HTTP коды
func (h *RiskHandler) respondStateError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrTooManyConflicts) {
		respondWithError(w, http.StatusConflict, err.Error())
		return
	}
	respondWithError(w, http.StatusInternalServerError, "Failed to update risk state: "+err.Error())
}
