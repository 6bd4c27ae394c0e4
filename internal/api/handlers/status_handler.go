package handlers

import (
	"net/http"

	"polybet/internal/models"
	"polybet/internal/service"
)

// StatusHandler отвечает за сводку состояния ядра
//
// Endpoint:
// - GET /api/v1/status - состояние риска + счетчики ордеров
type StatusHandler struct {
	adminService service.AdminServiceInterface
	orderService service.OrderServiceInterface
}

// NewStatusHandler создает новый StatusHandler с внедрением зависимостей
func NewStatusHandler(adminService service.AdminServiceInterface, orderService service.OrderServiceInterface) *StatusHandler {
	return &StatusHandler{
		adminService: adminService,
		orderService: orderService,
	}
}

// StatusResponse представляет сводку состояния ядра
type StatusResponse struct {
	RiskState     *models.RiskState `json:"risk_state"`
	OpenPositions int               `json:"open_positions"`
	TotalOrders   int               `json:"total_orders"`
	DailyPnl      float64           `json:"daily_pnl"`
	ActiveKeys    int               `json:"active_keys"`
}

// GetStatus возвращает сводку состояния ядра
//
// GET /api/v1/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	state, err := h.adminService.GetRiskState()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get risk state: "+err.Error())
		return
	}

	status, err := h.orderService.GetStatus()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get order status: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, StatusResponse{
		RiskState:     state,
		OpenPositions: status.OpenPositions,
		TotalOrders:   status.TotalOrders,
		DailyPnl:      status.DailyPnl,
		ActiveKeys:    status.ActiveKeys,
	})
}
