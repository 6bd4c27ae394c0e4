package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"polybet/internal/service"
)

// StrategyHandler отвечает за переключатели стратегий
//
// Endpoints:
// - GET  /api/v1/strategies        - состояние переключателей
// - POST /api/v1/strategies/{name} - включить/выключить стратегию
type StrategyHandler struct {
	adminService service.AdminServiceInterface
}

// NewStrategyHandler создает новый StrategyHandler с внедрением зависимости
func NewStrategyHandler(adminService service.AdminServiceInterface) *StrategyHandler {
	return &StrategyHandler{
		adminService: adminService,
	}
}

// StrategiesResponse представляет состояние переключателей стратегий
type StrategiesResponse struct {
	Strategies map[string]bool `json:"strategies"`
}

// GetStrategies возвращает зарегистрированные стратегии и их состояние
//
// GET /api/v1/strategies
func (h *StrategyHandler) GetStrategies(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, StrategiesResponse{
		Strategies: h.adminService.GetStrategies(),
	})
}

// ToggleStrategy включает/выключает стратегию
//
// POST /api/v1/strategies/{name}
//
// Body: {"enabled": true|false}
//
// HTTP коды:
// - 200 OK: переключатель применен
// - 400 Bad Request: невалидное тело запроса
// - 404 Not Found: стратегия не зарегистрирована
func (h *StrategyHandler) ToggleStrategy(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.adminService.ToggleStrategy(actorID(r), name, req.Enabled); err != nil {
		respondWithError(w, http.StatusNotFound, "Unknown strategy: "+name)
		return
	}

	respondWithJSON(w, http.StatusOK, StrategiesResponse{
		Strategies: h.adminService.GetStrategies(),
	})
}
