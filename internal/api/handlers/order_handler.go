package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"polybet/internal/models"
	"polybet/internal/repository"
	"polybet/internal/service"
)

// OrderHandler отвечает за чтение ордеров и исполнений
//
// Endpoints:
// - GET /api/v1/orders       - последние ордера
// - GET /api/v1/orders/open  - нетерминальные ордера
// - GET /api/v1/orders/{id}  - ордер с исполнениями
type OrderHandler struct {
	orderService service.OrderServiceInterface
}

// NewOrderHandler создает новый OrderHandler с внедрением зависимости
func NewOrderHandler(orderService service.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// OrdersResponse представляет список ордеров
type OrdersResponse struct {
	Orders []*models.Order `json:"orders"`
	Total  int             `json:"total"`
}

// OrderDetailResponse представляет ордер с его исполнениями
type OrderDetailResponse struct {
	Order *models.Order  `json:"order"`
	Fills []*models.Fill `json:"fills"`
}

// GetOrders возвращает последние ордера
//
// GET /api/v1/orders
//
// Query параметры:
// - limit (int): количество записей (по умолчанию 50, максимум 500)
func (h *OrderHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil {
			limit = parsed
		}
	}

	orders, err := h.orderService.GetRecentOrders(limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get orders: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, OrdersResponse{
		Orders: orders,
		Total:  len(orders),
	})
}

// GetOpenOrders возвращает нетерминальные ордера
//
// GET /api/v1/orders/open
func (h *OrderHandler) GetOpenOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.GetOpenOrders()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get open orders: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, OrdersResponse{
		Orders: orders,
		Total:  len(orders),
	})
}

// GetOrder возвращает ордер с его исполнениями
//
// GET /api/v1/orders/{id}
//
// HTTP коды:
// - 200 OK: ордер найден
// - 404 Not Found: ордер не существует
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	order, fills, err := h.orderService.GetOrder(id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "Order not found: "+id)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get order: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, OrderDetailResponse{
		Order: order,
		Fills: fills,
	})
}
