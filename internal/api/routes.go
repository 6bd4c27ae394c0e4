package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"polybet/internal/api/handlers"
	"polybet/internal/api/middleware"
	"polybet/internal/service"
	"polybet/internal/websocket"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	AdminService service.AdminServiceInterface
	OrderService service.OrderServiceInterface
	Hub          *websocket.Hub

	// Registry - реестр метрик движка для /metrics
	Registry *prometheus.Registry

	// AdminTokenHash - bcrypt-хеш токена админ API (пустой = dev режим)
	AdminTokenHash string
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /risk
//	│   ├── GET / - состояние риска + лимиты
//	│   ├── PUT /trading - kill switch
//	│   ├── PUT /paper - режим paper/live
//	│   └── PATCH /limits - изменение лимита
//	├── /strategies
//	│   ├── GET / - переключатели стратегий
//	│   └── POST /{name} - включить/выключить стратегию
//	├── /orders
//	│   ├── GET / - последние ордера
//	│   ├── GET /open - нетерминальные ордера
//	│   └── GET /{id} - ордер с исполнениями
//	├── GET /status - сводка состояния ядра
//	├── GET /audit - журнал админ-команд
//	└── GET /health - health check (без auth)
//
// /metrics - Prometheus метрики движка
// /ws      - WebSocket поток решений ядра
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. Auth (только для /api/v1, кроме health)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	// Создание handlers с внедрением зависимостей
	var riskHandler *handlers.RiskHandler
	var strategyHandler *handlers.StrategyHandler
	var statusHandler *handlers.StatusHandler
	if deps != nil && deps.AdminService != nil {
		riskHandler = handlers.NewRiskHandler(deps.AdminService)
		strategyHandler = handlers.NewStrategyHandler(deps.AdminService)
	}

	var orderHandler *handlers.OrderHandler
	if deps != nil && deps.OrderService != nil {
		orderHandler = handlers.NewOrderHandler(deps.OrderService)
	}

	if deps != nil && deps.AdminService != nil && deps.OrderService != nil {
		statusHandler = handlers.NewStatusHandler(deps.AdminService, deps.OrderService)
	}

	// Health check вне auth: регистрируется на корневом роутере,
	// middleware суброутера /api/v1 на него не действует
	router.HandleFunc("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Auth для всего админ API
	tokenHash := ""
	if deps != nil {
		tokenHash = deps.AdminTokenHash
	}
	api.Use(middleware.Auth(tokenHash))

	// Risk routes
	if riskHandler != nil {
		api.HandleFunc("/risk", riskHandler.GetRiskState).Methods("GET")
		api.HandleFunc("/risk/trading", riskHandler.SetTrading).Methods("PUT")
		api.HandleFunc("/risk/paper", riskHandler.SetPaper).Methods("PUT")
		api.HandleFunc("/risk/limits", riskHandler.UpdateLimits).Methods("PATCH")
		api.HandleFunc("/audit", riskHandler.GetAuditLog).Methods("GET")
	}

	// Strategy routes
	if strategyHandler != nil {
		api.HandleFunc("/strategies", strategyHandler.GetStrategies).Methods("GET")
		api.HandleFunc("/strategies/{name}", strategyHandler.ToggleStrategy).Methods("POST")
	}

	// Order routes
	if orderHandler != nil {
		api.HandleFunc("/orders", orderHandler.GetOrders).Methods("GET")
		api.HandleFunc("/orders/open", orderHandler.GetOpenOrders).Methods("GET")
		api.HandleFunc("/orders/{id}", orderHandler.GetOrder).Methods("GET")
	}

	// Status route
	if statusHandler != nil {
		api.HandleFunc("/status", statusHandler.GetStatus).Methods("GET")
	}

	// Prometheus метрики движка
	if deps != nil && deps.Registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})).Methods("GET")
	}

	// WebSocket route
	if deps != nil && deps.Hub != nil {
		hub := deps.Hub
		router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		})
	}

	return router
}
