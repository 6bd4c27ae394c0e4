package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"polybet/internal/api"
	"polybet/internal/config"
	"polybet/internal/engine"
	"polybet/internal/models"
	"polybet/internal/polymarket"
	"polybet/internal/repository"
	"polybet/internal/service"
	"polybet/internal/strategy"
	"polybet/internal/websocket"
	"polybet/pkg/crypto"

	_ "github.com/lib/pq"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connected to database successfully")

	if err := repository.InitSchema(db); err != nil {
		log.Fatalf("Failed to init schema: %v", err)
	}

	// Инициализация репозиториев
	riskStateRepo := repository.NewRiskStateRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	fillRepo := repository.NewFillRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	keyRepo := repository.NewIdempotencyRepository(db)

	// Состояние риска определяет режим торгового клиента.
	// Смена paper/live через админ API вступает в силу после рестарта.
	state, err := riskStateRepo.Get()
	if err != nil {
		log.Fatalf("Failed to load risk state: %v", err)
	}

	tradingClient, marketSource, err := buildClients(cfg, state.PaperMode)
	if err != nil {
		log.Fatalf("Failed to build trading client: %v", err)
	}
	defer tradingClient.Close()

	oddsClient := polymarket.NewOddsClient(cfg.Odds)
	defer oddsClient.Close()

	// Метрики движка на отдельном реестре
	registry := prometheus.NewRegistry()
	metrics := engine.NewMetrics(registry)

	// Решающее ядро
	riskEngine := engine.NewRiskEngine(
		models.DefaultRiskLimits(),
		cfg.Engine.StalenessThreshold,
		cfg.Engine.ConfidenceThreshold,
	)

	execution := engine.NewExecutionEngine(orderRepo, keyRepo, fillRepo, tradingClient, engine.ExecutionConfig{
		IdempotencyBucket: cfg.Engine.IdempotencyBucket,
		IdempotencyTTL:    cfg.Engine.IdempotencyTTL,
		MaxSlippage:       cfg.Engine.MaxSlippage,
		SubmitTimeout:     cfg.Engine.SubmitTimeout,
	}, metrics)

	aggregator := engine.NewSignalAggregator(metrics)
	for _, name := range strategy.SupportedStrategies {
		s, err := strategy.NewStrategy(name)
		if err != nil {
			log.Fatalf("Failed to build strategy %s: %v", name, err)
		}
		aggregator.Register(s)
	}

	// WebSocket hub - подписчик событий ядра
	hub := websocket.NewHub()
	go hub.Run()

	eng := engine.New(aggregator, riskEngine, execution,
		riskStateRepo, orderRepo, fillRepo,
		marketSource, oddsClient,
		hub, metrics, engine.Config{
			CycleInterval:      cfg.Engine.CycleInterval,
			SweepInterval:      cfg.Engine.SweepInterval,
			StalenessThreshold: cfg.Engine.StalenessThreshold,
			PriceHistoryDepth:  cfg.Engine.PriceHistoryDepth,
		})

	engineCtx, stopEngine := context.WithCancel(context.Background())
	defer stopEngine()
	go eng.Run(engineCtx)

	// Сервисы админ API
	adminService := service.NewAdminService(riskStateRepo, auditRepo, riskEngine, aggregator)
	orderService := service.NewOrderService(orderRepo, fillRepo, keyRepo)

	// Настройка HTTP роутера
	router := api.SetupRoutes(&api.Dependencies{
		AdminService:   adminService,
		OrderService:   orderService,
		Hub:            hub,
		Registry:       registry,
		AdminTokenHash: cfg.Security.AdminTokenHash,
	})

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		log.Printf("Starting server on %s (paper_mode=%v)", server.Addr, state.PaperMode)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Останавливаем циклы ядра, затем hub и HTTP сервер
	stopEngine()
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// buildClients выбирает торговый клиент по режиму работы.
// В paper режиме ордера исполняются локально, без API-ключей.
func buildClients(cfg *config.Config, paperMode bool) (polymarket.TradingClient, polymarket.MarketDataSource, error) {
	if paperMode {
		paper := polymarket.NewPaperClient()
		// Рыночные данные в paper режиме читаем с площадки без аутентификации
		markets := polymarket.NewClient(cfg.Client, "")
		return paper, markets, nil
	}

	apiKey, err := crypto.Decrypt(cfg.Client.APIKeyEncrypted, []byte(cfg.Security.EncryptionKey))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decrypt API key: %w", err)
	}

	client := polymarket.NewClient(cfg.Client, apiKey)
	return client, client, nil
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
