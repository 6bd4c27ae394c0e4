package service

import (
	"polybet/internal/models"
	"polybet/pkg/utils"
)

// OrderService - чтение ордеров и исполнений для админ API
type OrderService struct {
	orderRepo OrderRepositoryInterface
	fillRepo  FillRepositoryInterface
	keyRepo   IdempotencyRepositoryInterface
}

// NewOrderService создает новый экземпляр OrderService
func NewOrderService(orderRepo OrderRepositoryInterface, fillRepo FillRepositoryInterface, keyRepo IdempotencyRepositoryInterface) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		fillRepo:  fillRepo,
		keyRepo:   keyRepo,
	}
}

// GetOrder возвращает ордер с его исполнениями
func (s *OrderService) GetOrder(id string) (*models.Order, []*models.Fill, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, nil, err
	}

	fills, err := s.fillRepo.GetByOrderID(id)
	if err != nil {
		return nil, nil, err
	}

	return order, fills, nil
}

// GetRecentOrders возвращает последние ордера
func (s *OrderService) GetRecentOrders(limit int) ([]*models.Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.orderRepo.GetRecent(limit)
}

// GetOpenOrders возвращает нетерминальные ордера
func (s *OrderService) GetOpenOrders() ([]*models.Order, error) {
	return s.orderRepo.GetOpen()
}

// Status - сводка состояния ядра для эндпоинта статуса
type Status struct {
	OpenPositions int     `json:"open_positions"`
	TotalOrders   int     `json:"total_orders"`
	DailyPnl      float64 `json:"daily_pnl"`

	// ActiveKeys - живые идемпотентные ключи; рост без роста ордеров
	// означает, что sweep не поспевает
	ActiveKeys int `json:"active_keys"`
}

// GetStatus собирает сводку по ордерам и PnL
func (s *OrderService) GetStatus() (*Status, error) {
	openPositions, err := s.orderRepo.CountOpen()
	if err != nil {
		return nil, err
	}

	totalOrders, err := s.orderRepo.Count()
	if err != nil {
		return nil, err
	}

	dailyPnl, err := s.fillRepo.SumPnlSince(utils.GetDayStart())
	if err != nil {
		return nil, err
	}

	activeKeys, err := s.keyRepo.Count()
	if err != nil {
		return nil, err
	}

	return &Status{
		OpenPositions: openPositions,
		TotalOrders:   totalOrders,
		DailyPnl:      dailyPnl,
		ActiveKeys:    activeKeys,
	}, nil
}
