package service

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"polybet/internal/models"
	"polybet/internal/repository"
)

// Ошибки админ-сервиса
var (
	ErrUnknownRiskParam = errors.New("unknown risk parameter")
	ErrInvalidParam     = errors.New("invalid parameter value")
	ErrTooManyConflicts = errors.New("too many concurrent state updates, try again")
)

// casAttempts - число повторов compare-and-set при конкурентных командах
const casAttempts = 5

// AdminService - бизнес-логика админ-команд.
//
// Каждая команда, меняющая состояние ядра, проходит через
// compare-and-set (конкурентные операторы не теряют изменения
// друг друга) и записывается в журнал аудита с actor_id.
type AdminService struct {
	riskStateRepo RiskStateRepositoryInterface
	auditRepo     AuditRepositoryInterface
	limits        LimitsHolder
	strategies    StrategyToggler
}

// NewAdminService создает новый экземпляр AdminService
func NewAdminService(riskStateRepo RiskStateRepositoryInterface, auditRepo AuditRepositoryInterface, limits LimitsHolder, strategies StrategyToggler) *AdminService {
	return &AdminService{
		riskStateRepo: riskStateRepo,
		auditRepo:     auditRepo,
		limits:        limits,
		strategies:    strategies,
	}
}

// GetRiskState возвращает текущее состояние риска
func (s *AdminService) GetRiskState() (*models.RiskState, error) {
	return s.riskStateRepo.Get()
}

// GetLimits возвращает текущие лимиты риска
func (s *AdminService) GetLimits() models.RiskLimits {
	return s.limits.Limits()
}

// SetTradingEnabled включает/выключает торговлю (kill switch)
func (s *AdminService) SetTradingEnabled(actorID string, enabled bool) (*models.RiskState, error) {
	state, err := s.updateState(func(state *models.RiskState) {
		state.TradingEnabled = enabled
	})
	if err != nil {
		return nil, err
	}

	s.audit(actorID, models.AuditSetTrading, map[string]string{
		"enabled": strconv.FormatBool(enabled),
	})
	log.Printf("admin: trading_enabled set to %v by %s", enabled, actorID)
	return state, nil
}

// SetPaperMode переключает режим paper/live
func (s *AdminService) SetPaperMode(actorID string, enabled bool) (*models.RiskState, error) {
	state, err := s.updateState(func(state *models.RiskState) {
		state.PaperMode = enabled
	})
	if err != nil {
		return nil, err
	}

	s.audit(actorID, models.AuditSetPaper, map[string]string{
		"enabled": strconv.FormatBool(enabled),
	})
	log.Printf("admin: paper_mode set to %v by %s", enabled, actorID)
	return state, nil
}

// SetRiskParam изменяет один лимит риска.
// Допустимые параметры: max_open_positions, max_order_size,
// max_position_size, max_daily_loss.
func (s *AdminService) SetRiskParam(actorID, param string, value float64) (models.RiskLimits, error) {
	limits := s.limits.Limits()

	switch param {
	case "max_open_positions":
		if value < 0 || value != float64(int(value)) {
			return limits, fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidParam, param)
		}
		limits.MaxOpenPositions = int(value)
	case "max_order_size":
		if value <= 0 {
			return limits, fmt.Errorf("%w: %s must be positive", ErrInvalidParam, param)
		}
		limits.MaxOrderSize = value
	case "max_position_size":
		if value <= 0 {
			return limits, fmt.Errorf("%w: %s must be positive", ErrInvalidParam, param)
		}
		limits.MaxPositionSize = value
	case "max_daily_loss":
		if value <= 0 {
			return limits, fmt.Errorf("%w: %s must be positive", ErrInvalidParam, param)
		}
		limits.MaxDailyLoss = value
	default:
		return limits, fmt.Errorf("%w: %s", ErrUnknownRiskParam, param)
	}

	s.limits.SetLimits(limits)

	s.audit(actorID, models.AuditSetRiskParam, map[string]string{
		"param": param,
		"value": strconv.FormatFloat(value, 'f', -1, 64),
	})
	log.Printf("admin: risk param %s set to %v by %s", param, value, actorID)
	return limits, nil
}

// SetStrategyCap изменяет лимит размера ордера для стратегии
func (s *AdminService) SetStrategyCap(actorID, strategy string, cap float64) (models.RiskLimits, error) {
	if cap <= 0 {
		return s.limits.Limits(), fmt.Errorf("%w: strategy cap must be positive", ErrInvalidParam)
	}

	limits := s.limits.Limits()
	if limits.StrategyCaps == nil {
		limits.StrategyCaps = make(map[string]float64)
	}
	limits.StrategyCaps[strategy] = cap
	s.limits.SetLimits(limits)

	s.audit(actorID, models.AuditSetRiskParam, map[string]string{
		"param":    "strategy_cap",
		"strategy": strategy,
		"value":    strconv.FormatFloat(cap, 'f', -1, 64),
	})
	return limits, nil
}

// ToggleStrategy включает/выключает стратегию
func (s *AdminService) ToggleStrategy(actorID, name string, enabled bool) error {
	if err := s.strategies.SetEnabled(name, enabled); err != nil {
		return err
	}

	s.audit(actorID, models.AuditToggleStrategy, map[string]string{
		"strategy": name,
		"enabled":  strconv.FormatBool(enabled),
	})
	log.Printf("admin: strategy %s enabled=%v by %s", name, enabled, actorID)
	return nil
}

// GetStrategies возвращает состояние переключателей стратегий
func (s *AdminService) GetStrategies() map[string]bool {
	return s.strategies.Enabled()
}

// GetAuditLog возвращает последние записи журнала
func (s *AdminService) GetAuditLog(limit int) ([]*models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.auditRepo.GetRecent(limit)
}

// updateState применяет изменение к состоянию через CAS с повторами
func (s *AdminService) updateState(mutate func(*models.RiskState)) (*models.RiskState, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		state, err := s.riskStateRepo.Get()
		if err != nil {
			return nil, err
		}

		mutate(state)

		err = s.riskStateRepo.UpdateCAS(state)
		if err == nil {
			return state, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
	}

	return nil, ErrTooManyConflicts
}

// audit пишет запись журнала; сбой журнала не отменяет команду
func (s *AdminService) audit(actorID, command string, params map[string]string) {
	entry := &models.AuditEntry{
		ActorID: actorID,
		Command: command,
		Params:  params,
	}
	if err := s.auditRepo.Create(entry); err != nil {
		log.Printf("admin: failed to write audit entry for %s: %v", command, err)
	}
}
