package api

import (
	"polybet/internal/models"
	"polybet/internal/service"
)

// fakeAdminService - минимальная реализация для тестов маршрутизации
type fakeAdminService struct {
	state  models.RiskState
	limits models.RiskLimits
}

var _ service.AdminServiceInterface = (*fakeAdminService)(nil)

func newFakeAdminService() *fakeAdminService {
	return &fakeAdminService{
		state:  models.DefaultRiskState(),
		limits: models.DefaultRiskLimits(),
	}
}

func (f *fakeAdminService) GetRiskState() (*models.RiskState, error) {
	clone := f.state
	return &clone, nil
}

func (f *fakeAdminService) GetLimits() models.RiskLimits { return f.limits }

func (f *fakeAdminService) SetTradingEnabled(actorID string, enabled bool) (*models.RiskState, error) {
	f.state.TradingEnabled = enabled
	clone := f.state
	return &clone, nil
}

func (f *fakeAdminService) SetPaperMode(actorID string, enabled bool) (*models.RiskState, error) {
	f.state.PaperMode = enabled
	clone := f.state
	return &clone, nil
}

func (f *fakeAdminService) SetRiskParam(actorID, param string, value float64) (models.RiskLimits, error) {
	return f.limits, nil
}

func (f *fakeAdminService) SetStrategyCap(actorID, strategy string, cap float64) (models.RiskLimits, error) {
	return f.limits, nil
}

func (f *fakeAdminService) ToggleStrategy(actorID, name string, enabled bool) error { return nil }

func (f *fakeAdminService) GetStrategies() map[string]bool { return map[string]bool{} }

func (f *fakeAdminService) GetAuditLog(limit int) ([]*models.AuditEntry, error) { return nil, nil }
