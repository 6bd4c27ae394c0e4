package repository

import (
	"database/sql"
	"errors"
	"time"

	"polybet/internal/models"
)

// Ошибки репозитория состояния риска
var (
	// ErrVersionConflict - compare-and-set не прошёл: состояние
	// было изменено конкурентно, нужно перечитать и повторить
	ErrVersionConflict = errors.New("risk state version conflict")
)

// riskStateID - единственная строка состояния
const riskStateID = 1

// RiskStateRepository - работа с singleton-строкой risk_state
//
// Состояние изменяется только через compare-and-set по version -
// конкурентные админ-команды не теряют изменения друг друга.
type RiskStateRepository struct {
	db *sql.DB
}

// NewRiskStateRepository создает новый экземпляр репозитория
func NewRiskStateRepository(db *sql.DB) *RiskStateRepository {
	return &RiskStateRepository{db: db}
}

// Get возвращает текущее состояние риска.
// При первом запуске создаёт fail-safe дефолт:
// торговля выключена, режим paper.
func (r *RiskStateRepository) Get() (*models.RiskState, error) {
	query := `
		SELECT trading_enabled, paper_mode, daily_pnl, open_positions, version, updated_at
		FROM risk_state
		WHERE id = $1`

	state := &models.RiskState{}
	err := r.db.QueryRow(query, riskStateID).Scan(
		&state.TradingEnabled,
		&state.PaperMode,
		&state.DailyPnl,
		&state.OpenPositions,
		&state.Version,
		&state.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.createDefault()
		}
		return nil, err
	}

	return state, nil
}

// createDefault записывает fail-safe состояние первого запуска
func (r *RiskStateRepository) createDefault() (*models.RiskState, error) {
	def := models.DefaultRiskState()
	def.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO risk_state (id, trading_enabled, paper_mode, daily_pnl, open_positions, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.Exec(query,
		riskStateID,
		def.TradingEnabled,
		def.PaperMode,
		def.DailyPnl,
		def.OpenPositions,
		def.Version,
		def.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &def, nil
}

// UpdateCAS записывает новое состояние, если version не изменилась.
// При успехе инкрементирует version в состоянии вызывающего.
// Возвращает ErrVersionConflict при гонке - вызывающий перечитывает
// состояние и повторяет операцию.
func (r *RiskStateRepository) UpdateCAS(state *models.RiskState) error {
	query := `
		UPDATE risk_state
		SET trading_enabled = $1, paper_mode = $2, daily_pnl = $3,
		    open_positions = $4, version = version + 1, updated_at = $5
		WHERE id = $6 AND version = $7`

	now := time.Now().UTC()
	result, err := r.db.Exec(query,
		state.TradingEnabled,
		state.PaperMode,
		state.DailyPnl,
		state.OpenPositions,
		now,
		riskStateID,
		state.Version,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrVersionConflict
	}

	state.Version++
	state.UpdatedAt = now
	return nil
}
