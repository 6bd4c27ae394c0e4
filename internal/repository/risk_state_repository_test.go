package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"polybet/internal/models"
)

// ============================================================
// RiskStateRepository Tests
// ============================================================

func TestRiskStateGet(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		check       func(t *testing.T, state *models.RiskState)
		expectError bool
	}{
		{
			name: "existing state",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"trading_enabled", "paper_mode", "daily_pnl", "open_positions", "version", "updated_at"}).
					AddRow(true, false, -12.5, 3, 7, now)
				mock.ExpectQuery(`SELECT .+ FROM risk_state WHERE id = \$1`).
					WithArgs(1).
					WillReturnRows(rows)
			},
			check: func(t *testing.T, state *models.RiskState) {
				if !state.TradingEnabled {
					t.Error("expected trading enabled")
				}
				if state.Version != 7 {
					t.Errorf("expected version 7, got %d", state.Version)
				}
			},
		},
		{
			name: "first boot creates fail-safe default",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM risk_state WHERE id = \$1`).
					WithArgs(1).
					WillReturnError(sql.ErrNoRows)
				mock.ExpectExec(`INSERT INTO risk_state`).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
			check: func(t *testing.T, state *models.RiskState) {
				if state.TradingEnabled {
					t.Error("first boot must have trading disabled")
				}
				if !state.PaperMode {
					t.Error("first boot must default to paper mode")
				}
			},
		},
		{
			name: "query error",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM risk_state WHERE id = \$1`).
					WithArgs(1).
					WillReturnError(errors.New("connection refused"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewRiskStateRepository(db)
			state, err := repo.Get()

			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, state)

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestRiskStateUpdateCAS(t *testing.T) {
	t.Run("success increments version", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("failed to create mock: %v", err)
		}
		defer db.Close()

		mock.ExpectExec(`UPDATE risk_state`).
			WithArgs(true, false, 0.0, 2, sqlmock.AnyArg(), 1, int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewRiskStateRepository(db)
		state := &models.RiskState{TradingEnabled: true, OpenPositions: 2, Version: 3}

		if err := repo.UpdateCAS(state); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state.Version != 4 {
			t.Errorf("expected version bumped to 4, got %d", state.Version)
		}
	})

	t.Run("stale version returns conflict", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("failed to create mock: %v", err)
		}
		defer db.Close()

		// version изменилась конкурентно - 0 строк затронуто
		mock.ExpectExec(`UPDATE risk_state`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewRiskStateRepository(db)
		state := &models.RiskState{Version: 1}

		err = repo.UpdateCAS(state)
		if !errors.Is(err, ErrVersionConflict) {
			t.Errorf("expected ErrVersionConflict, got %v", err)
		}
		if state.Version != 1 {
			t.Errorf("version must not change on conflict, got %d", state.Version)
		}
	})
}
