package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"polybet/internal/models"
)

// ============================================================
// FillRepository Tests
// ============================================================

func TestFillCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO fills`).
		WithArgs("fill-1", "ord-1", 0.42, 25.0, -1.5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewFillRepository(db)
	fill := &models.Fill{
		ID:      "fill-1",
		OrderID: "ord-1",
		Price:   0.42,
		Size:    25.0,
		Pnl:     -1.5,
	}

	if err := repo.Create(fill); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fill.Timestamp.IsZero() {
		t.Error("Create must stamp timestamp when absent")
	}
}

func TestSumPnlSince(t *testing.T) {
	tests := []struct {
		name string
		sum  float64
	}{
		{"with fills", -37.25},
		{"no fills returns zero", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			dayStart := time.Now().Truncate(24 * time.Hour)
			mock.ExpectQuery(`SELECT COALESCE\(SUM\(pnl\), 0\) FROM fills WHERE timestamp >= \$1`).
				WithArgs(dayStart).
				WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(tt.sum))

			repo := NewFillRepository(db)
			sum, err := repo.SumPnlSince(dayStart)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sum != tt.sum {
				t.Errorf("expected %v, got %v", tt.sum, sum)
			}
		})
	}
}

func TestFillGetByOrderID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "order_id", "price", "size", "pnl", "timestamp"}).
		AddRow("fill-1", "ord-1", 0.42, 10.0, 0.0, now).
		AddRow("fill-2", "ord-1", 0.43, 15.0, 0.0, now.Add(time.Second))
	mock.ExpectQuery(`SELECT .+ FROM fills\s+WHERE order_id = \$1`).
		WithArgs("ord-1").
		WillReturnRows(rows)

	repo := NewFillRepository(db)
	fills, err := repo.GetByOrderID("ord-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fills) != 2 {
		t.Fatalf("expected 2 fills, got %d", len(fills))
	}
	if fills[0].ID != "fill-1" || fills[1].ID != "fill-2" {
		t.Error("fills must come back in timestamp order")
	}
}
