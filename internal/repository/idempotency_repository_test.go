package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// ============================================================
// IdempotencyRepository Tests
// ============================================================

func TestPutIfAbsent(t *testing.T) {
	tests := []struct {
		name         string
		rowsAffected int64
		wantInserted bool
	}{
		{"new key inserted", 1, true},
		{"existing key ignored", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			mock.ExpectExec(`INSERT INTO idempotency_keys`).
				WithArgs("key-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, tt.rowsAffected))

			repo := NewIdempotencyRepository(db)
			inserted, err := repo.PutIfAbsent("key-1", 24*time.Hour)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if inserted != tt.wantInserted {
				t.Errorf("inserted = %v, want %v", inserted, tt.wantInserted)
			}
		})
	}
}

func TestIdempotencyGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"key", "order_id", "created_at", "expires_at"}).
		AddRow("key-1", "ord-1", now, now.Add(24*time.Hour))
	mock.ExpectQuery(`SELECT .+ FROM idempotency_keys WHERE key = \$1`).
		WithArgs("key-1").
		WillReturnRows(rows)

	repo := NewIdempotencyRepository(db)
	rec, err := repo.Get("key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.OrderID != "ord-1" {
		t.Errorf("expected order ord-1, got %s", rec.OrderID)
	}
}

func TestIdempotencyGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM idempotency_keys WHERE key = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	repo := NewIdempotencyRepository(db)
	_, err = repo.Get("missing")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestDeleteExpiredGuardsOpenOrders(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	// Запрос обязан содержать guard против нетерминальных ордеров
	mock.ExpectExec(`DELETE FROM idempotency_keys k\s+WHERE k.expires_at < \$1\s+AND NOT EXISTS`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	repo := NewIdempotencyRepository(db)
	deleted, err := repo.DeleteExpired(time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM idempotency_keys WHERE key = \$1`).
		WithArgs("key-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewIdempotencyRepository(db)
	if err := repo.Release("key-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
