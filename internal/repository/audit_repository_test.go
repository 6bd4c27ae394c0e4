package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"polybet/internal/models"
)

// ============================================================
// AuditRepository Tests
// ============================================================

func TestAuditCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO audit_log`).
		WithArgs("admin-1", models.AuditSetTrading, []byte(`{"enabled":"true"}`), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	repo := NewAuditRepository(db)
	entry := &models.AuditEntry{
		ActorID: "admin-1",
		Command: models.AuditSetTrading,
		Params:  map[string]string{"enabled": "true"},
	}

	if err := repo.Create(entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.ID != 42 {
		t.Errorf("expected id 42, got %d", entry.ID)
	}
}

func TestAuditGetRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "actor_id", "command", "params", "created_at"}).
		AddRow(int64(2), "admin-1", models.AuditSetPaper, []byte(`{"enabled":"false"}`), time.Now()).
		AddRow(int64(1), "admin-1", models.AuditSetTrading, []byte(`{}`), time.Now().Add(-time.Minute))
	mock.ExpectQuery(`SELECT .+ FROM audit_log\s+ORDER BY created_at DESC`).
		WithArgs(10).
		WillReturnRows(rows)

	repo := NewAuditRepository(db)
	entries, err := repo.GetRecent(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Params["enabled"] != "false" {
		t.Errorf("params not decoded: %v", entries[0].Params)
	}
}
