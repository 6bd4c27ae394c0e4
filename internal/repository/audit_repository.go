package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"polybet/internal/models"
)

// AuditRepository - журнал админ-команд
//
// Каждая команда, меняющая состояние ядра (kill switch, лимиты,
// стратегии), записывается с actor_id для последующего аудита.
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository создает новый экземпляр репозитория
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create создает запись журнала
func (r *AuditRepository) Create(entry *models.AuditEntry) error {
	query := `
		INSERT INTO audit_log (actor_id, command, params, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	if entry.Params == nil {
		entry.Params = map[string]string{}
	}
	paramsJSON, err := json.Marshal(entry.Params)
	if err != nil {
		return err
	}

	entry.CreatedAt = time.Now().UTC()

	return r.db.QueryRow(query,
		entry.ActorID,
		entry.Command,
		paramsJSON,
		entry.CreatedAt,
	).Scan(&entry.ID)
}

// GetRecent возвращает последние N записей журнала
func (r *AuditRepository) GetRecent(limit int) ([]*models.AuditEntry, error) {
	query := `
		SELECT id, actor_id, command, params, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		entry := &models.AuditEntry{}
		var paramsJSON []byte
		err := rows.Scan(
			&entry.ID,
			&entry.ActorID,
			&entry.Command,
			&paramsJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if len(paramsJSON) > 0 {
			if err := json.Unmarshal(paramsJSON, &entry.Params); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// Count возвращает количество записей журнала
func (r *AuditRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM audit_log`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
