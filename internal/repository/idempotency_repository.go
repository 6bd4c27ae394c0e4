package repository

import (
	"database/sql"
	"errors"
	"time"

	"polybet/internal/models"
)

// Ошибки репозитория идемпотентных ключей
var (
	ErrKeyNotFound = errors.New("idempotency key not found")
)

// IdempotencyRepository - работа с таблицей idempotency_keys
//
// Ключ записывается ДО вызова внешнего клиента (write-ahead):
// падение между записью ключа и вызовом клиента восстанавливается
// как "исход неизвестен, слепо не повторять", а не как тихая
// повторная отправка.
type IdempotencyRepository struct {
	db *sql.DB
}

// NewIdempotencyRepository создает новый экземпляр репозитория
func NewIdempotencyRepository(db *sql.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// PutIfAbsent атомарно записывает ключ, если его ещё нет.
//
// Возвращает true, если ключ записан этим вызовом (мы владеем
// операцией), false - если ключ уже существовал (duplicate).
// Атомарность обеспечивает ON CONFLICT DO NOTHING: два конкурентных
// вызова с одним ключом дают ровно одну вставку.
func (r *IdempotencyRepository) PutIfAbsent(key string, ttl time.Duration) (bool, error) {
	query := `
		INSERT INTO idempotency_keys (key, order_id, created_at, expires_at)
		VALUES ($1, '', $2, $3)
		ON CONFLICT (key) DO NOTHING`

	now := time.Now().UTC()
	result, err := r.db.Exec(query, key, now, now.Add(ttl))
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// Get возвращает запись о ключе
func (r *IdempotencyRepository) Get(key string) (*models.IdempotencyRecord, error) {
	query := `
		SELECT key, order_id, created_at, expires_at
		FROM idempotency_keys
		WHERE key = $1`

	rec := &models.IdempotencyRecord{}
	err := r.db.QueryRow(query, key).Scan(
		&rec.Key,
		&rec.OrderID,
		&rec.CreatedAt,
		&rec.ExpiresAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}

	return rec, nil
}

// AttachOrder связывает ключ с созданным ордером
func (r *IdempotencyRepository) AttachOrder(key, orderID string) error {
	query := `UPDATE idempotency_keys SET order_id = $1 WHERE key = $2`

	result, err := r.db.Exec(query, orderID, key)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrKeyNotFound
	}

	return nil
}

// Release удаляет ключ, операция по которому не состоялась
// (например, ордер отклонён проверкой slippage до вызова клиента)
func (r *IdempotencyRepository) Release(key string) error {
	query := `DELETE FROM idempotency_keys WHERE key = $1`

	result, err := r.db.Exec(query, key)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrKeyNotFound
	}

	return nil
}

// DeleteExpired удаляет истёкшие ключи.
//
// Ключ, на который ссылается нетерминальный ордер, НЕ удаляется
// даже после истечения TTL - освобождение такого ключа открыло бы
// дорогу дублирующей отправке.
func (r *IdempotencyRepository) DeleteExpired(now time.Time) (int64, error) {
	query := `
		DELETE FROM idempotency_keys k
		WHERE k.expires_at < $1
		  AND NOT EXISTS (
			SELECT 1 FROM orders o
			WHERE o.idempotency_key = k.key
			  AND o.status NOT IN ($2, $3, $4)
		  )`

	result, err := r.db.Exec(query, now,
		models.OrderStatusFilled, models.OrderStatusCancelled, models.OrderStatusFailed)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// Count возвращает количество активных ключей
func (r *IdempotencyRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM idempotency_keys`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
