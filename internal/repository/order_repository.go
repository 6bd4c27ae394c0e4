package repository

import (
	"database/sql"
	"errors"
	"time"

	"polybet/internal/models"
)

// Ошибки репозитория ордеров
var (
	ErrOrderNotFound = errors.New("order not found")
)

const orderColumns = `id, market_id, outcome_id, side, price, size, filled_size, status, strategy, idempotency_key, venue_order_id, error_message, created_at, updated_at, filled_at`

// OrderRepository - работа с таблицей orders
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository создает новый экземпляр репозитория
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// scanOrder читает одну строку в модель
func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	order := &models.Order{}
	err := row.Scan(
		&order.ID,
		&order.MarketID,
		&order.OutcomeID,
		&order.Side,
		&order.Price,
		&order.Size,
		&order.FilledSize,
		&order.Status,
		&order.Strategy,
		&order.IdempotencyKey,
		&order.VenueOrderID,
		&order.ErrorMessage,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.FilledAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Create создает запись об ордере
func (r *OrderRepository) Create(order *models.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err := r.db.Exec(
		query,
		order.ID,
		order.MarketID,
		order.OutcomeID,
		order.Side,
		order.Price,
		order.Size,
		order.FilledSize,
		order.Status,
		order.Strategy,
		order.IdempotencyKey,
		order.VenueOrderID,
		order.ErrorMessage,
		order.CreatedAt,
		order.UpdatedAt,
		order.FilledAt,
	)

	return err
}

// GetByID возвращает ордер по ID
func (r *OrderRepository) GetByID(id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return order, nil
}

// GetByIdempotencyKey возвращает ордер по идемпотентному ключу.
// Инвариант хранилища: на один ключ не более одного нетерминального ордера.
func (r *OrderRepository) GetByIdempotencyKey(key string) (*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE idempotency_key = $1
		ORDER BY created_at DESC
		LIMIT 1`

	order, err := scanOrder(r.db.QueryRow(query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return order, nil
}

// queryOrders выполняет запрос, возвращающий множество ордеров
func (r *OrderRepository) queryOrders(query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// GetRecent возвращает последние N ордеров
func (r *OrderRepository) GetRecent(limit int) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1`

	return r.queryOrders(query, limit)
}

// GetByStatus возвращает ордера с определенным статусом
func (r *OrderRepository) GetByStatus(status string) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = $1
		ORDER BY created_at DESC`

	return r.queryOrders(query, status)
}

// GetOpen возвращает все нетерминальные ордера
func (r *OrderRepository) GetOpen() ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status NOT IN ($1, $2, $3)
		ORDER BY created_at DESC`

	return r.queryOrders(query,
		models.OrderStatusFilled, models.OrderStatusCancelled, models.OrderStatusFailed)
}

// CountOpen возвращает количество нетерминальных ордеров.
// Открытые позиции пересчитываются ТОЛЬКО из подтверждённых
// ордеров, никогда не "угадываются".
func (r *OrderRepository) CountOpen() (int, error) {
	query := `SELECT COUNT(*) FROM orders WHERE status NOT IN ($1, $2, $3)`

	var count int
	err := r.db.QueryRow(query,
		models.OrderStatusFilled, models.OrderStatusCancelled, models.OrderStatusFailed,
	).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// UpdateStatus обновляет статус ордера.
// Валидность перехода проверяет state machine в engine,
// репозиторий только фиксирует результат с отметкой времени.
func (r *OrderRepository) UpdateStatus(id, status, errorMessage string) error {
	query := `
		UPDATE orders
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4`

	result, err := r.db.Exec(query, status, errorMessage, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// UpdateFill фиксирует прогресс исполнения ордера
func (r *OrderRepository) UpdateFill(id string, filledSize float64, status string, filledAt *time.Time) error {
	query := `
		UPDATE orders
		SET filled_size = $1, status = $2, filled_at = $3, updated_at = $4
		WHERE id = $5`

	result, err := r.db.Exec(query, filledSize, status, filledAt, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// SetVenueOrderID записывает ID ордера на площадке
func (r *OrderRepository) SetVenueOrderID(id, venueOrderID string) error {
	query := `UPDATE orders SET venue_order_id = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, venueOrderID, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Count возвращает общее количество ордеров
func (r *OrderRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteOlderThan удаляет терминальные ордера старше указанной даты
func (r *OrderRepository) DeleteOlderThan(timestamp time.Time) (int64, error) {
	query := `
		DELETE FROM orders
		WHERE created_at < $1 AND status IN ($2, $3, $4)`

	result, err := r.db.Exec(query, timestamp,
		models.OrderStatusFilled, models.OrderStatusCancelled, models.OrderStatusFailed)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
