package repository

import (
	"database/sql"
	"time"

	"polybet/internal/models"
)

// FillRepository - работа с таблицей fills
//
// Daily PnL и реализованная позиция считаются ТОЛЬКО по fills -
// создание ордера само по себе не меняет PnL.
type FillRepository struct {
	db *sql.DB
}

// NewFillRepository создает новый экземпляр репозитория
func NewFillRepository(db *sql.DB) *FillRepository {
	return &FillRepository{db: db}
}

// Create создает запись об исполнении
func (r *FillRepository) Create(fill *models.Fill) error {
	query := `
		INSERT INTO fills (id, order_id, price, size, pnl, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if fill.Timestamp.IsZero() {
		fill.Timestamp = time.Now().UTC()
	}

	_, err := r.db.Exec(
		query,
		fill.ID,
		fill.OrderID,
		fill.Price,
		fill.Size,
		fill.Pnl,
		fill.Timestamp,
	)

	return err
}

// GetByOrderID возвращает все исполнения ордера
func (r *FillRepository) GetByOrderID(orderID string) ([]*models.Fill, error) {
	query := `
		SELECT id, order_id, price, size, pnl, timestamp
		FROM fills
		WHERE order_id = $1
		ORDER BY timestamp ASC`

	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fills []*models.Fill
	for rows.Next() {
		fill := &models.Fill{}
		err := rows.Scan(
			&fill.ID,
			&fill.OrderID,
			&fill.Price,
			&fill.Size,
			&fill.Pnl,
			&fill.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		fills = append(fills, fill)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return fills, nil
}

// SumPnlSince возвращает суммарный PnL по fills начиная с указанного
// момента (начало торгового дня для daily_pnl)
func (r *FillRepository) SumPnlSince(since time.Time) (float64, error) {
	query := `SELECT COALESCE(SUM(pnl), 0) FROM fills WHERE timestamp >= $1`

	var sum float64
	err := r.db.QueryRow(query, since).Scan(&sum)
	if err != nil {
		return 0, err
	}

	return sum, nil
}

// DeleteOlderThan удаляет исполнения старше указанной даты
func (r *FillRepository) DeleteOlderThan(timestamp time.Time) (int64, error) {
	query := `DELETE FROM fills WHERE timestamp < $1`

	result, err := r.db.Exec(query, timestamp)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
