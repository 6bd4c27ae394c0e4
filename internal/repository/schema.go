package repository

import "database/sql"

// schema.go - логическая схема хранилища ядра
//
// Таблицы:
// - risk_state: singleton-строка (id=1) с версией для compare-and-set
// - orders: ордера, индекс по idempotency_key
// - fills: исполнения, внешний ключ на orders
// - idempotency_keys: принятые ключи операций с TTL
// - audit_log: журнал админ-команд (атрибуция actor_id)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS risk_state (
	id               INT PRIMARY KEY,
	trading_enabled  BOOLEAN NOT NULL,
	paper_mode       BOOLEAN NOT NULL,
	daily_pnl        DOUBLE PRECISION NOT NULL DEFAULT 0,
	open_positions   INT NOT NULL DEFAULT 0,
	version          BIGINT NOT NULL DEFAULT 0,
	updated_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id               TEXT PRIMARY KEY,
	market_id        TEXT NOT NULL,
	outcome_id       TEXT NOT NULL,
	side             TEXT NOT NULL,
	price            DOUBLE PRECISION NOT NULL,
	size             DOUBLE PRECISION NOT NULL,
	filled_size      DOUBLE PRECISION NOT NULL DEFAULT 0,
	status           TEXT NOT NULL,
	strategy         TEXT NOT NULL,
	idempotency_key  TEXT NOT NULL,
	venue_order_id   TEXT NOT NULL DEFAULT '',
	error_message    TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL,
	filled_at        TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_orders_idempotency_key ON orders (idempotency_key);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status);

CREATE TABLE IF NOT EXISTS fills (
	id         TEXT PRIMARY KEY,
	order_id   TEXT NOT NULL REFERENCES orders (id),
	price      DOUBLE PRECISION NOT NULL,
	size       DOUBLE PRECISION NOT NULL,
	pnl        DOUBLE PRECISION NOT NULL DEFAULT 0,
	timestamp  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fills_order_id ON fills (order_id);

CREATE TABLE IF NOT EXISTS idempotency_keys (
	key         TEXT PRIMARY KEY,
	order_id    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	expires_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_idempotency_expires_at ON idempotency_keys (expires_at);

CREATE TABLE IF NOT EXISTS audit_log (
	id          SERIAL PRIMARY KEY,
	actor_id    TEXT NOT NULL,
	command     TEXT NOT NULL,
	params      JSONB NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL
);
`

// InitSchema создаёт таблицы ядра, если их ещё нет
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schemaSQL)
	return err
}
