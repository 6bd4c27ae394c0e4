package models

import "time"

// Админ-команды, подлежащие аудиту
const (
	AuditSetTrading     = "set_trading_enabled"
	AuditSetPaper       = "set_paper_mode"
	AuditSetRiskParam   = "set_risk_param"
	AuditToggleStrategy = "toggle_strategy"
)

// AuditEntry - запись журнала админ-команд
//
// Каждая команда, меняющая состояние ядра, должна быть атрибутируема:
// кто (ActorID), что (Command) и с какими параметрами (Params).
type AuditEntry struct {
	ID        int               `json:"id" db:"id"`
	ActorID   string            `json:"actor_id" db:"actor_id"`
	Command   string            `json:"command" db:"command"`
	Params    map[string]string `json:"params" db:"params"` // JSON в БД
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}
