package websocket

import (
	"time"

	"polybet/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeSignalBatch - пачка сигналов, собранная за цикл
	// Отправляется после каждого цикла агрегации
	MessageTypeSignalBatch MessageType = "signalBatch"

	// MessageTypeOrderResult - результат прохода сигнала через ядро
	// Отправляется для каждого одобренного риск-движком сигнала
	MessageTypeOrderResult MessageType = "orderResult"

	// MessageTypeRiskState - обновление состояния риска
	// Отправляется после пересчета daily_pnl / open_positions
	MessageTypeRiskState MessageType = "riskState"

	// MessageTypeNotification - служебное уведомление
	// Отправляется при событиях: kill switch, unknown ордера, ошибки
	MessageTypeNotification MessageType = "notification"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// SignalBatchMessage - сообщение с пачкой сигналов цикла
//
// Содержит сигналы всех включенных стратегий и ошибки
// упавших стратегий. Позволяет frontend показывать поток
// решений в реальном времени без polling.
type SignalBatchMessage struct {
	BaseMessage
	Data *models.SignalBatch `json:"data"`
}

// OrderResultMessage - сообщение о результате исполнения сигнала
//
// Содержит исходный сигнал и вердикт ядра:
// submitted / rejected / duplicate / failed / unknown.
type OrderResultMessage struct {
	BaseMessage
	Signal models.Signal           `json:"signal"`
	Result *models.ExecutionResult `json:"result"`
}

// RiskStateMessage - сообщение об обновлении состояния риска
type RiskStateMessage struct {
	BaseMessage
	Data models.RiskState `json:"data"`
}

// NotificationMessage - служебное уведомление
type NotificationMessage struct {
	BaseMessage
	Data *NotificationData `json:"data"`
}

// NotificationData - данные уведомления
type NotificationData struct {
	// Уровень важности (info, warn, error)
	Severity string `json:"severity"`

	// Текст сообщения
	Message string `json:"message"`

	// Дополнительные метаданные (market_id, order_id и т.д.)
	Meta map[string]string `json:"meta,omitempty"`
}

// ============ Фабричные функции для создания сообщений ============

// NewSignalBatchMessage создает сообщение с пачкой сигналов
func NewSignalBatchMessage(batch models.SignalBatch) *SignalBatchMessage {
	return &SignalBatchMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeSignalBatch,
			Timestamp: time.Now(),
		},
		Data: &batch,
	}
}

// NewOrderResultMessage создает сообщение о результате исполнения
func NewOrderResultMessage(signal models.Signal, result *models.ExecutionResult) *OrderResultMessage {
	return &OrderResultMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeOrderResult,
			Timestamp: time.Now(),
		},
		Signal: signal,
		Result: result,
	}
}

// NewRiskStateMessage создает сообщение о состоянии риска
func NewRiskStateMessage(state models.RiskState) *RiskStateMessage {
	return &RiskStateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeRiskState,
			Timestamp: time.Now(),
		},
		Data: state,
	}
}

// NewNotificationMessage создает служебное уведомление
func NewNotificationMessage(severity, message string, meta map[string]string) *NotificationMessage {
	return &NotificationMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeNotification,
			Timestamp: time.Now(),
		},
		Data: &NotificationData{
			Severity: severity,
			Message:  message,
			Meta:     meta,
		},
	}
}
