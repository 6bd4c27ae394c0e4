package engine

import "polybet/internal/models"

// ValidTransitions определяет допустимые переходы статусов ордера
var ValidTransitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusSubmitted, models.OrderStatusFailed, models.OrderStatusUnknown},
	models.OrderStatusSubmitted: {models.OrderStatusOpen, models.OrderStatusPartial, models.OrderStatusFilled, models.OrderStatusCancelled, models.OrderStatusFailed, models.OrderStatusUnknown},
	models.OrderStatusOpen:      {models.OrderStatusPartial, models.OrderStatusFilled, models.OrderStatusCancelled, models.OrderStatusUnknown},
	models.OrderStatusPartial:   {models.OrderStatusFilled, models.OrderStatusCancelled, models.OrderStatusUnknown},
	// Из unknown выводит только reconciliation - по реальному статусу площадки
	models.OrderStatusUnknown: {models.OrderStatusOpen, models.OrderStatusPartial, models.OrderStatusFilled, models.OrderStatusCancelled, models.OrderStatusFailed},
	// Терминальные статусы переходов не имеют
	models.OrderStatusFilled:    {},
	models.OrderStatusCancelled: {},
	models.OrderStatusFailed:    {},
}

// CanTransition проверяет допустимость перехода
func CanTransition(from, to string) bool {
	allowed, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// StatusInfo возвращает описание статуса для UI
func StatusInfo(s string) string {
	switch s {
	case models.OrderStatusPending:
		return "Ордер создан, ожидает отправки"
	case models.OrderStatusSubmitted:
		return "Ордер отправлен площадке"
	case models.OrderStatusOpen:
		return "Ордер подтверждён, ожидает исполнения"
	case models.OrderStatusPartial:
		return "Ордер исполнен частично"
	case models.OrderStatusFilled:
		return "Ордер исполнен полностью"
	case models.OrderStatusCancelled:
		return "Ордер отменён"
	case models.OrderStatusFailed:
		return "Ордер отклонён или не отправлен"
	case models.OrderStatusUnknown:
		return "Исход неизвестен! Ожидает сверки с площадкой"
	default:
		return "Неизвестный статус"
	}
}

// mapVenueStatus переводит статус площадки в статус ордера
func mapVenueStatus(venueStatus string) string {
	switch venueStatus {
	case "open":
		return models.OrderStatusOpen
	case "partial":
		return models.OrderStatusPartial
	case "filled":
		return models.OrderStatusFilled
	case "cancelled":
		return models.OrderStatusCancelled
	case "rejected":
		return models.OrderStatusFailed
	default:
		return models.OrderStatusUnknown
	}
}
