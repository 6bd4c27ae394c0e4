package polymarket

import "fmt"

// TransportError - сетевая ошибка или таймаут при обращении к площадке.
// Повторяемая: retry с backoff имеет смысл.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("polymarket transport error (%s): %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Retryable() bool { return true }

// VenueRejection - площадка явно отклонила ордер.
// Неповторяемая: повторная отправка даст тот же отказ.
type VenueRejection struct {
	Code    string
	Message string
}

func (e *VenueRejection) Error() string {
	return fmt.Sprintf("polymarket rejected order [%s]: %s", e.Code, e.Message)
}

func (e *VenueRejection) Retryable() bool { return false }

// AuthError - ошибка аутентификации API.
// Неповторяемая: требует вмешательства оператора.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("polymarket auth error: %s", e.Message)
}

func (e *AuthError) Retryable() bool { return false }
