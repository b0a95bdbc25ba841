package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Сессия и вход
	ErrInvalidSigningMethod = fmt.Errorf("invalid token signing method")
	ErrInvalidToken         = fmt.Errorf("invalid session token")
	ErrTokenExpired         = fmt.Errorf("session token expired")
	ErrInvalidCredentials   = fmt.Errorf("invalid credentials")
	ErrTooManyAttempts      = fmt.Errorf("too many login attempts")
	ErrUnauthorized         = fmt.Errorf("unauthorized")

	// Общие
	ErrNotFound   = fmt.Errorf("record not found")
	ErrConflict   = fmt.Errorf("record already exists")
	ErrValidation = fmt.Errorf("validation error")
	ErrBadRequest = fmt.Errorf("bad request")

	// Жизненный цикл оборудования
	ErrEquipmentRetired = fmt.Errorf("equipment is retired")
)

// HttpError - ошибка, которую контроллер отдаёт клиенту как есть.
// Message уходит пользователю, Err и Context - только в лог.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Context map[string]interface{}
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, context map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Context: context}
}

func NewBadRequestError(message string) *HttpError {
	return &HttpError{Code: http.StatusBadRequest, Message: message, Err: ErrBadRequest}
}

// NewValidationError - ошибка валидации с пользовательским сообщением (flash-уведомление).
func NewValidationError(message string) *HttpError {
	return &HttpError{Code: http.StatusBadRequest, Message: message, Err: ErrValidation}
}

func NewNotFoundError(message string) *HttpError {
	return &HttpError{Code: http.StatusNotFound, Message: message, Err: ErrNotFound}
}

func NewConflictError(message string, cause error) *HttpError {
	if cause == nil {
		cause = ErrConflict
	}
	return &HttpError{Code: http.StatusConflict, Message: message, Err: cause}
}

// NewUnauthorizedError - провал guard'а. В Details кладём путь логина,
// куда клиент должен перейти.
func NewUnauthorizedError(message, loginPath string) *HttpError {
	return &HttpError{
		Code:    http.StatusUnauthorized,
		Message: message,
		Err:     ErrUnauthorized,
		Details: map[string]string{"redirect": loginPath},
	}
}

// StatusCode возвращает HTTP-код для известных sentinel-ошибок.
func StatusCode(err error) int {
	var httpErr *HttpError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrEquipmentRetired):
		return http.StatusConflict
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrTooManyAttempts):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
