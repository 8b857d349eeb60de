package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeUpstream     ErrorCode = "UPSTREAM_ERROR"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError — ошибка уровня приложения с привязкой к HTTP статусу.
// Сырые ошибки внешних сервисов (геокодер, хранилище фото) до клиента
// не доходят: сервисный слой заворачивает их в AppError.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is позволяет сопоставлять обёрнутые копии с сентинелами по коду и сообщению.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code && e.Message == other.Message
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap создаёт AppError поверх исходной ошибки, сохраняя её для логов.
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// WithCause возвращает копию сентинела с приложенной исходной ошибкой.
func (e *AppError) WithCause(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		HTTPStatus: e.HTTPStatus,
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

// Сентинелы таксономии ошибок приложения.
var (
	ErrReportNotFound        = New(ErrCodeNotFound, "заявка не найдена")
	ErrUserNotFound          = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized          = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrNotOwner              = New(ErrCodeUnauthorized, "нет прав на изменение этой заявки")
	ErrInvalidCredentials    = New(ErrCodeUnauthorized, "неверный email или пароль")
	ErrEmailTaken            = New(ErrCodeValidation, "email уже зарегистрирован")
	ErrPhotoRequired         = New(ErrCodeValidation, "фотография обязательна")
	ErrInvalidStatus         = New(ErrCodeValidation, "статус должен быть Missing или Found")
	ErrLocationNotResolvable = New(ErrCodeValidation, "место последней встречи не найдено, укажите более точный адрес")
	ErrGeocodingUnavailable  = New(ErrCodeUpstream, "сервис геокодирования недоступен, попробуйте позже")
	ErrStorageFailure        = New(ErrCodeUpstream, "не удалось сохранить фотографию, попробуйте позже")
)
