// Package apierror описывает ошибки HTTP API и единый формат их ответа.
package apierror

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind классифицирует ошибку API
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindTooManyRequests
	KindMethodNotAllowed
)

// Status возвращает HTTP статус для вида ошибки
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindTooManyRequests:
		return "too_many_requests"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "internal"
	}
}

// Error ошибка, которую можно отдать клиенту.
// Message показывается клиенту как есть, cause хранит исходную ошибку со стеком.
type Error struct {
	cause   error
	Message string
	Kind    Kind
}

// Error implements error
func (e *Error) Error() string {
	if e.cause != nil && e.cause.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap возвращает исходную ошибку
func (e *Error) Unwrap() error {
	return e.cause
}

// Status возвращает HTTP статус ошибки
func (e *Error) Status() int {
	return e.Kind.Status()
}

// Stack возвращает стек вызовов места, где ошибка была создана
func (e *Error) Stack() string {
	if e.cause == nil {
		return ""
	}
	return fmt.Sprintf("%+v", e.cause)
}

func newError(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		cause:   errors.New(message),
	}
}

// Validation 400: некорректный ввод
func Validation(message string) *Error {
	return newError(KindValidation, message)
}

// Validationf 400 с форматированием
func Validationf(format string, args ...any) *Error {
	return newError(KindValidation, fmt.Sprintf(format, args...))
}

// Authentication 401: нет или неверные учетные данные
func Authentication(message string) *Error {
	return newError(KindAuthentication, message)
}

// Authorization 403: учетные данные есть, но недействительны для операции
func Authorization(message string) *Error {
	return newError(KindAuthorization, message)
}

// NotFound 404
func NotFound(message string) *Error {
	return newError(KindNotFound, message)
}

// TooManyRequests 429
func TooManyRequests(message string) *Error {
	return newError(KindTooManyRequests, message)
}

// MethodNotAllowed 405
func MethodNotAllowed(message string) *Error {
	return newError(KindMethodNotAllowed, message)
}

// Internal 500: клиент видит только общее сообщение, причина уходит в лог
func Internal(err error) *Error {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &Error{
		Kind:    KindInternal,
		Message: http.StatusText(http.StatusInternalServerError),
		cause:   errors.WithStack(err),
	}
}

// From приводит любую ошибку к *Error. Неизвестные ошибки становятся Internal.
func From(err error) *Error {
	var apiErr *Error
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return Internal(err)
}

// IsKind проверяет вид ошибки в цепочке
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}
