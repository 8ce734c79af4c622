package services

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// ErrorKind is the closed set of failures a request can end in.
type ErrorKind int

const (
	KindUnauthenticated ErrorKind = iota + 1
	KindInvalidInput
	KindNotFound
	KindInsufficientFunds
	KindConflict
	KindUpstreamFailure
	KindPersistenceFailure
	KindSignatureInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindConflict:
		return "conflict"
	case KindUpstreamFailure:
		return "upstream_failure"
	case KindPersistenceFailure:
		return "persistence_failure"
	case KindSignatureInvalid:
		return "signature_invalid"
	default:
		return "unknown"
	}
}

// StatusCode maps a kind to its HTTP status.
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindUnauthenticated, KindSignatureInvalid:
		return http.StatusUnauthorized
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientFunds:
		return http.StatusPaymentRequired
	case KindConflict:
		return http.StatusConflict
	case KindUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// internal reports whether the kind is a fault on our side (or the
// provider's) whose detail must stay in the logs.
func (k ErrorKind) internal() bool {
	return k == KindPersistenceFailure || k == KindUpstreamFailure
}

// AppError is a classified failure. Message is safe to show the caller;
// Err holds the underlying cause for the logs.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func wrapError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf classifies err. Unclassified errors are persistence failures.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindPersistenceFailure
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

const genericErrorMessage = "An unexpected server error occurred."

// WriteError is the single point where a failure becomes an HTTP response.
// Internal failures are logged with full detail and answered with a generic
// message only.
func WriteError(w http.ResponseWriter, log *logrus.Entry, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = wrapError(KindPersistenceFailure, genericErrorMessage, err)
	}

	if appErr.Kind.internal() {
		log.WithError(err).WithField("kind", appErr.Kind.String()).Error("request failed")
	} else {
		log.WithField("kind", appErr.Kind.String()).Info(appErr.Message)
	}

	message := appErr.Message
	if message == "" {
		message = genericErrorMessage
	}

	var fieldErrs validator.ValidationErrors
	if appErr.Kind == KindInvalidInput && errors.As(appErr.Err, &fieldErrs) {
		SendErrorResponse(w, message, appErr.Kind.StatusCode(), fieldErrs)
		return
	}
	SendErrorResponse(w, message, appErr.Kind.StatusCode(), nil)
}
