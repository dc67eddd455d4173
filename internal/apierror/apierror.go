// Package apierror provides standardized error response structures for the API
// and the error taxonomy shared by the contract services.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail   string `json:"detail"`
	Code     Kind   `json:"code,omitempty"`
	Internal string `json:"internal,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// FromError builds the envelope for a classified error. The wrapped cause is
// only exposed when exposeInternal is true (never in production).
func FromError(err error, exposeInternal bool) *APIError {
	var e *Error
	if !errors.As(err, &e) {
		out := &APIError{Detail: "Error interno del servidor", Code: KindTransactionFailure}
		if exposeInternal && err != nil {
			out.Internal = err.Error()
		}
		return out
	}
	out := &APIError{Detail: e.Message, Code: e.Kind}
	if exposeInternal && e.Err != nil {
		out.Internal = e.Err.Error()
	}
	return out
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Code   Kind              `json:"code"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Code: KindValidation, Fields: fields}
}

// Kind is the stable, machine-readable category of a domain error.
type Kind string

const (
	KindContractNotFound          Kind = "CONTRACT_NOT_FOUND"
	KindArtifactNotFound          Kind = "ARTIFACT_NOT_FOUND"
	KindAlreadySigned             Kind = "ALREADY_SIGNED"
	KindIncompleteSignatureData   Kind = "INCOMPLETE_SIGNATURE_DATA"
	KindMalformedServiceReference Kind = "MALFORMED_SERVICE_REFERENCE"
	KindUnsupportedImageFormat    Kind = "UNSUPPORTED_IMAGE_FORMAT"
	KindRenderFailure             Kind = "RENDER_FAILURE"
	KindArtifactWriteFailure      Kind = "ARTIFACT_WRITE_FAILURE"
	KindTransactionFailure        Kind = "TRANSACTION_FAILURE"
	KindValidation                Kind = "VALIDATION"
)

// Error is a classified domain error. Two errors match under errors.Is when
// their kinds are equal, so the sentinels below work as comparison targets.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrContractNotFound          = &Error{Kind: KindContractNotFound, Message: "Contrato no encontrado"}
	ErrArtifactNotFound          = &Error{Kind: KindArtifactNotFound, Message: "PDF del contrato no encontrado"}
	ErrAlreadySigned             = &Error{Kind: KindAlreadySigned, Message: "El contrato ya fue firmado"}
	ErrIncompleteSignatureData   = &Error{Kind: KindIncompleteSignatureData, Message: "Datos de firma incompletos"}
	ErrMalformedServiceReference = &Error{Kind: KindMalformedServiceReference, Message: "Referencia de servicio invalida"}
	ErrUnsupportedImageFormat    = &Error{Kind: KindUnsupportedImageFormat, Message: "Formato de imagen de firma no soportado"}
	ErrRenderFailure             = &Error{Kind: KindRenderFailure, Message: "No se pudo generar el PDF del contrato"}
	ErrArtifactWriteFailure      = &Error{Kind: KindArtifactWriteFailure, Message: "No se pudo guardar el PDF del contrato"}
	ErrTransactionFailure        = &Error{Kind: KindTransactionFailure, Message: "No se pudo completar la operacion"}
)

// Wrap returns a new error of the given kind carrying cause. The kind's
// default message is used when msg is empty.
func Wrap(kind Kind, msg string, cause error) *Error {
	if msg == "" {
		msg = defaultMessage(kind)
	}
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// KindOf reports the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func defaultMessage(kind Kind) string {
	for _, s := range []*Error{
		ErrContractNotFound, ErrArtifactNotFound, ErrAlreadySigned,
		ErrIncompleteSignatureData, ErrMalformedServiceReference,
		ErrUnsupportedImageFormat, ErrRenderFailure, ErrArtifactWriteFailure,
		ErrTransactionFailure,
	} {
		if s.Kind == kind {
			return s.Message
		}
	}
	return string(kind)
}

// HTTPStatus maps an error kind to its response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindContractNotFound, KindArtifactNotFound:
		return http.StatusNotFound
	case KindAlreadySigned:
		return http.StatusConflict
	case KindIncompleteSignatureData, KindUnsupportedImageFormat, KindValidation:
		return http.StatusUnprocessableEntity
	case KindMalformedServiceReference:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
