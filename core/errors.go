package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	RegistryErrorNotAuthorized        = "NOT_AUTHORIZED"
	RegistryErrorAddressIsNotProvider = "ADDRESS_IS_NOT_PROVIDER"
	RegistryErrorBadInput             = "REGISTRY_BAD_INPUT"
	RegistryErrorAuditUnavailable     = "REGISTRY_AUDIT_UNAVAILABLE"
	RegistryErrorInternal             = "REGISTRY_INTERNAL_ERROR"
)

var (
	ErrNotAuthorized        = errors.New("core: caller is not the governor")
	ErrAddressIsNotProvider = errors.New("core: address is not a transformer")
	ErrProviderNotFound     = errors.New("core: no contract deployed at address")
	ErrAuditNotSupported    = errors.New("core: mapping store does not expose audit events")
)

// ErrProbeFault marks a candidate that failed, panicked or timed out while
// answering an introspection probe. The prober always reports it wrapped in
// ErrAddressIsNotProvider.
var ErrProbeFault = errors.New("core: transformer probe fault")

func registryErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureRegistryErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrNotAuthorized):
		return wrapRegistryError(err, goerrors.CategoryAuthz, RegistryErrorNotAuthorized, http.StatusForbidden)
	case errors.Is(err, ErrAddressIsNotProvider):
		return wrapRegistryError(err, goerrors.CategoryValidation, RegistryErrorAddressIsNotProvider, http.StatusUnprocessableEntity)
	case errors.Is(err, ErrInvalidAddress), errors.Is(err, ErrInvalidInterfaceID):
		return wrapRegistryError(err, goerrors.CategoryBadInput, RegistryErrorBadInput, http.StatusBadRequest)
	case errors.Is(err, ErrAuditNotSupported):
		return wrapRegistryError(err, goerrors.CategoryOperation, RegistryErrorAuditUnavailable, http.StatusNotImplemented)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	if strings.Contains(msg, "required") || strings.Contains(msg, "invalid") {
		return wrapRegistryError(err, goerrors.CategoryBadInput, RegistryErrorBadInput, http.StatusBadRequest)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	if mapped == nil || mapped.Category == goerrors.CategoryInternal {
		return wrapRegistryError(err, goerrors.CategoryInternal, RegistryErrorInternal, http.StatusInternalServerError)
	}
	return ensureRegistryErrorEnvelope(mapped)
}

func wrapRegistryError(err error, category goerrors.Category, textCode string, status int) *goerrors.Error {
	return goerrors.Wrap(err, category, err.Error()).
		WithCode(status).
		WithTextCode(textCode)
}

func ensureRegistryErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = registryHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultRegistryTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultRegistryTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput:
		return RegistryErrorBadInput
	case goerrors.CategoryValidation:
		return RegistryErrorAddressIsNotProvider
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return RegistryErrorNotAuthorized
	default:
		return RegistryErrorInternal
	}
}

func registryHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
