package core

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestRegistryErrorMapper_AssignsStableCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		textCode string
		status   int
	}{
		{"not authorized", fmt.Errorf("%w: 0xbb", ErrNotAuthorized), RegistryErrorNotAuthorized, http.StatusForbidden},
		{"not provider", &ProbeError{Candidate: testAddress(1), Step: ProbeStepERC165, Reason: "erc165 not supported"}, RegistryErrorAddressIsNotProvider, http.StatusUnprocessableEntity},
		{"bad address", fmt.Errorf("%w: %q", ErrInvalidAddress, "0x12"), RegistryErrorBadInput, http.StatusBadRequest},
		{"audit", ErrAuditNotSupported, RegistryErrorAuditUnavailable, http.StatusNotImplemented},
		{"required", stderrors.New("core: authority is required"), RegistryErrorBadInput, http.StatusBadRequest},
		{"internal", stderrors.New("disk full"), RegistryErrorInternal, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mapped := registryErrorMapper(tc.err)
			if mapped == nil {
				t.Fatalf("expected mapped error")
			}
			if mapped.TextCode != tc.textCode {
				t.Fatalf("expected %s, got %q", tc.textCode, mapped.TextCode)
			}
			if mapped.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, mapped.Code)
			}
		})
	}
}

func TestRegistryErrorMapper_KeepsRichErrors(t *testing.T) {
	rich := goerrors.New("conflict", goerrors.CategoryConflict).WithTextCode("CUSTOM")
	mapped := registryErrorMapper(rich)
	if mapped.TextCode != "CUSTOM" {
		t.Fatalf("expected custom text code preserved, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusConflict {
		t.Fatalf("expected conflict status, got %d", mapped.Code)
	}
}
