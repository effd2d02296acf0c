package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_NotFound_EmptyID(t *testing.T) {
	err := NotFound("plugin", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
	if err.Details["resource"] != "plugin" {
		t.Errorf("expected resource=plugin, got %v", err.Details["resource"])
	}
}

func TestAppError_Constructors(t *testing.T) {
	cause := stderrors.New("boom")
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{"service unavailable", ServiceUnavailable("cache"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true},
		{"not ready", NotReady("test server"), ErrCodeNotReady, http.StatusServiceUnavailable, true},
		{"timeout", Timeout("read"), ErrCodeTimeout, http.StatusGatewayTimeout, true},
		{"not modified", NotModified("url"), ErrCodeNotModified, http.StatusNotModified, false},
		{"conflict", Conflict("taken"), ErrCodeConflict, http.StatusConflict, false},
		{"invalid input", InvalidInput("id", "empty"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"missing field", MissingField("id"), ErrCodeMissingField, http.StatusBadRequest, false},
		{"payload too large", PayloadTooLarge("example.com", 10), ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge, false},
		{"unauthorized", Unauthorized(""), ErrCodeUnauthorized, http.StatusUnauthorized, false},
		{"forbidden", Forbidden(""), ErrCodeForbidden, http.StatusForbidden, false},
		{"token expired", TokenExpired(), ErrCodeTokenExpired, http.StatusUnauthorized, false},
		{"invalid token", InvalidToken(), ErrCodeInvalidToken, http.StatusUnauthorized, false},
		{"internal", Internal(cause), ErrCodeInternal, http.StatusInternalServerError, false},
		{"external", ExternalServiceError("upstream", cause), ErrCodeExternalService, http.StatusBadGateway, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("status = %d, want %d", tt.err.HTTPStatus, tt.status)
			}
			if tt.err.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", tt.err.Retryable, tt.retryable)
			}
		})
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := Internal(stderrors.New("disk full"))
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
	plain := Conflict("taken")
	if plain.Error() != "CONFLICT: taken" {
		t.Errorf("unexpected message %q", plain.Error())
	}
}

func TestAppError_Unwrap(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	wrapped := fmt.Errorf("outer: %w", Internal(sentinel))
	if !stderrors.Is(wrapped, sentinel) {
		t.Error("expected errors.Is to find the cause")
	}
	appErr, ok := AsAppError(wrapped)
	if !ok || appErr.Code != ErrCodeInternal {
		t.Errorf("AsAppError = %v, %v", appErr, ok)
	}
}

func TestAppError_WithDetailAndCause(t *testing.T) {
	err := NotReady("server").WithDetail("port", 0).WithCause(stderrors.New("x"))
	if err.Details["port"] != 0 || err.Details["component"] != "server" {
		t.Errorf("unexpected details %v", err.Details)
	}
	if err.Cause == nil {
		t.Error("expected cause")
	}
}

func TestToResponse(t *testing.T) {
	resp := NotFound("route", "/x").ToResponse()
	if resp.Error.Code != ErrCodeNotFound || resp.Error.Details["id"] != "/x" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestFromError(t *testing.T) {
	if got := FromError(Forbidden("no")); got.Code != ErrCodeForbidden {
		t.Errorf("FromError kept code %s", got.Code)
	}
	if got := FromError(stderrors.New("plain")); got.Code != ErrCodeInternal {
		t.Errorf("plain error should become internal, got %s", got.Code)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("ctx: %w", NotReady("x"))
	if !HasCode(err, ErrCodeNotReady) {
		t.Error("expected NOT_READY")
	}
	if HasCode(stderrors.New("plain"), ErrCodeNotReady) {
		t.Error("plain error has no code")
	}
	if IsAppError(stderrors.New("plain")) {
		t.Error("plain error is not an AppError")
	}
}
