package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidCoordinate, "invalid coordinate: %s", "junit")

	if err.Code != ErrCodeInvalidCoordinate {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidCoordinate)
	}

	expected := "INVALID_COORDINATE: invalid coordinate: junit"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeNetwork, cause, "fetch pom")

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap() did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if got := err.Error(); got != "NETWORK_ERROR: fetch pom: connection refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeXMLParse, "bad"), ErrCodeXMLParse, true},
		{"different code", New(ErrCodeXMLParse, "bad"), ErrCodeIO, false},
		{"wrapped by fmt", fmt.Errorf("outer: %w", New(ErrCodeIO, "disk")), ErrCodeIO, true},
		{"status error", &StatusError{Status: 500, URL: "u"}, ErrCodeHTTPStatus, true},
		{"wrapped status error", fmt.Errorf("x: %w", &StatusError{Status: 404}), ErrCodeHTTPStatus, true},
		{"plain error", errors.New("plain"), ErrCodeIO, false},
		{"nil error", nil, ErrCodeIO, false},
		{"empty code", errors.New("plain"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(Wrap(ErrCodeCircularDependency, nil, "a -> b -> a")); got != ErrCodeCircularDependency {
		t.Errorf("GetCode() = %v", got)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidInput, "bad input")); got != "bad input" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestStatusError(t *testing.T) {
	err := &StatusError{Status: 404, URL: "https://repo/x.pom"}
	if got := err.Error(); got != "HTTP 404: https://repo/x.pom" {
		t.Errorf("Error() = %q", got)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound(404) = false")
	}
	if !IsNotFound(fmt.Errorf("wrapped: %w", err)) {
		t.Error("IsNotFound(wrapped 404) = false")
	}
	if IsNotFound(&StatusError{Status: 500}) {
		t.Error("IsNotFound(500) = true")
	}
	if !IsNotFound(New(ErrCodeNotFound, "missing")) {
		t.Error("IsNotFound(ErrCodeNotFound) = false")
	}
}
