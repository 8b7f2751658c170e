package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := &AppError{
		Message: "something went wrong",
	}
	if err.Error() != "something went wrong" {
		t.Errorf("expected 'something went wrong', got %v", err.Error())
	}

	wrappedErr := errors.New("underlying error")
	errWithWrap := &AppError{
		Message: "failed operation",
		Err:     wrappedErr,
	}
	expected := "failed operation: underlying error"
	if errWithWrap.Error() != expected {
		t.Errorf("expected %q, got %q", expected, errWithWrap.Error())
	}
	if !errors.Is(errWithWrap, wrappedErr) {
		t.Error("expected Unwrap to expose the underlying error")
	}
}

func TestAppError_Code(t *testing.T) {
	err := &AppError{
		ErrorCode: "ERR_CODE_123",
	}
	if err.Code() != "ERR_CODE_123" {
		t.Errorf("expected ERR_CODE_123, got %v", err.Code())
	}
}

func TestAppError_Detail(t *testing.T) {
	t.Run("hides cause by default", func(t *testing.T) {
		err := NewTranscodeError(errors.New("ffmpeg exit status 1"))
		if err.Detail() != "Failed to convert video to MP3." {
			t.Errorf("unexpected detail %q", err.Detail())
		}
	})

	t.Run("truncates long cause", func(t *testing.T) {
		cause := errors.New(strings.Repeat("x", 500))
		err := NewDownloadError(cause)
		want := "Failed to download video: " + strings.Repeat("x", MaxCauseLength)
		if err.Detail() != want {
			t.Errorf("expected %q, got %q", want, err.Detail())
		}
	})

	t.Run("caps whole message", func(t *testing.T) {
		err := &AppError{Message: strings.Repeat("y", 1000)}
		if got := len([]rune(err.Detail())); got != MaxDetailLength {
			t.Errorf("expected %d runes, got %d", MaxDetailLength, got)
		}
	})
}

func TestAppError_IsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want bool
	}{
		{name: "invalid link is not retryable", err: NewInvalidLinkError("Invalid Instagram URL", "INVALID_LINK"), want: false},
		{name: "resolution failure is retryable", err: NewResolutionError(nil), want: true},
		{name: "download timeout is retryable", err: NewDownloadTimeoutError(nil), want: true},
		{name: "missing engine is not retryable", err: NewEngineMissingError(nil), want: false},
		{name: "transcode failure is not retryable", err: NewTranscodeError(nil), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsRetryable(); got != tt.want {
				t.Errorf("AppError.IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err    *AppError
		kind   ErrorType
		status int
	}{
		{NewInvalidLinkError("Invalid Instagram URL", "INVALID_LINK"), ErrorTypeInvalidLink, http.StatusBadRequest},
		{NewResolutionError(nil), ErrorTypeResolutionFailed, http.StatusNotFound},
		{NewDownloadTimeoutError(nil), ErrorTypeDownloadTimeout, http.StatusInternalServerError},
		{NewDownloadError(nil), ErrorTypeDownloadFailed, http.StatusInternalServerError},
		{NewEngineMissingError(nil), ErrorTypeEngineMissing, http.StatusInternalServerError},
		{NewTranscodeError(nil), ErrorTypeTranscodeFailed, http.StatusInternalServerError},
		{NewInternalError(nil), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if tt.err.Type != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, tt.err.Type)
			}
			if tt.err.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, tt.err.StatusCode)
			}
		})
	}
}

func TestEngineMissingMentionsInstall(t *testing.T) {
	err := NewEngineMissingError(errors.New("exec: \"ffmpeg\": executable file not found in $PATH"))
	if !strings.Contains(err.Detail(), "install FFmpeg") {
		t.Errorf("expected install guidance, got %q", err.Detail())
	}
	if err.Detail() == NewTranscodeError(nil).Detail() {
		t.Error("engine missing must differ from generic transcode failure")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil) != nil {
		t.Error("expected nil for nil error")
	}

	appErr := NewResolutionError(nil)
	wrapped := fmt.Errorf("convert: %w", appErr)
	if got := FromError(wrapped); got != appErr {
		t.Errorf("expected wrapped AppError to be returned, got %v", got)
	}

	got := FromError(errors.New("boom"))
	if got.Type != ErrorTypeInternal {
		t.Errorf("expected internal_error, got %s", got.Type)
	}
	if got.Detail() != "An internal server error occurred: boom" {
		t.Errorf("unexpected detail %q", got.Detail())
	}
}

func TestTruncate(t *testing.T) {
	if Truncate("héllo", 2) != "hé" {
		t.Errorf("expected rune-aware truncation, got %q", Truncate("héllo", 2))
	}
	if Truncate("short", 10) != "short" {
		t.Error("expected short strings to be untouched")
	}
}
