package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType defines the machine-readable kind of a conversion failure
type ErrorType string

const (
	ErrorTypeInvalidLink      ErrorType = "invalid_link"
	ErrorTypeResolutionFailed ErrorType = "resolution_failed"
	ErrorTypeDownloadTimeout  ErrorType = "download_timeout"
	ErrorTypeDownloadFailed   ErrorType = "download_failed"
	ErrorTypeEngineMissing    ErrorType = "engine_missing"
	ErrorTypeTranscodeFailed  ErrorType = "transcode_failed"
	ErrorTypeInternal         ErrorType = "internal_error"
)

const (
	// MaxCauseLength caps how much of an underlying error is shown to users.
	MaxCauseLength = 100
	// MaxDetailLength caps the whole user-facing error string.
	MaxDetailLength = 200
)

// AppError represents a structured error for the application
type AppError struct {
	Type          ErrorType `json:"type"`
	Message       string    `json:"message"`
	StatusCode    int       `json:"statusCode"`
	ErrorCode     string    `json:"errorCode"`
	IsOperational bool      `json:"isOperational"`
	Recovery      string    `json:"recoverySuggestion,omitempty"`
	// ShowCause appends the truncated underlying error to Detail.
	ShowCause bool  `json:"-"`
	Err       error `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause
func (e *AppError) Unwrap() error {
	return e.Err
}

// Code returns the application-specific error code
func (e *AppError) Code() string {
	return e.ErrorCode
}

// RecoverySuggestion returns the suggestion on how to recover from the error
func (e *AppError) RecoverySuggestion() string {
	return e.Recovery
}

// Detail returns the short human-readable text sent back to clients.
func (e *AppError) Detail() string {
	msg := e.Message
	if e.ShowCause && e.Err != nil {
		msg = fmt.Sprintf("%s: %s", e.Message, Truncate(e.Err.Error(), MaxCauseLength))
	}
	return Truncate(msg, MaxDetailLength)
}

// IsRetryable reports whether resending the same link may succeed.
func (e *AppError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeResolutionFailed, ErrorTypeDownloadTimeout, ErrorTypeDownloadFailed:
		return true
	default:
		return false
	}
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// NewInvalidLinkError creates a new validation error (400)
func NewInvalidLinkError(message string, errorCode string) *AppError {
	return &AppError{
		Type:          ErrorTypeInvalidLink,
		Message:       message,
		StatusCode:    http.StatusBadRequest,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Send a link to an Instagram Reel.",
	}
}

// NewResolutionError creates a new extraction error (404)
func NewResolutionError(err error) *AppError {
	return &AppError{
		Type:          ErrorTypeResolutionFailed,
		Message:       "Could not retrieve video URL. The link might be invalid, private, or the service is temporarily unavailable.",
		StatusCode:    http.StatusNotFound,
		ErrorCode:     "RESOLUTION_FAILED",
		IsOperational: true,
		Recovery:      "Verify the reel is public and try again later.",
		Err:           err,
	}
}

// NewDownloadTimeoutError creates a new download timeout error (500)
func NewDownloadTimeoutError(err error) *AppError {
	return &AppError{
		Type:          ErrorTypeDownloadTimeout,
		Message:       "Video download timed out. The video file might be too large.",
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     "DOWNLOAD_TIMEOUT",
		IsOperational: true,
		Recovery:      "Try again later or with a shorter reel.",
		Err:           err,
	}
}

// NewDownloadError creates a new download error (500)
func NewDownloadError(err error) *AppError {
	return &AppError{
		Type:          ErrorTypeDownloadFailed,
		Message:       "Failed to download video",
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     "DOWNLOAD_FAILED",
		IsOperational: true,
		Recovery:      "Verify the URL is accessible and try again later.",
		ShowCause:     true,
		Err:           err,
	}
}

// NewEngineMissingError creates a new setup error (500) for an absent transcoder
func NewEngineMissingError(err error) *AppError {
	return &AppError{
		Type:          ErrorTypeEngineMissing,
		Message:       "FFmpeg is not installed. Please install FFmpeg from https://ffmpeg.org/download.html",
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     "ENGINE_MISSING",
		IsOperational: false,
		Recovery:      "Install FFmpeg and make sure it is on PATH or set FFMPEG_PATH.",
		Err:           err,
	}
}

// NewTranscodeError creates a new transcode error (500)
func NewTranscodeError(err error) *AppError {
	return &AppError{
		Type:          ErrorTypeTranscodeFailed,
		Message:       "Failed to convert video to MP3.",
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     "TRANSCODE_FAILED",
		IsOperational: true,
		Recovery:      "The downloaded media could not be decoded; try another reel.",
		Err:           err,
	}
}

// NewInternalError creates a new catch-all error (500)
func NewInternalError(err error) *AppError {
	return &AppError{
		Type:          ErrorTypeInternal,
		Message:       "An internal server error occurred",
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     "INTERNAL_ERROR",
		IsOperational: false,
		ShowCause:     true,
		Err:           err,
	}
}

// FromError returns err as an *AppError, classifying unknown errors as internal.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}
