package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/reelbridge/reelbridge/internal/errors"
	"github.com/reelbridge/reelbridge/internal/middleware"
	"github.com/reelbridge/reelbridge/internal/sentry"
	"github.com/reelbridge/reelbridge/internal/services/converter"
)

// maxBodyBytes bounds the JSON request body.
const maxBodyBytes = 64 << 10

// StrategyHeader names the extraction strategy that produced the audio.
const StrategyHeader = "X-Extraction-Strategy"

type Converter interface {
	Convert(ctx context.Context, req converter.Request) (*converter.Result, error)
}

type Server struct {
	converter Converter
}

func NewServer(conv Converter) *Server {
	return &Server{converter: conv}
}

type DownloadRequest struct {
	URL *string `json:"url"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) HandleDownload(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, r, errors.NewInvalidLinkError("Invalid request body", "INVALID_BODY"))
		return
	}

	if req.URL == nil || *req.URL == "" {
		writeError(w, r, errors.NewInvalidLinkError("URL is required", "URL_REQUIRED"))
		return
	}

	requestID, _ := middleware.GetRequestID(r.Context())
	result, err := s.converter.Convert(r.Context(), converter.Request{
		SourceLink: *req.URL,
		RequestID:  requestID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Audio)))
	w.Header().Set(StrategyHeader, result.Strategy)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Audio); err != nil {
		slog.WarnContext(r.Context(), "Failed to write audio response",
			"request_id", requestID,
			"error", err)
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := errors.FromError(err)
	requestID, _ := middleware.GetRequestID(r.Context())
	attrs := []any{
		"request_id", requestID,
		"status", appErr.StatusCode,
		"error_code", appErr.Code(),
		"retryable", appErr.IsRetryable(),
		"error", appErr.Error(),
	}
	if hint := appErr.RecoverySuggestion(); hint != "" {
		attrs = append(attrs, "recovery", hint)
	}

	if appErr.IsOperational {
		slog.WarnContext(r.Context(), "Request failed", attrs...)
	} else {
		slog.ErrorContext(r.Context(), "Request failed", attrs...)
		sentry.CaptureException(r.Context(), appErr)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: appErr.Detail()})
}
