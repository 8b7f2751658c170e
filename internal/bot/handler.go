package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/reelbridge/reelbridge/internal/metrics"
	"github.com/reelbridge/reelbridge/internal/sentry"
	"github.com/reelbridge/reelbridge/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// State is where a chat request ended up.
type State string

const (
	StateIdle         State = "idle"
	StateAwaitingLink State = "awaiting_link"
	StateValidating   State = "validating"
	StateProcessing   State = "processing"
	StateDelivered    State = "delivered"
	StateFailed       State = "failed"
)

type Converter interface {
	Convert(ctx context.Context, link string) (*Audio, error)
}

// Handler implements the conversation with a single chat. It keeps no
// per-chat state between messages.
type Handler struct {
	transport Transport
	converter Converter
}

func NewHandler(transport Transport, converter Converter) *Handler {
	return &Handler{
		transport: transport,
		converter: converter,
	}
}

// HandleStart greets the user and offers the suggestion button.
func (h *Handler) HandleStart(ctx context.Context, chatID int64) State {
	if _, err := h.transport.SendTextWithSuggestion(chatID, WelcomeText, SuggestionLabel); err != nil {
		slog.WarnContext(ctx, "Failed to send welcome", "chat_id", chatID, "error", err)
	}
	return StateIdle
}

// HandleText processes one text message and returns the state it ended in.
func (h *Handler) HandleText(ctx context.Context, chatID int64, text string) State {
	state := h.handleText(ctx, chatID, text)
	metrics.ChatRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("state", string(state))))
	return state
}

func (h *Handler) handleText(ctx context.Context, chatID int64, text string) (state State) {
	log := slog.With("chat_id", chatID)

	// A panic still ends in exactly one reply. Registered before the
	// acknowledgement cleanup, so the cleanup runs first.
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			sentry.CaptureException(ctx, err)
			log.ErrorContext(ctx, "Recovered from panic while handling message", "panic", fmt.Sprint(r))
			h.reply(ctx, chatID, fmt.Sprintf(unexpectedErrorFormat, r))
			state = StateFailed
		}
	}()

	if text == SuggestionLabel {
		h.reply(ctx, chatID, PromptText)
		return StateAwaitingLink
	}

	// StateValidating
	if !validation.IsReelLink(text) {
		h.reply(ctx, chatID, InvalidLinkText)
		return StateFailed
	}

	// StateProcessing
	ackID, err := h.transport.SendText(chatID, ProcessingText)
	if err != nil {
		log.WarnContext(ctx, "Failed to send processing notice", "error", err)
	}
	dismiss := sync.OnceFunc(func() {
		if err != nil {
			return
		}
		if delErr := h.transport.DeleteMessage(chatID, ackID); delErr != nil {
			log.WarnContext(ctx, "Failed to delete processing notice", "message_id", ackID, "error", delErr)
		}
	})
	defer dismiss()

	audio, convErr := h.converter.Convert(ctx, text)
	dismiss()

	if convErr != nil {
		log.WarnContext(ctx, "Conversion request failed", "error", convErr)
		h.reply(ctx, chatID, failureText(convErr))
		return StateFailed
	}

	if err := h.transport.SendAudio(chatID, audio.Data, audio.Filename, AudioTitle); err != nil {
		log.ErrorContext(ctx, "Failed to deliver audio", "bytes", len(audio.Data), "error", err)
		h.reply(ctx, chatID, fmt.Sprintf(unexpectedErrorFormat, err))
		return StateFailed
	}

	log.InfoContext(ctx, "Delivered audio", "bytes", len(audio.Data))
	return StateDelivered
}

func failureText(err error) string {
	var endpointErr *EndpointError
	var connErr *ConnectivityError
	switch {
	case errors.As(err, &endpointErr):
		return fmt.Sprintf(endpointErrorFormat, endpointErr.Message)
	case errors.As(err, &connErr):
		return fmt.Sprintf(connectivityErrorFormat, connErr.Err)
	default:
		return fmt.Sprintf(unexpectedErrorFormat, err)
	}
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if _, err := h.transport.SendText(chatID, text); err != nil {
		slog.WarnContext(ctx, "Failed to send reply", "chat_id", chatID, "error", err)
	}
}
