package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/reelbridge/reelbridge/internal/httpclient"
	"github.com/reelbridge/reelbridge/internal/logger"
	"github.com/reelbridge/reelbridge/internal/sentry"
)

// NewTelegramAPI connects to the Bot API. An empty endpoint uses the public one.
func NewTelegramAPI(token, endpoint string, debug bool, httpClient *http.Client) (*tgbotapi.BotAPI, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if httpClient == nil {
		httpClient = httpclient.WrapClient(&http.Client{})
	}
	if err := tgbotapi.SetLogger(logger.StdLogger(slog.Default(), slog.LevelDebug)); err != nil {
		return nil, fmt.Errorf("failed to set telegram logger: %w", err)
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = debug
	return api, nil
}

// TelegramTransport sends messages through the Telegram Bot API.
type TelegramTransport struct {
	api *tgbotapi.BotAPI
}

func NewTelegramTransport(api *tgbotapi.BotAPI) *TelegramTransport {
	return &TelegramTransport{api: api}
}

func (t *TelegramTransport) SendText(chatID int64, text string) (int, error) {
	sent, err := t.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (t *TelegramTransport) SendTextWithSuggestion(chatID int64, text, suggestion string) (int, error) {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(suggestion)),
	)
	keyboard.ResizeKeyboard = true

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	sent, err := t.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (t *TelegramTransport) DeleteMessage(chatID int64, messageID int) error {
	_, err := t.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (t *TelegramTransport) SendAudio(chatID int64, data []byte, filename, title string) error {
	audio := tgbotapi.NewAudio(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	audio.Title = title
	_, err := t.api.Send(audio)
	return err
}

// TelegramBot polls for updates and hands each one to the handler in its
// own goroutine.
type TelegramBot struct {
	api     *tgbotapi.BotAPI
	handler *Handler
	wg      sync.WaitGroup
}

func NewTelegramBot(api *tgbotapi.BotAPI, converter Converter) *TelegramBot {
	return &TelegramBot{
		api:     api,
		handler: NewHandler(NewTelegramTransport(api), converter),
	}
}

// Run polls until ctx is cancelled, then waits for in-flight updates.
func (b *TelegramBot) Run(ctx context.Context) error {
	slog.Info("Starting bot", "username", b.api.Self.UserName)

	if err := b.registerCommands(); err != nil {
		// Not critical, the bot still answers /start.
		slog.Warn("Failed to register bot commands", "error", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	// In-flight conversions finish even after shutdown starts.
	workCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			slog.Info("Bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			b.wg.Add(1)
			go b.processUpdate(workCtx, update)
		}
	}
}

func (b *TelegramBot) registerCommands() error {
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Show the welcome message"},
	}
	_, err := b.api.Request(tgbotapi.NewSetMyCommands(commands...))
	return err
}

func (b *TelegramBot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	defer b.wg.Done()
	defer sentry.Recover("bot.update")

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	if msg.IsCommand() {
		if msg.Command() == "start" {
			b.handler.HandleStart(ctx, msg.Chat.ID)
		}
		return
	}

	if msg.Text == "" {
		return
	}
	state := b.handler.HandleText(ctx, msg.Chat.ID, msg.Text)
	slog.Debug("Handled message", "chat_id", msg.Chat.ID, "state", string(state))
}
