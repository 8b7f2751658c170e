package bot

// Transport is the chat platform as seen by the handler.
type Transport interface {
	SendText(chatID int64, text string) (messageID int, err error)
	// SendTextWithSuggestion sends text with a one-tap reply suggestion.
	// Platforms without reply keyboards may send the text alone.
	SendTextWithSuggestion(chatID int64, text, suggestion string) (messageID int, err error)
	DeleteMessage(chatID int64, messageID int) error
	SendAudio(chatID int64, data []byte, filename, title string) error
}
