package bot

const (
	WelcomeText       = "Hello! 👋 Send me an Instagram Reel link and I'll convert it to an MP3 file for you. 🎵"
	SuggestionLabel   = "Send Reel URL"
	PromptText        = "Please send the Instagram Reel URL."
	InvalidLinkText   = "Please send a valid Instagram Reel URL."
	ProcessingText    = "Processing your reel... Please wait. ⏳"
	AudioTitle        = "Reel Audio"
	UnknownServerText = "Unknown server error."

	endpointErrorFormat     = "Sorry, something went wrong.\n\nError: %s"
	connectivityErrorFormat = "Could not connect to the processing server. Is it running?\n\nError: %v"
	unexpectedErrorFormat   = "An unexpected error occurred: %v"
)
