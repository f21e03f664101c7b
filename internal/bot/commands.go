package bot

// Command constants for Telegram bot commands.
const (
	CommandStart  = "/start"
	CommandEnd    = "/end"
	CommandCancel = "/cancel"
	CommandHelp   = "/help"
)
