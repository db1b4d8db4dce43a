package bot

// Command constants for Telegram bot commands.
const (
	CommandStart     = "/start"
	CommandHelp      = "/help"
	CommandLang      = "/lang"
	CommandPrimary   = "/primary"
	CommandSecondary = "/secondary"
	CommandSubstr    = "/substr"
	CommandHistory   = "/history"
)
