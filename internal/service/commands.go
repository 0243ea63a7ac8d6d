package service

// Command tokens understood by the bot. They live here because the fan-out
// DM quotes the opt-out command; the router in internal/bot dispatches on
// the same literals.
const (
	HelpCommand            = "!help"
	RegisterCommand        = "!register"
	NotificationOnCommand  = "!game-notification-on"
	NotificationOffCommand = "!game-notification-off"
	AnyGamersCommand       = "!any-gamers"
	AdminCommand           = "!admin"
)
