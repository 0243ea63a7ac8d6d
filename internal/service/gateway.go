package service

import "context"

// SentMessage identifies a message the gateway delivered.
type SentMessage struct {
	ID        int64
	ChannelID int64
}

// ReactionEvent is a reaction-add notification from the chat platform.
type ReactionEvent struct {
	MessageID int64
	ChannelID int64
	UserID    int64
	Emoji     string
}

// Gateway is the slice of the chat platform the services consume: sending
// messages, probing message existence and resolving display names. The
// Discord-backed implementation lives in internal/bot.
type Gateway interface {
	SendChannelMessage(ctx context.Context, channelID int64, content string) error
	SendDirectMessage(ctx context.Context, userID int64, content string) (SentMessage, error)
	FetchMessage(ctx context.Context, channelID, messageID int64) error
	ReplyToMessage(ctx context.Context, channelID, messageID int64, content string) error
	ChannelName(ctx context.Context, channelID int64) (string, error)
	UserName(ctx context.Context, userID int64) (string, error)
}
