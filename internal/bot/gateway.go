package bot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/jopotochny/wololo-bot/internal/service"
)

// discordGateway implements service.Gateway over a discordgo session.
// Discord snowflakes travel as strings on the wire; everything above this
// layer works with the numeric form stored in the database.
type discordGateway struct {
	session *discordgo.Session
}

func newDiscordGateway(session *discordgo.Session) *discordGateway {
	return &discordGateway{session: session}
}

func (g *discordGateway) SendChannelMessage(ctx context.Context, channelID int64, content string) error {
	_, err := g.session.ChannelMessageSend(formatID(channelID), content, discordgo.WithContext(ctx))
	return err
}

func (g *discordGateway) SendDirectMessage(ctx context.Context, userID int64, content string) (service.SentMessage, error) {
	dm, err := g.session.UserChannelCreate(formatID(userID), discordgo.WithContext(ctx))
	if err != nil {
		return service.SentMessage{}, fmt.Errorf("open dm channel for user %d: %w", userID, err)
	}
	msg, err := g.session.ChannelMessageSend(dm.ID, content, discordgo.WithContext(ctx))
	if err != nil {
		return service.SentMessage{}, fmt.Errorf("send dm to user %d: %w", userID, err)
	}
	msgID, err := parseID(msg.ID)
	if err != nil {
		return service.SentMessage{}, err
	}
	chID, err := parseID(msg.ChannelID)
	if err != nil {
		return service.SentMessage{}, err
	}
	return service.SentMessage{ID: msgID, ChannelID: chID}, nil
}

func (g *discordGateway) FetchMessage(ctx context.Context, channelID, messageID int64) error {
	_, err := g.session.ChannelMessage(formatID(channelID), formatID(messageID), discordgo.WithContext(ctx))
	return err
}

func (g *discordGateway) ReplyToMessage(ctx context.Context, channelID, messageID int64, content string) error {
	ref := &discordgo.MessageReference{
		MessageID: formatID(messageID),
		ChannelID: formatID(channelID),
	}
	_, err := g.session.ChannelMessageSendReply(formatID(channelID), content, ref, discordgo.WithContext(ctx))
	return err
}

func (g *discordGateway) ChannelName(ctx context.Context, channelID int64) (string, error) {
	id := formatID(channelID)
	if ch, err := g.session.State.Channel(id); err == nil {
		return ch.Name, nil
	}
	ch, err := g.session.Channel(id, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("resolve channel %d: %w", channelID, err)
	}
	return ch.Name, nil
}

func (g *discordGateway) UserName(ctx context.Context, userID int64) (string, error) {
	user, err := g.session.User(formatID(userID), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("resolve user %d: %w", userID, err)
	}
	return user.Username, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse discord id %q: %w", raw, err)
	}
	return id, nil
}
