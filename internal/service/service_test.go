package service

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jopotochny/wololo-bot/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	db, err := gorm.Open(dsn, &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Ping{}, &model.Admin{}, &model.MessageCorrelation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type sentDM struct {
	UserID    int64
	MessageID int64
	ChannelID int64
	Content   string
}

type sentReply struct {
	ChannelID int64
	MessageID int64
	Content   string
}

// fakeGateway records outbound traffic and fails on demand.
type fakeGateway struct {
	nextMessageID int64
	dms           []sentDM
	dmErr         map[int64]error
	channelMsgs   []string
	replies       []sentReply
	fetchErr      error
	resolveErr    error
	replyErr      error
	names         map[int64]string
}

func (g *fakeGateway) SendChannelMessage(ctx context.Context, channelID int64, content string) error {
	g.channelMsgs = append(g.channelMsgs, content)
	return nil
}

func (g *fakeGateway) SendDirectMessage(ctx context.Context, userID int64, content string) (SentMessage, error) {
	if err := g.dmErr[userID]; err != nil {
		return SentMessage{}, err
	}
	g.nextMessageID++
	dm := sentDM{
		UserID:    userID,
		MessageID: g.nextMessageID,
		ChannelID: 9000 + userID,
		Content:   content,
	}
	g.dms = append(g.dms, dm)
	return SentMessage{ID: dm.MessageID, ChannelID: dm.ChannelID}, nil
}

func (g *fakeGateway) FetchMessage(ctx context.Context, channelID, messageID int64) error {
	return g.fetchErr
}

func (g *fakeGateway) ReplyToMessage(ctx context.Context, channelID, messageID int64, content string) error {
	if g.replyErr != nil {
		return g.replyErr
	}
	g.replies = append(g.replies, sentReply{ChannelID: channelID, MessageID: messageID, Content: content})
	return nil
}

func (g *fakeGateway) ChannelName(ctx context.Context, channelID int64) (string, error) {
	return fmt.Sprintf("channel-%d", channelID), nil
}

func (g *fakeGateway) UserName(ctx context.Context, userID int64) (string, error) {
	if g.resolveErr != nil {
		return "", g.resolveErr
	}
	if name, ok := g.names[userID]; ok {
		return name, nil
	}
	return fmt.Sprintf("user-%d", userID), nil
}
