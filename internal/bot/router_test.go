package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jopotochny/wololo-bot/internal/model"
	"github.com/jopotochny/wololo-bot/internal/repository"
	"github.com/jopotochny/wololo-bot/internal/service"
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

type fakeGateway struct {
	nextMessageID int64
	channelMsgs   []string
	dms           []string
}

func (g *fakeGateway) SendChannelMessage(ctx context.Context, channelID int64, content string) error {
	g.channelMsgs = append(g.channelMsgs, content)
	return nil
}

func (g *fakeGateway) SendDirectMessage(ctx context.Context, userID int64, content string) (service.SentMessage, error) {
	g.nextMessageID++
	g.dms = append(g.dms, content)
	return service.SentMessage{ID: g.nextMessageID, ChannelID: 9000 + userID}, nil
}

func (g *fakeGateway) FetchMessage(ctx context.Context, channelID, messageID int64) error {
	return nil
}

func (g *fakeGateway) ReplyToMessage(ctx context.Context, channelID, messageID int64, content string) error {
	return nil
}

func (g *fakeGateway) ChannelName(ctx context.Context, channelID int64) (string, error) {
	return fmt.Sprintf("channel-%d", channelID), nil
}

func (g *fakeGateway) UserName(ctx context.Context, userID int64) (string, error) {
	return fmt.Sprintf("user-%d", userID), nil
}

type routerFixture struct {
	db       *gorm.DB
	gw       *fakeGateway
	users    *repository.UserRepository
	admins   *repository.AdminRepository
	pings    *repository.PingRepository
	children *repository.CorrelationRepository
	router   *Router
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	db := newTestDB(t)
	gw := &fakeGateway{}
	f := &routerFixture{
		db:       db,
		gw:       gw,
		users:    repository.NewUserRepository(db),
		admins:   repository.NewAdminRepository(db),
		pings:    repository.NewPingRepository(db),
		children: repository.NewCorrelationRepository(db),
	}
	notify := service.NewNotifyService(f.pings, f.children, gw, 2*time.Minute)
	f.router = NewRouter(f.users, f.admins, f.pings, notify, gw)
	return f
}

func (f *routerFixture) message(authorID int64, content string) Message {
	return Message{
		ID:          111,
		ChannelID:   100,
		ChannelName: "dota",
		AuthorID:    authorID,
		AuthorName:  fmt.Sprintf("user-%d", authorID),
		Content:     content,
	}
}

func (f *routerFixture) lastReply(t *testing.T) string {
	t.Helper()
	if len(f.gw.channelMsgs) == 0 {
		t.Fatalf("expected a channel reply")
	}
	return f.gw.channelMsgs[len(f.gw.channelMsgs)-1]
}

func TestRouter_IgnoresNonCommands(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	for _, content := range []string{"hello there", "", "  ", "!unknown-token stuff"} {
		if err := f.router.HandleMessage(ctx, f.message(7, content)); err != nil {
			t.Fatalf("HandleMessage(%q): %v", content, err)
		}
	}
	if len(f.gw.channelMsgs) != 0 {
		t.Fatalf("unrelated traffic must not be answered, got %v", f.gw.channelMsgs)
	}
}

func TestRouter_IgnoresBots(t *testing.T) {
	f := newRouterFixture(t)

	msg := f.message(7, "!register")
	msg.FromBot = true
	if err := f.router.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(f.gw.channelMsgs) != 0 {
		t.Fatalf("bot authors must be ignored")
	}
}

func TestRouter_Help(t *testing.T) {
	f := newRouterFixture(t)

	if err := f.router.HandleMessage(context.Background(), f.message(7, "!help")); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	reply := f.lastReply(t)
	for _, token := range []string{"!register", "!game-notification-on", "!game-notification-off", "!any-gamers", "!admin"} {
		if !strings.Contains(reply, token) {
			t.Fatalf("help text misses %s: %q", token, reply)
		}
	}
}

func TestRouter_RegisterCreatesUser(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	if err := f.router.HandleMessage(ctx, f.message(7, "!register")); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if _, err := f.users.Get(ctx, 7); err != nil {
		t.Fatalf("user 7 must exist after !register: %v", err)
	}
	if !strings.Contains(f.lastReply(t), "registered") {
		t.Fatalf("unexpected reply: %q", f.lastReply(t))
	}

	// Registering again confirms rather than failing.
	if err := f.router.HandleMessage(ctx, f.message(7, "!register")); err != nil {
		t.Fatalf("HandleMessage again: %v", err)
	}
	if !strings.Contains(f.lastReply(t), "registered") {
		t.Fatalf("unexpected reply: %q", f.lastReply(t))
	}
}

func TestRouter_NotificationOnAndOff(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	if err := f.router.HandleMessage(ctx, f.message(7, "!game-notification-on")); err != nil {
		t.Fatalf("notification-on: %v", err)
	}
	if _, err := f.pings.Get(ctx, 7, 100); err != nil {
		t.Fatalf("subscription must exist: %v", err)
	}
	if !strings.Contains(f.lastReply(t), "now signed up") {
		t.Fatalf("unexpected reply: %q", f.lastReply(t))
	}

	if err := f.router.HandleMessage(ctx, f.message(7, "!game-notification-on")); err != nil {
		t.Fatalf("notification-on again: %v", err)
	}
	if !strings.Contains(f.lastReply(t), "already signed up") {
		t.Fatalf("unexpected reply: %q", f.lastReply(t))
	}

	if err := f.router.HandleMessage(ctx, f.message(7, "!game-notification-off")); err != nil {
		t.Fatalf("notification-off: %v", err)
	}
	if !strings.Contains(f.lastReply(t), "been removed") {
		t.Fatalf("unexpected reply: %q", f.lastReply(t))
	}

	if err := f.router.HandleMessage(ctx, f.message(7, "!game-notification-off")); err != nil {
		t.Fatalf("notification-off again: %v", err)
	}
	if !strings.Contains(f.lastReply(t), "aren't signed up") {
		t.Fatalf("unexpected reply: %q", f.lastReply(t))
	}
}

func TestRouter_AnyGamersRequiresRegistration(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	// User 7 registers and subscribes in channel 100.
	if err := f.router.HandleMessage(ctx, f.message(7, "!register")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := f.router.HandleMessage(ctx, f.message(7, "!game-notification-on")); err != nil {
		t.Fatalf("notification-on: %v", err)
	}

	// Unregistered user 8 asks for a fan-out.
	if err := f.router.HandleMessage(ctx, f.message(8, "!any-gamers hello")); err != nil {
		t.Fatalf("any-gamers: %v", err)
	}
	if !strings.Contains(f.lastReply(t), "aren't registered") {
		t.Fatalf("unexpected reply: %q", f.lastReply(t))
	}
	if len(f.gw.dms) != 0 {
		t.Fatalf("no dm may be sent for an unregistered requester")
	}
	var count int64
	if err := f.db.Model(&model.MessageCorrelation{}).Count(&count).Error; err != nil {
		t.Fatalf("count correlations: %v", err)
	}
	if count != 0 {
		t.Fatalf("no correlation may be created, got %d", count)
	}
}

func TestRouter_AnyGamersFansOut(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	for _, userID := range []int64{7, 8} {
		if err := f.router.HandleMessage(ctx, f.message(userID, "!register")); err != nil {
			t.Fatalf("register %d: %v", userID, err)
		}
		if err := f.router.HandleMessage(ctx, f.message(userID, "!game-notification-on")); err != nil {
			t.Fatalf("notification-on %d: %v", userID, err)
		}
	}

	if err := f.router.HandleMessage(ctx, f.message(7, "!any-gamers let's go")); err != nil {
		t.Fatalf("any-gamers: %v", err)
	}
	if len(f.gw.dms) != 1 {
		t.Fatalf("expected 1 dm, got %d", len(f.gw.dms))
	}
	if !strings.Contains(f.gw.dms[0], "They also said this: let's go") {
		t.Fatalf("dm misses trailing text: %q", f.gw.dms[0])
	}
}

func TestRouter_AdminRejectsNonAdmin(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	if err := f.router.HandleMessage(ctx, f.message(7, "!register")); err != nil {
		t.Fatalf("register: %v", err)
	}

	msg := f.message(7, "!admin @someone")
	msg.Mentions = []Mention{{ID: 8, Name: "user-8"}}
	if err := f.router.HandleMessage(ctx, msg); err != nil {
		t.Fatalf("admin: %v", err)
	}
	if !strings.Contains(f.lastReply(t), "not an admin") {
		t.Fatalf("unexpected reply: %q", f.lastReply(t))
	}
	isAdmin, err := f.admins.IsAdmin(ctx, 8)
	if err != nil {
		t.Fatalf("IsAdmin: %v", err)
	}
	if isAdmin {
		t.Fatalf("non-admin caller must not grant admin")
	}
}

func TestRouter_AdminIgnoresUnregisteredCaller(t *testing.T) {
	f := newRouterFixture(t)

	msg := f.message(7, "!admin @someone")
	msg.Mentions = []Mention{{ID: 8, Name: "user-8"}}
	if err := f.router.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("admin: %v", err)
	}
	if len(f.gw.channelMsgs) != 0 {
		t.Fatalf("unregistered caller gets no reply, got %v", f.gw.channelMsgs)
	}
}

func TestRouter_AdminDuplicateMention(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	if err := f.router.HandleMessage(ctx, f.message(7, "!register")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.admins.Add(ctx, 7); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	msg := f.message(7, "!admin @a @a")
	msg.Mentions = []Mention{{ID: 8, Name: "user-8"}, {ID: 8, Name: "user-8"}}
	if err := f.router.HandleMessage(ctx, msg); err != nil {
		t.Fatalf("admin: %v", err)
	}

	var added, already bool
	for _, reply := range f.gw.channelMsgs {
		if strings.Contains(reply, "has been added as an admin") {
			added = true
		}
		if strings.Contains(reply, "is already an admin") {
			already = true
		}
	}
	if !added || !already {
		t.Fatalf("expected one grant and one already-admin report, got %v", f.gw.channelMsgs)
	}

	var count int64
	if err := f.db.Model(&model.Admin{}).Where("discord_user_id = ?", 8).Count(&count).Error; err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if count != 1 {
		t.Fatalf("admins table must hold exactly one row for the target, got %d", count)
	}
}
