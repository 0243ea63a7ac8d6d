package bot

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/jopotochny/wololo-bot/internal/config"
	"github.com/jopotochny/wololo-bot/internal/repository"
	"github.com/jopotochny/wololo-bot/internal/service"
)

// Bot wires the Discord session to the command router and the reaction
// relay. discordgo invokes handlers on its own goroutines; handlers share
// no in-process state and coordinate only through the database.
type Bot struct {
	session *discordgo.Session
	gateway *discordGateway
	router  *Router
	relay   *service.RelayService
}

func New(token string, users *repository.UserRepository, admins *repository.AdminRepository, pings *repository.PingRepository, children *repository.CorrelationRepository, cfg *config.Config) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuildMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentDirectMessageReactions

	gateway := newDiscordGateway(session)
	notify := service.NewNotifyService(pings, children, gateway, cfg.NotifyCooldown)
	relay := service.NewRelayService(children, gateway)
	router := NewRouter(users, admins, pings, notify, gateway)

	b := &Bot{
		session: session,
		gateway: gateway,
		router:  router,
		relay:   relay,
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onReactionAdd)
	return b, nil
}

// Start opens the gateway connection and blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	log.Println("[info] listening for discord events")
	<-ctx.Done()
	if err := b.session.Close(); err != nil {
		log.Printf("close discord session: %v", err)
	}
	return ctx.Err()
}

func (b *Bot) onReady(_ *discordgo.Session, ready *discordgo.Ready) {
	log.Printf("[info] %s is connected", ready.User.Username)
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, event *discordgo.MessageCreate) {
	ctx := context.Background()

	msg, err := b.inboundMessage(ctx, event)
	if err != nil {
		log.Printf("decode inbound message: %v", err)
		return
	}
	if err := b.router.HandleMessage(ctx, msg); err != nil {
		log.Printf("handle message %d: %v", msg.ID, err)
	}
}

func (b *Bot) onReactionAdd(_ *discordgo.Session, event *discordgo.MessageReactionAdd) {
	ctx := context.Background()

	messageID, err := parseID(event.MessageID)
	if err != nil {
		log.Printf("decode reaction event: %v", err)
		return
	}
	channelID, err := parseID(event.ChannelID)
	if err != nil {
		log.Printf("decode reaction event: %v", err)
		return
	}
	userID, err := parseID(event.UserID)
	if err != nil {
		log.Printf("decode reaction event: %v", err)
		return
	}

	ev := service.ReactionEvent{
		MessageID: messageID,
		ChannelID: channelID,
		UserID:    userID,
		Emoji:     event.Emoji.MessageFormat(),
	}
	if err := b.relay.HandleReaction(ctx, ev); err != nil {
		log.Printf("handle reaction on message %d: %v", messageID, err)
	}
}

// inboundMessage converts a discordgo event into the router's transport-
// free message type.
func (b *Bot) inboundMessage(ctx context.Context, event *discordgo.MessageCreate) (Message, error) {
	id, err := parseID(event.ID)
	if err != nil {
		return Message{}, err
	}
	channelID, err := parseID(event.ChannelID)
	if err != nil {
		return Message{}, err
	}
	authorID, err := parseID(event.Author.ID)
	if err != nil {
		return Message{}, err
	}

	channelName, err := b.gateway.ChannelName(ctx, channelID)
	if err != nil {
		log.Printf("resolve channel %d name: %v", channelID, err)
		channelName = event.ChannelID
	}

	mentions := make([]Mention, 0, len(event.Mentions))
	for _, user := range event.Mentions {
		mentionID, err := parseID(user.ID)
		if err != nil {
			log.Printf("decode mention in message %d: %v", id, err)
			continue
		}
		mentions = append(mentions, Mention{ID: mentionID, Name: user.Username})
	}

	return Message{
		ID:          id,
		ChannelID:   channelID,
		ChannelName: channelName,
		AuthorID:    authorID,
		AuthorName:  event.Author.Username,
		Content:     event.Content,
		FromBot:     event.Author.Bot,
		Mentions:    mentions,
	}, nil
}
