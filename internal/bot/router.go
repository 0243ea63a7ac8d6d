package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/jopotochny/wololo-bot/internal/repository"
	"github.com/jopotochny/wololo-bot/internal/service"
)

// commandPattern splits a message into the leading command token and any
// trailing free text.
var commandPattern = regexp.MustCompile(`^(!\S*)(.*)`)

// Mention is a user named in a message body.
type Mention struct {
	ID   int64
	Name string
}

// Message is an inbound channel message, detached from the transport types
// so the router can be exercised without a live session.
type Message struct {
	ID          int64
	ChannelID   int64
	ChannelName string
	AuthorID    int64
	AuthorName  string
	Content     string
	FromBot     bool
	Mentions    []Mention
}

// Router maps command tokens onto the repositories and services.
type Router struct {
	users   *repository.UserRepository
	admins  *repository.AdminRepository
	pings   *repository.PingRepository
	notify  *service.NotifyService
	gateway service.Gateway
}

func NewRouter(users *repository.UserRepository, admins *repository.AdminRepository, pings *repository.PingRepository, notify *service.NotifyService, gateway service.Gateway) *Router {
	return &Router{users: users, admins: admins, pings: pings, notify: notify, gateway: gateway}
}

// HandleMessage dispatches a single inbound message. Messages from bots
// and messages that don't start with a known command are ignored; channels
// carry plenty of unrelated traffic.
func (r *Router) HandleMessage(ctx context.Context, msg Message) error {
	if msg.FromBot {
		return nil
	}

	matches := commandPattern.FindStringSubmatch(strings.TrimSpace(msg.Content))
	if matches == nil {
		return nil
	}
	command := matches[1]
	rest := strings.TrimSpace(matches[2])

	log.Printf("[info] command %s from user %d in channel %d (%s)", command, msg.AuthorID, msg.ChannelID, msg.ChannelName)

	switch command {
	case service.HelpCommand:
		return r.say(ctx, msg.ChannelID, helpText())
	case service.RegisterCommand:
		return r.handleRegister(ctx, msg)
	case service.NotificationOnCommand:
		return r.handleNotificationOn(ctx, msg)
	case service.NotificationOffCommand:
		return r.handleNotificationOff(ctx, msg)
	case service.AnyGamersCommand:
		return r.handleAnyGamers(ctx, msg, rest)
	case service.AdminCommand:
		return r.handleAdmin(ctx, msg)
	default:
		return nil
	}
}

func (r *Router) handleRegister(ctx context.Context, msg Message) error {
	if _, err := r.users.GetOrCreate(ctx, msg.AuthorID); err != nil {
		log.Printf("register user %d: %v", msg.AuthorID, err)
		return r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s I was unable to register you, try again later.", msg.AuthorName))
	}
	return r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s I have successfully registered you, or you are already registered!", msg.AuthorName))
}

func (r *Router) handleNotificationOn(ctx context.Context, msg Message) error {
	_, err := r.pings.Get(ctx, msg.AuthorID, msg.ChannelID)
	switch {
	case err == nil:
		return r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s You are already signed up for game search notifications in #%s", msg.AuthorName, msg.ChannelName))
	case errors.Is(err, gorm.ErrRecordNotFound):
		if _, err := r.pings.Create(ctx, msg.AuthorID, msg.ChannelID); err != nil {
			log.Printf("subscribe user %d channel %d: %v", msg.AuthorID, msg.ChannelID, err)
			return r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s I was unable to sign you up for game search notifications in #%s", msg.AuthorName, msg.ChannelName))
		}
		return r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s You are now signed up for game search notifications in #%s", msg.AuthorName, msg.ChannelName))
	default:
		log.Printf("look up ping for user %d channel %d: %v", msg.AuthorID, msg.ChannelID, err)
		return r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s I was unable to sign you up for game search notifications in #%s", msg.AuthorName, msg.ChannelName))
	}
}

func (r *Router) handleNotificationOff(ctx context.Context, msg Message) error {
	removed, err := r.pings.Delete(ctx, msg.AuthorID, msg.ChannelID)
	if err != nil {
		log.Printf("unsubscribe user %d channel %d: %v", msg.AuthorID, msg.ChannelID, err)
		return r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s I was unable to remove you from game search notifications in #%s", msg.AuthorName, msg.ChannelName))
	}
	if !removed {
		return r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s You aren't signed up for game search notifications in #%s", msg.AuthorName, msg.ChannelName))
	}
	return r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s You have been removed from game search notifications in #%s", msg.AuthorName, msg.ChannelName))
}

func (r *Router) handleAnyGamers(ctx context.Context, msg Message, extraText string) error {
	if _, err := r.users.Get(ctx, msg.AuthorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s You aren't registered in #%s, you can register using %s", msg.AuthorName, msg.ChannelName, service.RegisterCommand))
		}
		log.Printf("look up user %d: %v", msg.AuthorID, err)
		return r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s Something went wrong, try again later.", msg.AuthorName))
	}

	_, err := r.notify.Fanout(ctx, service.FanoutRequest{
		RequesterID:   msg.AuthorID,
		RequesterName: msg.AuthorName,
		ChannelID:     msg.ChannelID,
		ChannelName:   msg.ChannelName,
		MessageID:     msg.ID,
		ExtraText:     extraText,
	})
	if err != nil {
		log.Printf("fanout for message %d: %v", msg.ID, err)
		return r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s I couldn't send notifications right now, try again later.", msg.AuthorName))
	}
	return nil
}

// handleAdmin grants admin to every mentioned user. The caller must be a
// registered user and already an admin; each target that already has a row
// is reported distinctly from a fresh grant.
func (r *Router) handleAdmin(ctx context.Context, msg Message) error {
	if _, err := r.users.Get(ctx, msg.AuthorID); err != nil {
		return nil
	}

	isAdmin, err := r.admins.IsAdmin(ctx, msg.AuthorID)
	if err != nil {
		log.Printf("check admin %d: %v", msg.AuthorID, err)
		return r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s Something went wrong, try again later.", msg.AuthorName))
	}
	if !isAdmin {
		return r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s You are not an admin.", msg.AuthorName))
	}

	for _, target := range msg.Mentions {
		already, err := r.admins.IsAdmin(ctx, target.ID)
		if err != nil {
			log.Printf("check admin %d: %v", target.ID, err)
			if err := r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s I was unable to add %s as an admin.", msg.AuthorName, target.Name)); err != nil {
				return err
			}
			continue
		}
		if already {
			if err := r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s %s is already an admin.", msg.AuthorName, target.Name)); err != nil {
				return err
			}
			continue
		}
		if _, err := r.admins.Add(ctx, target.ID); err != nil {
			log.Printf("add admin %d: %v", target.ID, err)
			if err := r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s I was unable to add %s as an admin.", msg.AuthorName, target.Name)); err != nil {
				return err
			}
			continue
		}
		if err := r.say(ctx, msg.ChannelID, fmt.Sprintf("@%s %s has been added as an admin.", msg.AuthorName, target.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) say(ctx context.Context, channelID int64, content string) error {
	if err := r.gateway.SendChannelMessage(ctx, channelID, content); err != nil {
		return fmt.Errorf("send message to channel %d: %w", channelID, err)
	}
	return nil
}

func helpText() string {
	return fmt.Sprintf(`Here are my commands:
%s: show this message
%s: add yourself to the list of users I interact with
%s: enable game search notifications in the current channel
%s: disable game search notifications in the current channel
%s: send a dm to all registered users who have enabled game notifications in the current channel
-----------ADMIN ONLY------------
%s: adds all mentioned users as admins. For example, '%s @<some guy>' would add <some guy> as an admin`,
		service.HelpCommand,
		service.RegisterCommand,
		service.NotificationOnCommand,
		service.NotificationOffCommand,
		service.AnyGamersCommand,
		service.AdminCommand,
		service.AdminCommand,
	)
}
