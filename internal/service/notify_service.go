package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jopotochny/wololo-bot/internal/model"
	"github.com/jopotochny/wololo-bot/internal/repository"
)

// FanoutRequest describes one notification request: who asked, where, and
// any trailing text they supplied with the command.
type FanoutRequest struct {
	RequesterID   int64
	RequesterName string
	ChannelID     int64
	ChannelName   string
	MessageID     int64
	ExtraText     string
}

// FanoutResult reports how a fan-out went, for logging.
type FanoutResult struct {
	Eligible  int
	Delivered int
}

// NotifyService decides which subscribers are due for a notification and
// delivers one DM to each.
type NotifyService struct {
	pings    *repository.PingRepository
	children *repository.CorrelationRepository
	gateway  Gateway
	cooldown time.Duration
}

func NewNotifyService(pings *repository.PingRepository, children *repository.CorrelationRepository, gateway Gateway, cooldown time.Duration) *NotifyService {
	return &NotifyService{pings: pings, children: children, gateway: gateway, cooldown: cooldown}
}

// Fanout sends a DM to every eligible subscriber in the channel, excluding
// the requester. Each recipient is an independent side effect: a failed
// send is logged and the remaining recipients are still served. After a
// successful send the parent/child correlation is recorded and the
// subscriber's last_notified is stamped; failures of either are logged and
// do not undo the delivery.
func (s *NotifyService) Fanout(ctx context.Context, req FanoutRequest) (FanoutResult, error) {
	pings, err := s.pings.ListChannelExcluding(ctx, req.RequesterID, req.ChannelID)
	if err != nil {
		return FanoutResult{}, fmt.Errorf("fanout in channel %d: %w", req.ChannelID, err)
	}

	now := time.Now()
	content := s.notificationText(req)

	var result FanoutResult
	for _, ping := range pings {
		if !s.eligible(ping, now) {
			continue
		}
		result.Eligible++

		sent, err := s.gateway.SendDirectMessage(ctx, ping.UserDiscordID, content)
		if err != nil {
			log.Printf("send dm to user %d for channel %d: %v", ping.UserDiscordID, req.ChannelID, err)
			continue
		}
		result.Delivered++

		if _, err := s.children.Create(ctx, req.MessageID, req.ChannelID, sent.ID, sent.ChannelID); err != nil {
			// Losing the correlation only degrades reaction relay, not
			// delivery; the cooldown stamp still proceeds.
			log.Printf("save message %d as child of %d: %v", sent.ID, req.MessageID, err)
		}
		if _, err := s.pings.MarkNotified(ctx, ping.UserDiscordID, ping.ChannelDiscordID, time.Now()); err != nil {
			log.Printf("update last_notified for user %d channel %d: %v", ping.UserDiscordID, ping.ChannelDiscordID, err)
		}
	}

	log.Printf("[info] fanout for message %d in channel %d: %d eligible, %d delivered", req.MessageID, req.ChannelID, result.Eligible, result.Delivered)
	return result, nil
}

// eligible applies the cooldown rule: never-notified subscribers are always
// due; otherwise the elapsed time must reach the cooldown, boundary
// inclusive.
func (s *NotifyService) eligible(ping model.Ping, now time.Time) bool {
	if ping.LastNotified == nil {
		return true
	}
	return now.Unix()-*ping.LastNotified >= int64(s.cooldown.Seconds())
}

func (s *NotifyService) notificationText(req FanoutRequest) string {
	var extra string
	if text := strings.TrimSpace(req.ExtraText); text != "" {
		extra = fmt.Sprintf("They also said this: %s", text)
	}
	return fmt.Sprintf(
		"@%s is trying to get a stack for dota in #%s. %s\n\n(You can unsubscribe from notifications in #%s by going there and typing %s. You can also let them know you are joining by reacting to this message.)",
		req.RequesterName, req.ChannelName, extra, req.ChannelName, NotificationOffCommand,
	)
}
