package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/jopotochny/wololo-bot/internal/repository"
)

// RelayService routes a reaction on a notification DM back to the channel
// message the DM was fanned out from.
type RelayService struct {
	children *repository.CorrelationRepository
	gateway  Gateway
}

func NewRelayService(children *repository.CorrelationRepository, gateway Gateway) *RelayService {
	return &RelayService{children: children, gateway: gateway}
}

// HandleReaction relays at most one reaction per notification DM. The
// correlation row is deleted only after the reply has been posted, so any
// earlier failure leaves the row in place for a later reaction to retry.
// Reactions on messages without a correlation row are ignored.
func (s *RelayService) HandleReaction(ctx context.Context, ev ReactionEvent) error {
	corr, err := s.children.FindByChild(ctx, ev.MessageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find correlation for message %d: %w", ev.MessageID, err)
	}

	log.Printf("[info] reaction on notification dm %d in channel %d", corr.Child, corr.ChildChannelID)

	if err := s.gateway.FetchMessage(ctx, corr.ParentChannelID, corr.Parent); err != nil {
		log.Printf("fetch parent message %d in channel %d: %v", corr.Parent, corr.ParentChannelID, err)
		return nil
	}

	reactorName, err := s.gateway.UserName(ctx, ev.UserID)
	if err != nil {
		log.Printf("resolve reacting user %d: %v", ev.UserID, err)
		return nil
	}

	reply := fmt.Sprintf("@%s: %s", reactorName, ev.Emoji)
	if err := s.gateway.ReplyToMessage(ctx, corr.ParentChannelID, corr.Parent, reply); err != nil {
		log.Printf("reply on parent message %d: %v", corr.Parent, err)
		return nil
	}

	// Don't allow further reactions on this dm to cause replies.
	if _, err := s.children.DeleteByParentChild(ctx, corr.Parent, corr.Child); err != nil {
		log.Printf("delete correlation parent %d child %d: %v", corr.Parent, corr.Child, err)
	}
	return nil
}
