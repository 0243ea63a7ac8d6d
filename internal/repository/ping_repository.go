package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jopotochny/wololo-bot/internal/model"
)

// PingRepository handles CRUD for per-channel notification subscriptions.
type PingRepository struct {
	db *gorm.DB
}

func NewPingRepository(db *gorm.DB) *PingRepository {
	return &PingRepository{db: db}
}

func (r *PingRepository) Get(ctx context.Context, userID, channelID int64) (*model.Ping, error) {
	var ping model.Ping
	if err := r.db.WithContext(ctx).
		Where("discord_user_id = ? AND discord_channel_id = ?", userID, channelID).
		First(&ping).Error; err != nil {
		return nil, err
	}
	return &ping, nil
}

// ListChannelExcluding returns every subscription in the channel except the
// given user's own. Order is not significant.
func (r *PingRepository) ListChannelExcluding(ctx context.Context, userID, channelID int64) ([]model.Ping, error) {
	var pings []model.Ping
	if err := r.db.WithContext(ctx).
		Where("discord_user_id != ? AND discord_channel_id = ?", userID, channelID).
		Find(&pings).Error; err != nil {
		return nil, fmt.Errorf("list pings for channel %d: %w", channelID, err)
	}
	return pings, nil
}

func (r *PingRepository) Create(ctx context.Context, userID, channelID int64) (*model.Ping, error) {
	ping := model.Ping{
		UserDiscordID:    userID,
		ChannelDiscordID: channelID,
		CreatedAt:        time.Now().Unix(),
	}
	if err := r.db.WithContext(ctx).Create(&ping).Error; err != nil {
		return nil, fmt.Errorf("create ping for user %d channel %d: %w", userID, channelID, err)
	}
	return &ping, nil
}

// Delete removes the subscription and reports whether a row existed.
func (r *PingRepository) Delete(ctx context.Context, userID, channelID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("discord_user_id = ? AND discord_channel_id = ?", userID, channelID).
		Delete(&model.Ping{})
	if result.Error != nil {
		return false, fmt.Errorf("delete ping for user %d channel %d: %w", userID, channelID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkNotified stamps last_notified for the subscription. The owning user
// row is re-checked inside the same transaction so a subscription whose
// user vanished mid-operation is never stamped.
func (r *PingRepository) MarkNotified(ctx context.Context, userID, channelID int64, at time.Time) (*model.Ping, error) {
	stamp := at.Unix()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Where("discord_id = ?", userID).First(&user).Error; err != nil {
			return fmt.Errorf("verify user %d: %w", userID, err)
		}
		if err := tx.Model(&model.Ping{}).
			Where("discord_user_id = ? AND discord_channel_id = ?", userID, channelID).
			Update("last_notified", stamp).Error; err != nil {
			return fmt.Errorf("stamp last_notified: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, userID, channelID)
}
