package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jopotochny/wololo-bot/internal/model"
)

// AdminRepository manages the admins relation. Row presence is the whole
// admin predicate; rows are never updated or deleted by the bot.
type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) IsAdmin(ctx context.Context, discordID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Admin{}).Where("discord_user_id = ?", discordID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check admin %d: %w", discordID, err)
	}
	return count > 0, nil
}

func (r *AdminRepository) Add(ctx context.Context, discordID int64) (*model.Admin, error) {
	admin := model.Admin{DiscordID: discordID}
	if err := r.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return nil, fmt.Errorf("add admin %d: %w", discordID, err)
	}
	return &admin, nil
}
