package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jopotochny/wololo-bot/internal/model"
)

// UserRepository handles CRUD for registered users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Get returns the user with the given Discord id. A missing row surfaces
// as gorm.ErrRecordNotFound so callers can treat it as a normal outcome.
func (r *UserRepository) Get(ctx context.Context, discordID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("discord_id = ?", discordID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, discordID int64) (*model.User, error) {
	user := model.User{
		DiscordID: discordID,
		CreatedAt: time.Now().Unix(),
	}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user %d: %w", discordID, err)
	}
	return &user, nil
}

// GetOrCreate registers the user if needed. A create that loses a race to
// a concurrent registration falls back to re-fetching the existing row.
func (r *UserRepository) GetOrCreate(ctx context.Context, discordID int64) (*model.User, error) {
	user, err := r.Get(ctx, discordID)
	switch {
	case err == nil:
		return user, nil
	case err == gorm.ErrRecordNotFound:
		user, err = r.Create(ctx, discordID)
		if err != nil {
			return r.Get(ctx, discordID)
		}
		return user, nil
	default:
		return nil, fmt.Errorf("find user %d: %w", discordID, err)
	}
}
