package model

import "time"

// User is a Discord account that has registered with the bot. Registration
// is the precondition for every personalized command.
type User struct {
	DiscordID int64 `gorm:"column:discord_id;primaryKey;autoIncrement:false"`
	CreatedAt int64 `gorm:"column:created_at"`
}

func (User) TableName() string { return "users" }

// CreatedTime converts the stored epoch seconds back to a time.Time.
func (u User) CreatedTime() time.Time {
	return time.Unix(u.CreatedAt, 0).UTC()
}
