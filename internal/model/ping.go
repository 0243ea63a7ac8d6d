package model

import "time"

// Ping is a per-channel game-notification subscription. At most one row
// exists per (user, channel) pair. Timestamps are stored as epoch seconds;
// LastNotified is nil until the first notification is delivered.
type Ping struct {
	UserDiscordID    int64  `gorm:"column:discord_user_id;primaryKey;autoIncrement:false"`
	ChannelDiscordID int64  `gorm:"column:discord_channel_id;primaryKey;autoIncrement:false"`
	CreatedAt        int64  `gorm:"column:created_at"`
	LastNotified     *int64 `gorm:"column:last_notified"`
}

func (Ping) TableName() string { return "ping_list" }

// LastNotifiedTime reports when this subscriber was last notified, if ever.
func (p Ping) LastNotifiedTime() (time.Time, bool) {
	if p.LastNotified == nil {
		return time.Time{}, false
	}
	return time.Unix(*p.LastNotified, 0).UTC(), true
}
