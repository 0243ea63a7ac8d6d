package model

// Admin marks a user as a bot administrator. Row presence is the sole
// admin predicate.
type Admin struct {
	DiscordID int64 `gorm:"column:discord_user_id;primaryKey;autoIncrement:false"`
}

func (Admin) TableName() string { return "admins" }
