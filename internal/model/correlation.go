package model

// MessageCorrelation links a notification DM (child) back to the channel
// message that triggered the fan-out (parent). One fan-out produces many
// children; each child id is unique. The row is deleted when the child's
// reaction has been relayed, so its presence means "not yet relayed".
type MessageCorrelation struct {
	Parent          int64 `gorm:"column:parent;index"`
	Child           int64 `gorm:"column:child;primaryKey;autoIncrement:false"`
	ParentChannelID int64 `gorm:"column:parent_channel_id"`
	ChildChannelID  int64 `gorm:"column:child_channel_id"`
	CreatedAt       int64 `gorm:"column:created_at"`
}

func (MessageCorrelation) TableName() string { return "message_children" }
