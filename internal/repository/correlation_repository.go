package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jopotochny/wololo-bot/internal/model"
)

// CorrelationRepository manages parent/child message links for the
// reaction relay.
type CorrelationRepository struct {
	db *gorm.DB
}

func NewCorrelationRepository(db *gorm.DB) *CorrelationRepository {
	return &CorrelationRepository{db: db}
}

func (r *CorrelationRepository) Create(ctx context.Context, parent, parentChannelID, child, childChannelID int64) (*model.MessageCorrelation, error) {
	corr := model.MessageCorrelation{
		Parent:          parent,
		Child:           child,
		ParentChannelID: parentChannelID,
		ChildChannelID:  childChannelID,
		CreatedAt:       time.Now().Unix(),
	}
	if err := r.db.WithContext(ctx).Create(&corr).Error; err != nil {
		return nil, fmt.Errorf("create correlation parent %d child %d: %w", parent, child, err)
	}
	return &corr, nil
}

// FindByChild looks up the correlation for a notification DM. A missing
// row means the message was never one of ours (or was already relayed) and
// surfaces as gorm.ErrRecordNotFound.
func (r *CorrelationRepository) FindByChild(ctx context.Context, child int64) (*model.MessageCorrelation, error) {
	var corr model.MessageCorrelation
	if err := r.db.WithContext(ctx).Where("child = ?", child).First(&corr).Error; err != nil {
		return nil, err
	}
	return &corr, nil
}

// DeleteByParentChild removes the correlation and reports whether a row
// existed. Deleting is the sole transition into the relayed state.
func (r *CorrelationRepository) DeleteByParentChild(ctx context.Context, parent, child int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("parent = ? AND child = ?", parent, child).
		Delete(&model.MessageCorrelation{})
	if result.Error != nil {
		return false, fmt.Errorf("delete correlation parent %d child %d: %w", parent, child, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteOlderThan prunes correlations created before the cutoff. Rows can
// outlive their usefulness when the parent message is deleted or a
// reaction never arrives; the retention sweep bounds that leak.
func (r *CorrelationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff.Unix()).
		Delete(&model.MessageCorrelation{})
	if result.Error != nil {
		return 0, fmt.Errorf("prune correlations: %w", result.Error)
	}
	return result.RowsAffected, nil
}
