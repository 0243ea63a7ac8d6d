package service

import (
	"context"
	"log"
	"time"

	"github.com/jopotochny/wololo-bot/internal/repository"
)

// RetentionService prunes correlation rows whose reaction never arrived,
// or whose parent message is long gone.
type RetentionService struct {
	children *repository.CorrelationRepository
	ttl      time.Duration
}

func NewRetentionService(children *repository.CorrelationRepository, ttl time.Duration) *RetentionService {
	return &RetentionService{children: children, ttl: ttl}
}

// Sweep deletes correlations older than the configured TTL.
func (s *RetentionService) Sweep(ctx context.Context, now time.Time) (int64, error) {
	removed, err := s.children.DeleteOlderThan(ctx, now.Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Printf("[info] retention sweep removed %d correlation rows", removed)
	}
	return removed, nil
}
