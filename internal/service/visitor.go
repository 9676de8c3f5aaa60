package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Trinaxus/TON.BAND/internal/model"
	"github.com/Trinaxus/TON.BAND/internal/repository"
)

// ActiveWindow is how long a visitor counts as active after the last ping.
const ActiveWindow = 15 * time.Minute

type VisitorService struct {
	visitorRepository repository.VisitorRepository
	now               func() time.Time
}

func NewVisitorService(visitorRepository repository.VisitorRepository) *VisitorService {
	return &VisitorService{
		visitorRepository: visitorRepository,
		now:               time.Now,
	}
}

func (s *VisitorService) Stats(ctx context.Context) (model.VisitorStats, error) {
	return s.visitorRepository.Stats(ctx, s.now().Add(-ActiveWindow))
}

// Track records a ping. A blank session id gets a fresh one, which is
// returned so the client can keep it.
func (s *VisitorService) Track(ctx context.Context, sessionID string) (string, model.VisitorStats, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" || len(sessionID) > 128 {
		sessionID = uuid.NewString()
	}

	now := s.now()
	if _, err := s.visitorRepository.Touch(ctx, sessionID, now); err != nil {
		return "", model.VisitorStats{}, fmt.Errorf("failed to track visitor: %w", err)
	}
	stats, err := s.visitorRepository.Stats(ctx, now.Add(-ActiveWindow))
	if err != nil {
		return "", model.VisitorStats{}, err
	}
	return sessionID, stats, nil
}
