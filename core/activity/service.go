package activity

import (
	"context"

	"github.com/google/uuid"

	"github.com/productfruits/academy/core"
)

type (
	// Repository is an append-only log per user: entries are inserted at
	// the head and never mutated or deleted individually; only a full
	// reset exists.
	Repository interface {
		InsertActivity(ctx context.Context, act Activity) (Activity, error)
		QueryActivities(ctx context.Context, userID string) ([]Activity, error)
		ResetActivities(ctx context.Context, userID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Log stamps and appends an activity to the head of the user's log.
func (svc *Service) Log(ctx context.Context, act Activity) (Activity, error) {
	act.ID = uuid.New().String()
	act.Timestamp = core.NowFunc().UTC()
	return svc.repo.InsertActivity(ctx, act)
}

// Query returns the user's activities, newest first.
func (svc *Service) Query(ctx context.Context, userID string) ([]Activity, error) {
	return svc.repo.QueryActivities(ctx, userID)
}

// Reset clears the user's whole log.
func (svc *Service) Reset(ctx context.Context, userID string) error {
	return svc.repo.ResetActivities(ctx, userID)
}
