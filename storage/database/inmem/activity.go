package inmemdb

import (
	"context"

	"github.com/productfruits/academy/core/activity"
)

type activityRepository struct {
	db *activityTable
}

func NewActivityRepository(db *DB) activity.Repository {
	return &activityRepository{db: db.activity}
}

func (repo *activityRepository) InsertActivity(_ context.Context, act activity.Activity) (activity.Activity, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// newest first
	repo.db.logs[act.UserID] = append([]activity.Activity{act}, repo.db.logs[act.UserID]...)
	return act, nil
}

func (repo *activityRepository) QueryActivities(_ context.Context, userID string) ([]activity.Activity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	log := repo.db.logs[userID]
	out := make([]activity.Activity, len(log))
	copy(out, log)
	return out, nil
}

func (repo *activityRepository) ResetActivities(_ context.Context, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.logs, userID)
	return nil
}
