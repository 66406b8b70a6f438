package inmemdb

import (
	"context"

	"github.com/productfruits/academy/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) InsertNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// newest first
	repo.db.stores[n.UserID] = append([]notification.Notification{n}, repo.db.stores[n.UserID]...)
	return n, nil
}

func (repo *notificationRepository) QueryNotifications(_ context.Context, userID string) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	store := repo.db.stores[userID]
	out := make([]notification.Notification, len(store))
	copy(out, store)
	return out, nil
}

func (repo *notificationRepository) MarkNotificationRead(_ context.Context, userID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i := range repo.db.stores[userID] {
		if repo.db.stores[userID][i].ID == id {
			repo.db.stores[userID][i].IsRead = true
			return nil
		}
	}
	return notification.ErrNotFound
}

func (repo *notificationRepository) MarkAllNotificationsRead(_ context.Context, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i := range repo.db.stores[userID] {
		repo.db.stores[userID][i].IsRead = true
	}
	return nil
}

func (repo *notificationRepository) ClearNotifications(_ context.Context, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.stores, userID)
	return nil
}
