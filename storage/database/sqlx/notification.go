package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/productfruits/academy/core/notification"
)

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (repo notificationRepository) InsertNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	query := `
		INSERT INTO notification (id, user_id, type, title, message, timestamp, course_id, course_name,
		                          chapter_id, chapter_name, is_read, action_url, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := repo.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Timestamp.UTC(), n.CourseID, n.CourseName,
		n.ChapterID, n.ChapterName, n.IsRead, n.ActionURL, n.ExpiresAt)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo notificationRepository) QueryNotifications(ctx context.Context, userID string) ([]notification.Notification, error) {
	query := `
		SELECT id, user_id AS "userid", type, title, message, timestamp, course_id AS "courseid",
		       course_name AS "coursename", chapter_id AS "chapterid", chapter_name AS "chaptername",
		       is_read AS "isread", action_url AS "actionurl", expires_at AS "expiresat"
		FROM notification
		WHERE user_id = $1
		ORDER BY seq DESC`
	notifications := make([]notification.Notification, 0)
	if err := repo.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	return notifications, nil
}

func (repo notificationRepository) MarkNotificationRead(ctx context.Context, userID, id string) error {
	query := `UPDATE notification SET is_read = TRUE WHERE user_id = $1 AND id = $2`
	res, err := repo.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (repo notificationRepository) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	if _, err := repo.db.ExecContext(ctx, `UPDATE notification SET is_read = TRUE WHERE user_id = $1`, userID); err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return nil
}

func (repo notificationRepository) ClearNotifications(ctx context.Context, userID string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM notification WHERE user_id = $1`, userID); err != nil {
		return errors.Wrap(err, "clearing notifications")
	}
	return nil
}
