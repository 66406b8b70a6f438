package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/productfruits/academy/core/activity"
)

type activityRepository struct {
	db *sqlx.DB
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(db *sqlx.DB) *activityRepository {
	return &activityRepository{db: db}
}

func (repo activityRepository) InsertActivity(ctx context.Context, act activity.Activity) (activity.Activity, error) {
	query := `
		INSERT INTO activity (id, user_id, type, timestamp, course_id, course_name,
		                      chapter_id, chapter_name, milestone_id, milestone_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.ExecContext(ctx, query,
		act.ID, act.UserID, act.Type, act.Timestamp.UTC(), act.CourseID, act.CourseName,
		act.ChapterID, act.ChapterName, act.MilestoneID, act.MilestoneName)
	if err != nil {
		return activity.Activity{}, errors.Wrap(err, "inserting activity")
	}
	return act, nil
}

func (repo activityRepository) QueryActivities(ctx context.Context, userID string) ([]activity.Activity, error) {
	query := `
		SELECT id, user_id AS "userid", type, timestamp, course_id AS "courseid", course_name AS "coursename",
		       chapter_id AS "chapterid", chapter_name AS "chaptername",
		       milestone_id AS "milestoneid", milestone_name AS "milestonename"
		FROM activity
		WHERE user_id = $1
		ORDER BY seq DESC`
	activities := make([]activity.Activity, 0)
	if err := repo.db.SelectContext(ctx, &activities, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	return activities, nil
}

func (repo activityRepository) ResetActivities(ctx context.Context, userID string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM activity WHERE user_id = $1`, userID); err != nil {
		return errors.Wrap(err, "resetting activities")
	}
	return nil
}
