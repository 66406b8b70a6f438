package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/productfruits/academy/core/enrollment"
)

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

type enrollmentRow struct {
	UserID      string    `db:"user_id"`
	CourseID    string    `db:"course_id"`
	EnrolledAt  time.Time `db:"enrolled_at"`
	CompletedAt null.Time `db:"completed_at"`
	Milestones  []byte    `db:"milestones"`
}

func (repo enrollmentRepository) pack(enr enrollment.Enrollment) enrollmentRow {
	return enrollmentRow{
		UserID:      enr.UserID,
		CourseID:    enr.CourseID,
		EnrolledAt:  enr.EnrolledAt.UTC(),
		CompletedAt: enr.CompletedAt,
		Milestones:  packJSON(enr.Milestones),
	}
}

func (repo enrollmentRepository) unpack(row enrollmentRow) (enrollment.Enrollment, error) {
	enr := enrollment.Enrollment{
		UserID:      row.UserID,
		CourseID:    row.CourseID,
		EnrolledAt:  row.EnrolledAt,
		CompletedAt: row.CompletedAt,
		Milestones:  make(map[string]enrollment.MilestoneProgress),
	}
	if err := unpackJSON(row.Milestones, &enr.Milestones); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "unpacking enrollment milestones")
	}
	return enr, nil
}

func (repo enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	query := `
		INSERT INTO enrollment (user_id, course_id, enrolled_at, completed_at, milestones)
		VALUES (:user_id, :course_id, :enrolled_at, :completed_at, :milestones)`
	if _, err := repo.db.NamedExecContext(ctx, query, repo.pack(enr)); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo enrollmentRepository) GetEnrollment(ctx context.Context, userID, courseID string) (enrollment.Enrollment, error) {
	var row enrollmentRow
	query := `SELECT * FROM enrollment WHERE user_id = $1 AND course_id = $2`
	if err := repo.db.GetContext(ctx, &row, query, userID, courseID); err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.ErrNotEnrolled, "finding enrollment")
	}
	return repo.unpack(row)
}

func (repo enrollmentRepository) QueryEnrollments(ctx context.Context, userID string) ([]enrollment.Enrollment, error) {
	var rows []enrollmentRow
	query := `SELECT * FROM enrollment WHERE user_id = $1 ORDER BY enrolled_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}

	enrollments := make([]enrollment.Enrollment, 0, len(rows))
	for _, row := range rows {
		enr, err := repo.unpack(row)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, enr)
	}
	return enrollments, nil
}

func (repo enrollmentRepository) UpdateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	query := `
		UPDATE enrollment
		SET completed_at = :completed_at,
		    milestones   = :milestones
		WHERE user_id = :user_id AND course_id = :course_id`
	res, err := repo.db.NamedExecContext(ctx, query, repo.pack(enr))
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return enrollment.Enrollment{}, enrollment.ErrNotEnrolled
	}
	return enr, nil
}

func (repo enrollmentRepository) DeleteEnrollment(ctx context.Context, userID, courseID string) error {
	query := `DELETE FROM enrollment WHERE user_id = $1 AND course_id = $2`
	if _, err := repo.db.ExecContext(ctx, query, userID, courseID); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return nil
}
