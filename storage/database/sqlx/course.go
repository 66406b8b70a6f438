package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/productfruits/academy/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

type courseRow struct {
	ID                  string    `db:"id"`
	Title               string    `db:"title"`
	Description         string    `db:"description"`
	Status              string    `db:"status"`
	StartDate           time.Time `db:"start_date"`
	EnrolledCount       int       `db:"enrolled_count"`
	Duration            int       `db:"duration"`
	Image               string    `db:"image"`
	Thumbnail           string    `db:"thumbnail"`
	Chapters            []byte    `db:"chapters"`
	CertificateValidity []byte    `db:"certificate_validity"`
	Instructor          []byte    `db:"instructor"`
	TargetUsers         []byte    `db:"target_users"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

func (repo courseRepository) pack(crs course.Course) courseRow {
	return courseRow{
		ID:                  crs.ID,
		Title:               crs.Title,
		Description:         crs.Description,
		Status:              crs.Status,
		StartDate:           crs.StartDate.Time,
		EnrolledCount:       crs.EnrolledCount,
		Duration:            crs.Duration,
		Image:               crs.Image,
		Thumbnail:           crs.Thumbnail,
		Chapters:            packJSON(crs.Chapters),
		CertificateValidity: packJSON(crs.CertificateValidity),
		Instructor:          packJSON(crs.Instructor),
		TargetUsers:         packJSON(crs.TargetUsers),
		CreatedAt:           crs.CreatedAt.UTC(),
		UpdatedAt:           crs.UpdatedAt.UTC(),
	}
}

func (repo courseRepository) unpack(row courseRow) (course.Course, error) {
	crs := course.Course{
		ID:            row.ID,
		Title:         row.Title,
		Description:   row.Description,
		Status:        row.Status,
		StartDate:     course.Date{Time: row.StartDate},
		EnrolledCount: row.EnrolledCount,
		Duration:      row.Duration,
		Image:         row.Image,
		Thumbnail:     row.Thumbnail,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if err := unpackJSON(row.Chapters, &crs.Chapters); err != nil {
		return course.Course{}, errors.Wrap(err, "unpacking course chapters")
	}
	if err := unpackJSON(row.CertificateValidity, &crs.CertificateValidity); err != nil {
		return course.Course{}, errors.Wrap(err, "unpacking certificate validity")
	}
	if err := unpackJSON(row.Instructor, &crs.Instructor); err != nil {
		return course.Course{}, errors.Wrap(err, "unpacking course instructor")
	}
	if err := unpackJSON(row.TargetUsers, &crs.TargetUsers); err != nil {
		return course.Course{}, errors.Wrap(err, "unpacking course target users")
	}
	return crs, nil
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	query := `
		INSERT INTO course (id, title, description, status, start_date, enrolled_count, duration,
		                    image, thumbnail, chapters, certificate_validity, instructor, target_users,
		                    created_at, updated_at)
		VALUES (:id, :title, :description, :status, :start_date, :enrolled_count, :duration,
		        :image, :thumbnail, :chapters, :certificate_validity, :instructor, :target_users,
		        :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, repo.pack(crs)); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM course ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		crs, err := repo.unpack(row)
		if err != nil {
			return nil, err
		}
		courses = append(courses, crs)
	}
	return courses, nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}

	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course by ID")
	}
	return repo.unpack(row)
}

// UpdateCourse rewrites the definition columns; enrolled_count is left alone,
// it is only ever adjusted through UpdateEnrolledCount.
func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	query := `
		UPDATE course
		SET title                = :title,
		    description          = :description,
		    status               = :status,
		    start_date           = :start_date,
		    duration             = :duration,
		    image                = :image,
		    thumbnail            = :thumbnail,
		    chapters             = :chapters,
		    certificate_validity = :certificate_validity,
		    instructor           = :instructor,
		    target_users         = :target_users,
		    updated_at           = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, repo.pack(crs))
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourseByID(ctx, crs.ID)
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (repo courseRepository) UpdateEnrolledCount(ctx context.Context, id string, delta int) (int, error) {
	query := `UPDATE course SET enrolled_count = GREATEST(enrolled_count + $2, 0) WHERE id = $1 RETURNING enrolled_count`
	var count int
	if err := repo.db.QueryRowxContext(ctx, query, id, delta).Scan(&count); err != nil {
		return 0, trapNoRowsErr(err, course.ErrNotFound, "updating enrolled count")
	}
	return count, nil
}
