package inmemdb

import (
	"context"

	"github.com/productfruits/academy/core/course"
)

type courseRepository struct {
	db *courseTable
}

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses(_ context.Context) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.table))
	for _, crs := range repo.db.table {
		courses = append(courses, *crs)
	}
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.table[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	// the counter is only ever adjusted through UpdateEnrolledCount
	crs.EnrolledCount = orig.EnrolledCount
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *courseRepository) UpdateEnrolledCount(_ context.Context, id string, delta int) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	crs, ok := repo.db.table[id]
	if !ok {
		return 0, course.ErrNotFound
	}
	crs.EnrolledCount += delta
	if crs.EnrolledCount < 0 {
		crs.EnrolledCount = 0
	}
	return crs.EnrolledCount, nil
}
