package inmemdb

import (
	"context"

	"github.com/productfruits/academy/core/enrollment"
)

type enrollmentRepository struct {
	db *enrollmentTable
}

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db.enrollment}
}

func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[enrollmentKey(enr.UserID, enr.CourseID)] = &enr
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollment(_ context.Context, userID, courseID string) (enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if enr, ok := repo.db.table[enrollmentKey(userID, courseID)]; ok {
		return copyEnrollment(*enr), nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotEnrolled
}

func (repo *enrollmentRepository) QueryEnrollments(_ context.Context, userID string) ([]enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var out []enrollment.Enrollment
	for _, enr := range repo.db.table {
		if enr.UserID == userID {
			out = append(out, copyEnrollment(*enr))
		}
	}
	return out, nil
}

func (repo *enrollmentRepository) UpdateEnrollment(_ context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := enrollmentKey(enr.UserID, enr.CourseID)
	if _, ok := repo.db.table[key]; !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotEnrolled
	}
	repo.db.table[key] = &enr
	return enr, nil
}

func (repo *enrollmentRepository) DeleteEnrollment(_ context.Context, userID, courseID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.table, enrollmentKey(userID, courseID))
	return nil
}

// copyEnrollment guards the stored progress map against aliasing by
// callers that mutate the returned record.
func copyEnrollment(enr enrollment.Enrollment) enrollment.Enrollment {
	milestones := make(map[string]enrollment.MilestoneProgress, len(enr.Milestones))
	for id, prog := range enr.Milestones {
		milestones[id] = prog
	}
	enr.Milestones = milestones
	return enr
}
