package enrollment

import (
	"context"
	"errors"
	"sync"

	"github.com/productfruits/academy/core"
	"github.com/productfruits/academy/core/activity"
	"github.com/productfruits/academy/core/course"
	"github.com/productfruits/academy/core/user"
)

var (
	// errors
	ErrNotEnrolled       = errors.New("not enrolled in this course")
	ErrAlreadyEnrolled   = errors.New("already enrolled in this course")
	ErrChapterNotFound   = errors.New("chapter not found")
	ErrMilestoneNotFound = errors.New("milestone not found")
	ErrMilestoneDisabled = errors.New("milestone is not enabled")
	ErrChapterNotStarted = errors.New("chapter has not started yet")
	ErrAdminOnly         = errors.New("milestone can only be completed by an admin")
	ErrExamsNotAllowed   = errors.New("user may not take exams")
	ErrWrongAnswers      = errors.New("one or more answers are incorrect")
)

type (
	Repository interface {
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, error)
		QueryEnrollments(ctx context.Context, userID string) ([]Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, userID, courseID string) error
	}

	// Service is the enrollment & progress engine. All mutations of one
	// user's progress on one course are serialized through a per-enrollment
	// lock: the persistence layer has no versioning, and the cascading
	// completion check must always run against post-update state (two tabs
	// completing milestones concurrently must not double-emit chapter or
	// course completions).
	Service struct {
		repo       Repository
		courseRepo course.Repository
		activities *activity.Service

		mu    sync.Mutex
		locks map[string]*sync.Mutex
	}
)

func NewService(repo Repository, courseRepo course.Repository, activities *activity.Service) *Service {
	return &Service{
		repo:       repo,
		courseRepo: courseRepo,
		activities: activities,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (svc *Service) lock(userID, courseID string) func() {
	svc.mu.Lock()
	key := userID + ":" + courseID
	l, ok := svc.locks[key]
	if !ok {
		l = new(sync.Mutex)
		svc.locks[key] = l
	}
	svc.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Enroll creates the user's enrollment record and bumps the course's
// denormalized enrolledCount. Re-enrolling without unenrolling first is
// rejected so the counter cannot drift.
func (svc *Service) Enroll(ctx context.Context, usr user.User, courseID string) (course.Course, error) {
	defer svc.lock(usr.ID, courseID)()

	crs, err := svc.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return course.Course{}, err
	}

	if _, err := svc.repo.GetEnrollment(ctx, usr.ID, courseID); err == nil {
		return course.Course{}, core.NewConflictError(ErrAlreadyEnrolled)
	} else if err != ErrNotEnrolled {
		return course.Course{}, err
	}

	enr := Enrollment{
		UserID:     usr.ID,
		CourseID:   courseID,
		EnrolledAt: core.NowFunc().UTC(),
		Milestones: make(map[string]MilestoneProgress),
	}
	enr, err = svc.repo.CreateEnrollment(ctx, enr)
	if err != nil {
		return course.Course{}, err
	}

	count, err := svc.courseRepo.UpdateEnrolledCount(ctx, courseID, +1)
	if err != nil {
		return course.Course{}, err
	}
	crs.EnrolledCount = count

	if _, err := svc.activities.Log(ctx, activity.Activity{
		UserID:     usr.ID,
		Type:       activity.TypeEnrollment,
		CourseID:   crs.ID,
		CourseName: crs.Title,
	}); err != nil {
		return course.Course{}, err
	}

	return Merge(crs, enr), nil
}

// Unenroll deletes the enrollment record entirely; progress is not
// preserved and re-enrolling starts fresh. The enrolledCount decrement
// floors at zero, and unenrolling when not enrolled touches neither the
// counter nor the activity log.
func (svc *Service) Unenroll(ctx context.Context, usr user.User, courseID string) (course.Course, error) {
	defer svc.lock(usr.ID, courseID)()

	crs, err := svc.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return course.Course{}, err
	}

	if _, err := svc.repo.GetEnrollment(ctx, usr.ID, courseID); err != nil {
		if err == ErrNotEnrolled {
			return crs, nil
		}
		return course.Course{}, err
	}

	if err := svc.repo.DeleteEnrollment(ctx, usr.ID, courseID); err != nil {
		return course.Course{}, err
	}

	count, err := svc.courseRepo.UpdateEnrolledCount(ctx, courseID, -1)
	if err != nil {
		return course.Course{}, err
	}
	crs.EnrolledCount = count

	if _, err := svc.activities.Log(ctx, activity.Activity{
		UserID:     usr.ID,
		Type:       activity.TypeUnenrollment,
		CourseID:   crs.ID,
		CourseName: crs.Title,
	}); err != nil {
		return course.Course{}, err
	}

	return crs, nil
}

// CompleteMilestone marks one milestone complete in the user's progress
// map, then evaluates the cascading completion checks on the post-update
// state, in order: milestone -> chapter -> course. Completing the last
// milestone of the last chapter emits all three activities and stamps the
// enrollment's completedAt exactly once.
//
// Preconditions: the milestone must be enabled; adminOnly milestones
// require the admin role; the chapter must have started, except for admins
// (back-dated admin completion is allowed). Questionary milestones require
// the exams permission and complete only on a perfect answer sheet.
// Completion is monotonic: re-completing is a no-op and emits nothing.
func (svc *Service) CompleteMilestone(ctx context.Context, usr user.User, courseID, chapterID, milestoneID string, answers []int) (course.Course, error) {
	defer svc.lock(usr.ID, courseID)()

	crs, err := svc.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return course.Course{}, err
	}
	ch, ok := crs.FindChapter(chapterID)
	if !ok {
		return course.Course{}, ErrChapterNotFound
	}
	ms, ok := crs.FindMilestone(chapterID, milestoneID)
	if !ok {
		return course.Course{}, ErrMilestoneNotFound
	}

	if ms.AdminOnly && !usr.IsAdmin() {
		return course.Course{}, ErrAdminOnly
	}
	if !ms.Enabled {
		return course.Course{}, ErrMilestoneDisabled
	}
	if !ch.IsAvailable() && !usr.IsAdmin() {
		return course.Course{}, ErrChapterNotStarted
	}
	if ms.IsQuestionary() && !usr.Permissions.CanTakeExams && !usr.IsAdmin() {
		return course.Course{}, ErrExamsNotAllowed
	}
	if ms.IsQuestionary() && !ms.Grade(answers) {
		return course.Course{}, core.NewValidationError(ErrWrongAnswers,
			core.FieldError{Field: "answers", Error: ErrWrongAnswers.Error()})
	}

	enr, err := svc.repo.GetEnrollment(ctx, usr.ID, courseID)
	if err != nil {
		return course.Course{}, err
	}

	if prog, ok := enr.Milestones[milestoneID]; ok && prog.Completed {
		return Merge(crs, enr), nil
	}

	now := core.NowFunc().UTC()
	if enr.Milestones == nil {
		enr.Milestones = make(map[string]MilestoneProgress)
	}
	enr.Milestones[milestoneID] = MilestoneProgress{
		Completed:   true,
		CompletedAt: nullTime(now),
	}

	// evaluate the cascade against the post-update view
	merged := Merge(crs, enr)
	mergedCh, _ := merged.FindChapter(chapterID)
	chapterDone := mergedCh.IsComplete()
	courseDone := chapterDone && merged.IsComplete()

	if courseDone {
		enr.CompletedAt = nullTime(now)
		merged.CompletedAt = enr.CompletedAt
	}

	if _, err := svc.repo.UpdateEnrollment(ctx, enr); err != nil {
		return course.Course{}, err
	}

	if _, err := svc.activities.Log(ctx, activity.Activity{
		UserID:        usr.ID,
		Type:          activity.TypeMilestoneCompletion,
		CourseID:      crs.ID,
		CourseName:    crs.Title,
		ChapterID:     ch.ID,
		ChapterName:   ch.Title,
		MilestoneID:   ms.ID,
		MilestoneName: ms.Title,
	}); err != nil {
		return course.Course{}, err
	}

	if chapterDone {
		if _, err := svc.activities.Log(ctx, activity.Activity{
			UserID:      usr.ID,
			Type:        activity.TypeChapterCompletion,
			CourseID:    crs.ID,
			CourseName:  crs.Title,
			ChapterID:   ch.ID,
			ChapterName: ch.Title,
		}); err != nil {
			return course.Course{}, err
		}
	}

	if courseDone {
		if _, err := svc.activities.Log(ctx, activity.Activity{
			UserID:     usr.ID,
			Type:       activity.TypeCourseCompletion,
			CourseID:   crs.ID,
			CourseName: crs.Title,
		}); err != nil {
			return course.Course{}, err
		}
	}

	return merged, nil
}

// GetUserCourse returns one course merged with the user's enrollment
// fields; unenrolled courses come back as the bare definition.
func (svc *Service) GetUserCourse(ctx context.Context, usr user.User, courseID string) (course.Course, error) {
	crs, err := svc.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return course.Course{}, err
	}
	enr, err := svc.repo.GetEnrollment(ctx, usr.ID, courseID)
	if err != nil {
		if err == ErrNotEnrolled {
			return crs, nil
		}
		return course.Course{}, err
	}
	return Merge(crs, enr), nil
}

// UserCourses returns the course catalog as the user sees it: definitions
// merged with the user's enrollment state. Non-admins only see non-draft
// courses targeted at them; admins see everything.
func (svc *Service) UserCourses(ctx context.Context, usr user.User) ([]course.Course, error) {
	courses, err := svc.courseRepo.QueryAllCourses(ctx)
	if err != nil {
		return nil, err
	}
	enrollments, err := svc.repo.QueryEnrollments(ctx, usr.ID)
	if err != nil {
		return nil, err
	}
	byCourse := make(map[string]Enrollment, len(enrollments))
	for _, enr := range enrollments {
		byCourse[enr.CourseID] = enr
	}

	out := make([]course.Course, 0, len(courses))
	for _, crs := range courses {
		if !usr.IsAdmin() {
			if crs.Status == course.StatusDraft || !crs.IsTargetedAt(usr.ID) {
				continue
			}
		}
		if enr, ok := byCourse[crs.ID]; ok {
			crs = Merge(crs, enr)
		}
		out = append(out, crs)
	}
	return out, nil
}
