package course

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/productfruits/academy/core"
)

var (
	// errors
	ErrNotFound    = errors.New("course not found")
	ErrNotInactive = errors.New("only inactive courses can be deleted")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error
		// UpdateEnrolledCount atomically adjusts the denormalized counter,
		// flooring at zero, and returns the new value.
		UpdateEnrolledCount(ctx context.Context, id string, delta int) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a new course. Courses always start as drafts regardless of
// what the caller intended to publish.
func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := core.NowFunc().UTC()
	crs := Course{
		ID:                  uuid.New().String(),
		Title:               nc.Title,
		Description:         nc.Description,
		Status:              StatusDraft,
		StartDate:           nc.StartDate,
		Duration:            nc.Duration,
		Chapters:            assignIdentifiers(nc.Chapters, now),
		CertificateValidity: nc.CertificateValidity,
		Instructor:          nc.Instructor,
		TargetUsers:         nc.TargetUsers,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}

	now := core.NowFunc().UTC()
	if uc.Title != nil {
		crs.Title = core.CleanString(*uc.Title)
	}
	if uc.Description != nil {
		crs.Description = *uc.Description
	}
	if uc.Status != nil {
		crs.Status = *uc.Status
	}
	if uc.StartDate != nil {
		crs.StartDate = *uc.StartDate
	}
	if uc.Duration != nil {
		crs.Duration = *uc.Duration
	}
	if uc.Chapters != nil {
		crs.Chapters = assignIdentifiers(uc.Chapters, now)
	}
	if uc.CertificateValidity != nil {
		crs.CertificateValidity = *uc.CertificateValidity
	}
	if uc.Instructor != nil {
		crs.Instructor = *uc.Instructor
	}
	if uc.TargetUsers != nil {
		crs.TargetUsers = uc.TargetUsers
	}
	crs.UpdatedAt = now
	return svc.repo.UpdateCourse(ctx, crs)
}

// ToggleStatus flips a course between active and inactive; drafts activate.
func (svc *Service) ToggleStatus(ctx context.Context, id string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if crs.Status == StatusActive {
		crs.Status = StatusInactive
	} else {
		crs.Status = StatusActive
	}
	crs.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

// Delete removes a course; only inactive courses may be deleted.
func (svc *Service) Delete(ctx context.Context, id string) error {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return err
	}
	if crs.Status != StatusInactive {
		return ErrNotInactive
	}
	return svc.repo.DeleteCourse(ctx, id)
}

// Clone duplicates a course as a fresh draft (see Course.Clone) and
// persists it.
func (svc *Service) Clone(ctx context.Context, id string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	return svc.repo.CreateCourse(ctx, crs.Clone())
}

// assignIdentifiers fills in missing chapter/milestone/document ids and
// normalizes chapter order to the given sequence.
func assignIdentifiers(chapters []Chapter, now time.Time) []Chapter {
	for i := range chapters {
		ch := &chapters[i]
		if ch.ID == "" {
			ch.ID = uuid.New().String()
		}
		ch.Order = i
		for j := range ch.Milestones {
			if ch.Milestones[j].ID == "" {
				ch.Milestones[j].ID = uuid.New().String()
			}
		}
		for j := range ch.Documents {
			if ch.Documents[j].ID == "" {
				ch.Documents[j].ID = uuid.New().String()
				ch.Documents[j].UploadedAt = now
			}
		}
	}
	return chapters
}
