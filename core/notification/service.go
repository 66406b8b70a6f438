package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/productfruits/academy/core"
	"github.com/productfruits/academy/core/course"
)

type (
	Repository interface {
		InsertNotification(ctx context.Context, n Notification) (Notification, error)
		QueryNotifications(ctx context.Context, userID string) ([]Notification, error)
		MarkNotificationRead(ctx context.Context, userID, id string) error
		MarkAllNotificationsRead(ctx context.Context, userID string) error
		ClearNotifications(ctx context.Context, userID string) error
	}

	Service struct {
		repo Repository
		conf *core.Config
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{repo: repo, conf: conf}
}

// Generate rescans the user's merged course views for time-windowed
// conditions and prepends the resulting notifications, unread, stamped at
// generation time.
//
// Only chapter_available is deduplicated (at most once per course+chapter
// pair, checked against the existing store); upcoming_chapter and
// incomplete_chapter recur on every scan. Known behavior carried from the
// original, not a bug to fix here.
func (svc *Service) Generate(ctx context.Context, userID string, courses []course.Course) error {
	existing, err := svc.repo.QueryNotifications(ctx, userID)
	if err != nil {
		return err
	}

	today := core.Today()
	upcomingCutoff := today.Add(svc.conf.Notification.UpcomingChapterWindow)
	expiryCutoff := today.Add(svc.conf.Notification.ExpiringCertificateWindow)

	var pending []Notification

	for _, crs := range courses {
		// expiring certificate: completed course whose validity window
		// closes within the cutoff but has not closed yet
		if crs.CompletedAt.Valid {
			validityEnd := crs.CompletedAt.Time.AddDate(0, crs.CertificateValidity.Months, 0)
			if validityEnd.After(today) && !validityEnd.After(expiryCutoff) {
				pending = append(pending, Notification{
					Type:       TypeExpiringCertificate,
					Title:      "Certificate Expiring Soon",
					Message:    fmt.Sprintf("Your certificate for %q will expire on %s", crs.Title, validityEnd.Format("Jan 2, 2006")),
					CourseID:   crs.ID,
					CourseName: crs.Title,
					ExpiresAt:  null.TimeFrom(validityEnd),
				})
			}
		}

		if !crs.EnrolledAt.Valid || crs.CompletedAt.Valid || crs.Status != course.StatusActive {
			continue
		}

		for _, ch := range crs.Chapters {
			chDate := core.DateOnly(ch.StartDate.Time)

			switch {
			case chDate.Equal(today):
				if !ch.IsComplete() && !alreadyNotified(existing, TypeChapterAvailable, crs.ID, ch.ID) {
					pending = append(pending, Notification{
						Type:        TypeChapterAvailable,
						Title:       "New Chapter Available",
						Message:     fmt.Sprintf("Chapter %q in %q is now available!", ch.Title, crs.Title),
						CourseID:    crs.ID,
						CourseName:  crs.Title,
						ChapterID:   ch.ID,
						ChapterName: ch.Title,
					})
				}
			case chDate.After(today) && !chDate.After(upcomingCutoff):
				pending = append(pending, Notification{
					Type:        TypeUpcomingChapter,
					Title:       "Upcoming Chapter",
					Message:     fmt.Sprintf("Chapter %q in %q starts on %s", ch.Title, crs.Title, chDate.Format("Jan 2, 2006")),
					CourseID:    crs.ID,
					CourseName:  crs.Title,
					ChapterID:   ch.ID,
					ChapterName: ch.Title,
					ExpiresAt:   null.TimeFrom(chDate),
				})
			case chDate.Before(today) && !ch.IsComplete():
				pending = append(pending, Notification{
					Type:        TypeIncompleteChapter,
					Title:       "Incomplete Chapter",
					Message:     fmt.Sprintf("You have incomplete milestones in %q (%s)", ch.Title, crs.Title),
					CourseID:    crs.ID,
					CourseName:  crs.Title,
					ChapterID:   ch.ID,
					ChapterName: ch.Title,
				})
			}
		}
	}

	now := core.NowFunc().UTC()
	for _, n := range pending {
		n.ID = uuid.New().String()
		n.UserID = userID
		n.Timestamp = now
		n.IsRead = false
		if _, err := svc.repo.InsertNotification(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) Query(ctx context.Context, userID string) ([]Notification, error) {
	return svc.repo.QueryNotifications(ctx, userID)
}

func (svc *Service) MarkRead(ctx context.Context, userID, id string) error {
	return svc.repo.MarkNotificationRead(ctx, userID, id)
}

func (svc *Service) MarkAllRead(ctx context.Context, userID string) error {
	return svc.repo.MarkAllNotificationsRead(ctx, userID)
}

func (svc *Service) ClearAll(ctx context.Context, userID string) error {
	return svc.repo.ClearNotifications(ctx, userID)
}

func alreadyNotified(existing []Notification, typ, courseID, chapterID string) bool {
	for _, n := range existing {
		if n.Type == typ && n.CourseID == courseID && n.ChapterID == chapterID {
			return true
		}
	}
	return false
}
