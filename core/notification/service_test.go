package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/productfruits/academy/core"
	"github.com/productfruits/academy/core/course"
	"github.com/productfruits/academy/core/notification"
	inmemdb "github.com/productfruits/academy/storage/database/inmem"
)

var ctx = context.Background()

func mockNow(t *testing.T, now time.Time) {
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = time.Now })
}

func setup(t *testing.T) *notification.Service {
	conf := &core.Config{
		Notification: core.NotificationConfig{
			UpcomingChapterWindow:     48 * time.Hour,
			ExpiringCertificateWindow: 30 * 24 * time.Hour,
		},
	}
	return notification.NewService(inmemdb.NewNotificationRepository(inmemdb.Open()), conf)
}

// enrolledCourse builds the merged per-user view Generate scans.
func enrolledCourse(chapters ...course.Chapter) course.Course {
	return course.Course{
		ID:         "crs-1",
		Title:      "Onboarding",
		Status:     course.StatusActive,
		Chapters:   chapters,
		EnrolledAt: null.TimeFrom(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
}

func types(t *testing.T, svc *notification.Service, userID string) []string {
	notifs, err := svc.Query(ctx, userID)
	require.NoError(t, err)
	out := make([]string, 0, len(notifs))
	for _, n := range notifs {
		out = append(out, n.Type)
	}
	return out
}

func TestService_Generate_ChapterAvailable(t *testing.T) {
	mockNow(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := setup(t)

	crs := enrolledCourse(course.Chapter{
		ID: "ch-1", Title: "Basics", StartDate: course.NewDate(2026, time.March, 10),
		Milestones: []course.Milestone{{ID: "ms-1", Enabled: true}},
	})

	require.NoError(t, svc.Generate(ctx, "usr-1", []course.Course{crs}))
	assert.Equal(t, []string{notification.TypeChapterAvailable}, types(t, svc, "usr-1"))

	// rescanning must not duplicate the availability notice
	require.NoError(t, svc.Generate(ctx, "usr-1", []course.Course{crs}))
	require.NoError(t, svc.Generate(ctx, "usr-1", []course.Course{crs}))
	assert.Equal(t, []string{notification.TypeChapterAvailable}, types(t, svc, "usr-1"))

	// a chapter already finished on its start day makes no noise
	crs.Chapters[0].Milestones[0].Completed = true
	require.NoError(t, svc.Generate(ctx, "usr-2", []course.Course{crs}))
	assert.Empty(t, types(t, svc, "usr-2"))
}

func TestService_Generate_UpcomingChapter(t *testing.T) {
	mockNow(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := setup(t)

	tests := []struct {
		name  string
		start course.Date
		want  int
	}{
		{"tomorrow", course.NewDate(2026, time.March, 11), 1},
		{"at window edge", course.NewDate(2026, time.March, 12), 1},
		{"past window", course.NewDate(2026, time.March, 13), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crs := enrolledCourse(course.Chapter{
				ID: "ch-1", Title: "Soon", StartDate: tt.start,
				Milestones: []course.Milestone{{ID: "ms-1", Enabled: true}},
			})
			require.NoError(t, svc.Generate(ctx, tt.name, []course.Course{crs}))
			assert.Len(t, types(t, svc, tt.name), tt.want)
		})
	}

	// upcoming notices recur on every scan
	crs := enrolledCourse(course.Chapter{
		ID: "ch-1", Title: "Soon", StartDate: course.NewDate(2026, time.March, 11),
		Milestones: []course.Milestone{{ID: "ms-1", Enabled: true}},
	})
	require.NoError(t, svc.Generate(ctx, "usr-1", []course.Course{crs}))
	require.NoError(t, svc.Generate(ctx, "usr-1", []course.Course{crs}))
	assert.Len(t, types(t, svc, "usr-1"), 2)
}

func TestService_Generate_IncompleteChapter(t *testing.T) {
	mockNow(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := setup(t)

	incomplete := course.Chapter{
		ID: "ch-1", Title: "Behind", StartDate: course.NewDate(2026, time.March, 1),
		Milestones: []course.Milestone{{ID: "ms-1", Enabled: true}},
	}
	done := course.Chapter{
		ID: "ch-2", Title: "Done", StartDate: course.NewDate(2026, time.March, 1),
		Milestones: []course.Milestone{{ID: "ms-2", Enabled: true, Completed: true}},
	}

	crs := enrolledCourse(incomplete, done)
	require.NoError(t, svc.Generate(ctx, "usr-1", []course.Course{crs}))
	assert.Equal(t, []string{notification.TypeIncompleteChapter}, types(t, svc, "usr-1"))

	// nags again on the next scan
	require.NoError(t, svc.Generate(ctx, "usr-1", []course.Course{crs}))
	assert.Len(t, types(t, svc, "usr-1"), 2)
}

func TestService_Generate_ExpiringCertificate(t *testing.T) {
	mockNow(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := setup(t)

	completedAt := func(y int, m time.Month, d int) null.Time {
		return null.TimeFrom(time.Date(y, m, d, 9, 0, 0, 0, time.UTC))
	}

	tests := []struct {
		name        string
		completedAt null.Time
		want        int
	}{
		{"expires within window", completedAt(2025, time.April, 1), 1},
		{"expires far out", completedAt(2025, time.June, 1), 0},
		{"already expired", completedAt(2025, time.March, 1), 0},
		{"never completed", null.Time{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crs := course.Course{
				ID:                  "crs-1",
				Title:               "Onboarding",
				Status:              course.StatusActive,
				CertificateValidity: course.CertificateValidity{Months: 12},
				EnrolledAt:          null.TimeFrom(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)),
				CompletedAt:         tt.completedAt,
			}
			require.NoError(t, svc.Generate(ctx, tt.name, []course.Course{crs}))
			got := types(t, svc, tt.name)
			assert.Len(t, got, tt.want)
			if tt.want > 0 {
				assert.Equal(t, notification.TypeExpiringCertificate, got[0])
			}
		})
	}
}

func TestService_Generate_SkipsNonRelevantCourses(t *testing.T) {
	mockNow(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := setup(t)

	ch := course.Chapter{
		ID: "ch-1", Title: "Basics", StartDate: course.NewDate(2026, time.March, 10),
		Milestones: []course.Milestone{{ID: "ms-1", Enabled: true}},
	}

	notEnrolled := course.Course{ID: "crs-1", Status: course.StatusActive, Chapters: []course.Chapter{ch}}
	inactive := enrolledCourse(ch)
	inactive.ID = "crs-2"
	inactive.Status = course.StatusInactive

	require.NoError(t, svc.Generate(ctx, "usr-1", []course.Course{notEnrolled, inactive}))
	assert.Empty(t, types(t, svc, "usr-1"))
}

func TestService_MarkReadAndClear(t *testing.T) {
	mockNow(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := setup(t)

	crs := enrolledCourse(
		course.Chapter{
			ID: "ch-1", Title: "Basics", StartDate: course.NewDate(2026, time.March, 10),
			Milestones: []course.Milestone{{ID: "ms-1", Enabled: true}},
		},
		course.Chapter{
			ID: "ch-2", Title: "Behind", StartDate: course.NewDate(2026, time.March, 1),
			Milestones: []course.Milestone{{ID: "ms-2", Enabled: true}},
		},
	)
	require.NoError(t, svc.Generate(ctx, "usr-1", []course.Course{crs}))

	notifs, err := svc.Query(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, notifs, 2)
	assert.False(t, notifs[0].IsRead)

	require.NoError(t, svc.MarkRead(ctx, "usr-1", notifs[0].ID))
	notifs, err = svc.Query(ctx, "usr-1")
	require.NoError(t, err)
	assert.True(t, notifs[0].IsRead)
	assert.False(t, notifs[1].IsRead)

	assert.Equal(t, notification.ErrNotFound, svc.MarkRead(ctx, "usr-1", "nope"))

	require.NoError(t, svc.MarkAllRead(ctx, "usr-1"))
	notifs, err = svc.Query(ctx, "usr-1")
	require.NoError(t, err)
	for _, n := range notifs {
		assert.True(t, n.IsRead)
	}

	require.NoError(t, svc.ClearAll(ctx, "usr-1"))
	notifs, err = svc.Query(ctx, "usr-1")
	require.NoError(t, err)
	assert.Empty(t, notifs)
}
