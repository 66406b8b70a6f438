package enrollment

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/productfruits/academy/core/course"
)

// MilestoneProgress is one user's completion state for one milestone.
// Completed is monotonic: there is no un-complete operation, and
// CompletedAt is set exactly when Completed flips to true.
type MilestoneProgress struct {
	Completed   bool      `json:"completed"`
	CompletedAt null.Time `json:"completedAt,omitempty"`
}

// Enrollment links one user to one course, with the per-milestone progress
// map. Course completion is derived from the progress map, never stored as
// an independent flag; CompletedAt mirrors the course-completion event for
// display.
type Enrollment struct {
	UserID      string                       `json:"userId"`
	CourseID    string                       `json:"courseId"`
	EnrolledAt  time.Time                    `json:"enrolledAt"`
	CompletedAt null.Time                    `json:"completedAt,omitempty"`
	Milestones  map[string]MilestoneProgress `json:"milestones"`
}

// Merge projects the enrollment onto a course definition, producing the
// per-user course view the API serves: enrolledAt/completedAt plus the
// completed/completedAt view fields on every milestone.
func Merge(crs course.Course, enr Enrollment) course.Course {
	crs.EnrolledAt = null.TimeFrom(enr.EnrolledAt)
	crs.CompletedAt = enr.CompletedAt

	chapters := make([]course.Chapter, len(crs.Chapters))
	for i, ch := range crs.Chapters {
		milestones := make([]course.Milestone, len(ch.Milestones))
		for j, m := range ch.Milestones {
			if prog, ok := enr.Milestones[m.ID]; ok {
				m.Completed = prog.Completed
				m.CompletedAt = prog.CompletedAt
			} else {
				m.Completed = false
				m.CompletedAt = null.Time{}
			}
			milestones[j] = m
		}
		ch.Milestones = milestones
		chapters[i] = ch
	}
	crs.Chapters = chapters
	return crs
}

// CompleteAnswers carries a questionary submission: answers[i] is the
// selected option index for question i.
type CompleteAnswers struct {
	Answers []int `json:"answers"`
}

func nullTime(t time.Time) null.Time {
	return null.TimeFrom(t)
}
