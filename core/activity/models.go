package activity

import (
	"fmt"
	"time"
)

// Types
const (
	TypeEnrollment          = "enrollment"
	TypeUnenrollment        = "unenrollment"
	TypeMilestoneCompletion = "milestone_completion"
	TypeChapterCompletion   = "chapter_completion"
	TypeCourseCompletion    = "course_completion"
)

// Activity is an immutable record of one domain event. Course, chapter and
// milestone names are denormalized: they are the display names valid at the
// time of the event and are never live-joined afterwards.
type Activity struct {
	ID            string    `json:"id"`
	UserID        string    `json:"-"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	CourseID      string    `json:"courseId"`
	CourseName    string    `json:"courseName"`
	ChapterID     string    `json:"chapterId,omitempty"`
	ChapterName   string    `json:"chapterName,omitempty"`
	MilestoneID   string    `json:"milestoneId,omitempty"`
	MilestoneName string    `json:"milestoneName,omitempty"`
}

// FormatMessage projects an activity to its human-readable string.
func FormatMessage(act Activity) string {
	switch act.Type {
	case TypeEnrollment:
		return fmt.Sprintf("Enrolled in %q", act.CourseName)
	case TypeUnenrollment:
		return fmt.Sprintf("Unenrolled from %q", act.CourseName)
	case TypeMilestoneCompletion:
		return fmt.Sprintf("Completed milestone %q in %s", act.MilestoneName, act.CourseName)
	case TypeChapterCompletion:
		return fmt.Sprintf("Completed chapter %q in %s", act.ChapterName, act.CourseName)
	case TypeCourseCompletion:
		return fmt.Sprintf("Completed course %q", act.CourseName)
	default:
		return ""
	}
}
