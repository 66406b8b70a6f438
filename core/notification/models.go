package notification

import (
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

var ErrNotFound = errors.New("notification not found")

// Types
const (
	TypeUpcomingChapter     = "upcoming_chapter"
	TypeExpiringCertificate = "expiring_certificate"
	TypeIncompleteChapter   = "incomplete_chapter"
	TypeNewCourseAvailable  = "new_course_available"
	TypeChapterAvailable    = "chapter_available"
)

// Notification is derived state: the generator rescans course state on a
// schedule and prepends entries. Unlike activities, notifications are not
// event-sourced and may be cleared wholesale.
type Notification struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	CourseID    string    `json:"courseId,omitempty"`
	CourseName  string    `json:"courseName,omitempty"`
	ChapterID   string    `json:"chapterId,omitempty"`
	ChapterName string    `json:"chapterName,omitempty"`
	IsRead      bool      `json:"isRead"`
	ActionURL   string    `json:"actionUrl,omitempty"`
	ExpiresAt   null.Time `json:"expiresAt,omitempty"`
}
