package course

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/productfruits/academy/core"
)

// Statuses
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Milestone types
const (
	MilestoneText        = "text"
	MilestoneQuestionary = "questionary"
)

const dateLayout = "2006-01-02"

// Date is a calendar date (no time-of-day); marshals as "YYYY-MM-DD".
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == `""` || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(`"`+dateLayout+`"`, s)
	if err != nil {
		// tolerate full timestamps from older clients
		if t, err = time.Parse(`"`+time.RFC3339+`"`, s); err != nil {
			return fmt.Errorf("invalid date %s: %v", s, err)
		}
	}
	d.Time = t
	return nil
}

type Meeting struct {
	Type string `json:"type" validate:"required,oneof=teams zoom meet"`
	URL  string `json:"url" validate:"required,url"`
}

type Video struct {
	Type string `json:"type" validate:"required,oneof=youtube vimeo loom"`
	URL  string `json:"url" validate:"required,url"`
}

type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Type       string    `json:"type"`
	Size       int64     `json:"size,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type Question struct {
	Question      string   `json:"question" validate:"required"`
	Answers       []string `json:"answers" validate:"required,min=2"`
	CorrectAnswer int      `json:"correctAnswer" validate:"gte=0"` // index into Answers
}

// Milestone is the smallest completable unit within a chapter.
// Completed/CompletedAt are per-user view fields, merged in from the
// enrollment progress map; the definition itself never stores completion.
type Milestone struct {
	ID          string     `json:"id"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Type        string     `json:"type" validate:"required,oneof=text questionary"`
	Enabled     bool       `json:"enabled"`
	AdminOnly   bool       `json:"adminOnly"`
	Completed   bool       `json:"completed"`
	CompletedAt null.Time  `json:"completedAt,omitempty"`
	Questions   []Question `json:"questions,omitempty" validate:"omitempty,dive"`
}

func (m Milestone) IsQuestionary() bool { return m.Type == MilestoneQuestionary }

// Grade reports whether every question's selected answer matches its
// correctAnswer index. answers[i] answers Questions[i].
func (m Milestone) Grade(answers []int) bool {
	if !m.IsQuestionary() || len(answers) != len(m.Questions) {
		return false
	}
	for i, q := range m.Questions {
		if answers[i] != q.CorrectAnswer {
			return false
		}
	}
	return true
}

type Chapter struct {
	ID               string      `json:"id"`
	Title            string      `json:"title" validate:"required"`
	Description      string      `json:"description"`
	Duration         int         `json:"duration" validate:"gte=0"` // minutes
	StartDate        Date        `json:"startDate"`
	StartTime        string      `json:"startTime" validate:"omitempty,len=5"` // "HH:MM"
	Meeting          *Meeting    `json:"meeting,omitempty"`
	Video            *Video      `json:"video,omitempty"`
	Documents        []Document  `json:"documents,omitempty"`
	DocumentationURL string      `json:"documentationUrl,omitempty" validate:"omitempty,url"`
	Milestones       []Milestone `json:"milestones" validate:"dive"`
	Order            int         `json:"order"`
}

// IsAvailable reports whether the chapter has started: start date <= today,
// date-only comparison.
func (ch Chapter) IsAvailable() bool {
	return !ch.StartDate.After(core.Today())
}

// IsComplete reports whether every milestone is complete.
func (ch Chapter) IsComplete() bool {
	for _, m := range ch.Milestones {
		if !m.Completed {
			return false
		}
	}
	return true
}

type CertificateValidity struct {
	Months             int  `json:"months" validate:"gte=0"`
	Renewable          bool `json:"renewable"`
	RequiresAssessment bool `json:"requiresAssessment"`
}

type Instructor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type Course struct {
	ID                  string              `json:"id"`
	Title               string              `json:"title"`
	Description         string              `json:"description"`
	Status              string              `json:"status"`
	StartDate           Date                `json:"startDate"`
	EnrolledCount       int                 `json:"enrolledCount"`
	Duration            int                 `json:"duration"` // minutes
	Image               string              `json:"image,omitempty"`
	Thumbnail           string              `json:"thumbnail,omitempty"`
	Chapters            []Chapter           `json:"chapters"`
	CertificateValidity CertificateValidity `json:"certificateValidity"`
	Instructor          Instructor          `json:"instructor"`
	TargetUsers         []string            `json:"targetUsers,omitempty"` // empty = visible to all
	CreatedAt           time.Time           `json:"createdAt"`             // UTC
	UpdatedAt           time.Time           `json:"updatedAt"`             // UTC

	// per-user view fields, merged in from the enrollment record
	EnrolledAt  null.Time `json:"enrolledAt"`
	CompletedAt null.Time `json:"completedAt,omitempty"`
}

// Milestones flattens all chapters' milestones in order.
func (c Course) Milestones() []Milestone {
	var all []Milestone
	for _, ch := range c.Chapters {
		all = append(all, ch.Milestones...)
	}
	return all
}

// IsComplete reports whether every milestone in every chapter is complete.
func (c Course) IsComplete() bool {
	for _, ch := range c.Chapters {
		if !ch.IsComplete() {
			return false
		}
	}
	return true
}

// Progress returns the completion percentage (completed/total milestones).
func (c Course) Progress() float64 {
	var total, completed int
	for _, ch := range c.Chapters {
		for _, m := range ch.Milestones {
			total++
			if m.Completed {
				completed++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

func (c Course) FindChapter(chapterID string) (Chapter, bool) {
	for _, ch := range c.Chapters {
		if ch.ID == chapterID {
			return ch, true
		}
	}
	return Chapter{}, false
}

func (c Course) FindMilestone(chapterID, milestoneID string) (Milestone, bool) {
	ch, ok := c.FindChapter(chapterID)
	if !ok {
		return Milestone{}, false
	}
	for _, m := range ch.Milestones {
		if m.ID == milestoneID {
			return m, true
		}
	}
	return Milestone{}, false
}

// IsTargetedAt reports whether the course is visible to the user:
// an empty targetUsers list means everyone.
func (c Course) IsTargetedAt(userID string) bool {
	if len(c.TargetUsers) == 0 {
		return true
	}
	for _, id := range c.TargetUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// IsAvailableTo reports whether the course appears as enrollable to the
// user: active, not already enrolled, targeted, and already started.
func (c Course) IsAvailableTo(userID string) bool {
	return c.Status == StatusActive &&
		!c.EnrolledAt.Valid &&
		c.IsTargetedAt(userID) &&
		!c.StartDate.After(core.Today())
}

// Clone deep-copies the course as a fresh draft: new identifiers
// throughout, zero enrollment, every milestone uncompleted, start date
// pushed a week out.
func (c Course) Clone() Course {
	now := core.NowFunc().UTC()

	clone := c
	clone.ID = uuid.New().String()
	clone.Title = c.Title + " (Copy)"
	clone.Status = StatusDraft
	clone.EnrolledCount = 0
	clone.StartDate = Date{core.Today().AddDate(0, 0, 7)}
	clone.EnrolledAt = null.Time{}
	clone.CompletedAt = null.Time{}
	clone.CreatedAt = now
	clone.UpdatedAt = now

	clone.Chapters = make([]Chapter, len(c.Chapters))
	for i, ch := range c.Chapters {
		newCh := ch
		newCh.ID = uuid.New().String()
		newCh.Milestones = make([]Milestone, len(ch.Milestones))
		for j, m := range ch.Milestones {
			newM := m
			newM.ID = uuid.New().String()
			newM.Completed = false
			newM.CompletedAt = null.Time{}
			newCh.Milestones[j] = newM
		}
		clone.Chapters[i] = newCh
	}
	return clone
}

// NewCourse contains information needed to create a new Course.
// Courses are always created as drafts.
type NewCourse struct {
	Title               string              `json:"title" validate:"required"`
	Description         string              `json:"description"`
	StartDate           Date                `json:"startDate"`
	Duration            int                 `json:"duration" validate:"gte=0"`
	Chapters            []Chapter           `json:"chapters" validate:"dive"`
	CertificateValidity CertificateValidity `json:"certificateValidity"`
	Instructor          Instructor          `json:"instructor" validate:"required"`
	TargetUsers         []string            `json:"targetUsers"`
}

func (nc *NewCourse) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	return validateChapters(nc.Chapters)
}

// UpdateCourse defines what information may be provided to modify an
// existing Course. Nil/empty fields are left untouched; Chapters, when
// provided, replace the whole sequence.
type UpdateCourse struct {
	Title               *string              `json:"title"`
	Description         *string              `json:"description"`
	Status              *string              `json:"status" validate:"omitempty,oneof=draft active inactive"`
	StartDate           *Date                `json:"startDate"`
	Duration            *int                 `json:"duration" validate:"omitempty,gte=0"`
	Chapters            []Chapter            `json:"chapters" validate:"omitempty,dive"`
	CertificateValidity *CertificateValidity `json:"certificateValidity"`
	Instructor          *Instructor          `json:"instructor"`
	TargetUsers         []string             `json:"targetUsers"`
}

func (uc *UpdateCourse) Validate() error {
	if err := core.Validate.Struct(uc); err != nil {
		return err
	}
	return validateChapters(uc.Chapters)
}
