package main

import (
	"context"

	"github.com/google/uuid"

	"github.com/productfruits/academy/core"
	"github.com/productfruits/academy/core/course"
)

// seed loads a demo course into an empty database so a fresh install has
// something to click through. A non-empty course table is left untouched.
func (cli *commandLine) seed() error {
	ctx := context.Background()

	courses, err := cli.crsRepo.QueryAllCourses(ctx)
	if err != nil {
		return err
	}
	if len(courses) > 0 {
		logger.Println("database already seeded; nothing to do")
		return nil
	}

	now := core.NowFunc().UTC()
	today := core.Today()

	crs := course.Course{
		ID:          uuid.New().String(),
		Title:       "Getting Started with Academy",
		Description: "A short walkthrough of courses, chapters and milestones.",
		Status:      course.StatusActive,
		StartDate:   course.Date{Time: today},
		Duration:    90,
		Chapters: []course.Chapter{
			{
				ID:          uuid.New().String(),
				Title:       "Welcome",
				Description: "What to expect from this course.",
				Duration:    30,
				StartDate:   course.Date{Time: today},
				StartTime:   "09:00",
				Order:       0,
				Milestones: []course.Milestone{
					{
						ID:      uuid.New().String(),
						Title:   "Read the introduction",
						Type:    course.MilestoneText,
						Enabled: true,
					},
					{
						ID:      uuid.New().String(),
						Title:   "Watch the tour video",
						Type:    course.MilestoneText,
						Enabled: true,
					},
				},
			},
			{
				ID:          uuid.New().String(),
				Title:       "First Steps Quiz",
				Description: "Check what stuck.",
				Duration:    60,
				StartDate:   course.Date{Time: today.AddDate(0, 0, 7)},
				StartTime:   "09:00",
				Order:       1,
				Milestones: []course.Milestone{
					{
						ID:      uuid.New().String(),
						Title:   "Basics quiz",
						Type:    course.MilestoneQuestionary,
						Enabled: true,
						Questions: []course.Question{
							{
								Question:      "Where does a milestone live?",
								Answers:       []string{"In a chapter", "In a notification", "In the activity log"},
								CorrectAnswer: 0,
							},
						},
					},
				},
			},
		},
		CertificateValidity: course.CertificateValidity{Months: 12, Renewable: true},
		Instructor:          course.Instructor{ID: uuid.New().String(), Name: "Academy Team"},
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if _, err := cli.crsRepo.CreateCourse(ctx, crs); err != nil {
		return err
	}
	logger.Printf("seeded demo course %q\n", crs.Title)
	return nil
}
