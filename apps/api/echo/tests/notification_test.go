package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/productfruits/academy/core/course"
	"github.com/productfruits/academy/core/notification"
)

func Test_notificationApi(t *testing.T) {
	resetDB(t)
	mockNow(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	student := createUser(t, "Ada", "Lovelace", "ada@test.cd", "", false)
	studentToken := getToken(t, student)

	// one chapter became available today, one is already overdue
	crs := testCourse(t)
	crs.Chapters[0].StartDate = course.NewDate(2026, time.March, 10)
	crs.Chapters[1].StartDate = course.NewDate(2026, time.March, 1)
	if _, err := crsRepo.UpdateCourse(context.Background(), crs); err != nil {
		t.Fatalf("UpdateCourse(): %v", err)
	}
	crs.EnrolledAt = null.TimeFrom(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	if err := notifSvc.Generate(context.Background(), student.ID, []course.Course{crs}); err != nil {
		t.Fatalf("Generate(): %v", err)
	}

	query := func(t *testing.T) []notification.Notification {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, "/v1/notifications", studentToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		var notifs []notification.Notification
		if err := json.Unmarshal(rec.Body.Bytes(), &notifs); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		return notifs
	}

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/notifications")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	notifs := query(t)
	if len(notifs) != 2 {
		t.Fatalf("failed! len(notifications) = %d; want 2", len(notifs))
	}
	for _, n := range notifs {
		if n.IsRead {
			t.Errorf("failed! notification %v already read", n.ID)
		}
	}

	t.Run("Mark one read", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/notifications/"+notifs[0].ID+"/read", studentToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}

		refreshed := query(t)
		if !refreshed[0].IsRead {
			t.Error("failed! notification not marked read")
		}
		if refreshed[1].IsRead {
			t.Error("failed! wrong notification marked read")
		}
	})

	t.Run("Unknown notification", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/notifications/nope/read", studentToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "notification not found"}),
		}, rec)
	})

	t.Run("Mark all read", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/notifications/read-all", studentToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}

		for _, n := range query(t) {
			if !n.IsRead {
				t.Errorf("failed! notification %v still unread", n.ID)
			}
		}
	})

	t.Run("Clear", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/notifications", studentToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}

		if remaining := query(t); len(remaining) != 0 {
			t.Errorf("failed! len(notifications) = %d; want 0", len(remaining))
		}
	})
}

func Test_activityApi(t *testing.T) {
	resetDB(t)
	mockNow(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	student := createUser(t, "Ada", "Lovelace", "ada@test.cd", "", false)
	studentToken := getToken(t, student)
	crs := testCourse(t)

	query := func(t *testing.T) []map[string]interface{} {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, "/v1/activities", studentToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		var activities []map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &activities); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		return activities
	}

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/activities")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	if activities := query(t); len(activities) != 0 {
		t.Fatalf("failed! len(activities) = %d; want 0", len(activities))
	}

	// enroll and complete the first milestone; its chapter completes with it
	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/enroll", studentToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/chapters/ch-1/milestones/ms-1/complete", studentToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
	}

	activities := query(t)
	if len(activities) != 3 {
		t.Fatalf("failed! len(activities) = %d; want 3", len(activities))
	}
	// newest first, with human-readable messages
	wantMessages := []string{
		`Completed chapter "Basics" in Onboarding`,
		`Completed milestone "Intro" in Onboarding`,
		`Enrolled in "Onboarding"`,
	}
	for i, want := range wantMessages {
		if got := activities[i]["message"]; got != want {
			t.Errorf("failed! message[%d] = %v; want %v", i, got, want)
		}
	}

	t.Run("Reset", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/activities", studentToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}

		if remaining := query(t); len(remaining) != 0 {
			t.Errorf("failed! len(activities) = %d; want 0", len(remaining))
		}
	})
}
