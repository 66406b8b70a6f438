package inmemdb

import (
	"sync"

	"github.com/productfruits/academy/core/activity"
	"github.com/productfruits/academy/core/course"
	"github.com/productfruits/academy/core/enrollment"
	"github.com/productfruits/academy/core/notification"
	"github.com/productfruits/academy/core/user"
)

// DB is an in-memory database used by tests and local development; it
// implements the same repository contracts as the Postgres storage.
type DB struct {
	user         *userTable
	course       *courseTable
	enrollment   *enrollmentTable
	activity     *activityTable
	notification *notificationTable
}

type (
	userTable struct {
		sync.RWMutex
		users       map[string]*user.User
		invitations map[string]*user.Invitation // keyed email:code
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
	}

	enrollmentTable struct {
		sync.RWMutex
		table map[string]*enrollment.Enrollment // keyed userID:courseID
	}

	activityTable struct {
		sync.RWMutex
		logs map[string][]activity.Activity // newest first, per user
	}

	notificationTable struct {
		sync.RWMutex
		stores map[string][]notification.Notification // newest first, per user
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{
			users:       make(map[string]*user.User),
			invitations: make(map[string]*user.Invitation),
		},
		course:       &courseTable{table: make(map[string]*course.Course)},
		enrollment:   &enrollmentTable{table: make(map[string]*enrollment.Enrollment)},
		activity:     &activityTable{logs: make(map[string][]activity.Activity)},
		notification: &notificationTable{stores: make(map[string][]notification.Notification)},
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.users = make(map[string]*user.User)
	db.user.invitations = make(map[string]*user.Invitation)
	db.user.Unlock()

	db.course.Lock()
	db.course.table = make(map[string]*course.Course)
	db.course.Unlock()

	db.enrollment.Lock()
	db.enrollment.table = make(map[string]*enrollment.Enrollment)
	db.enrollment.Unlock()

	db.activity.Lock()
	db.activity.logs = make(map[string][]activity.Activity)
	db.activity.Unlock()

	db.notification.Lock()
	db.notification.stores = make(map[string][]notification.Notification)
	db.notification.Unlock()
}

func enrollmentKey(userID, courseID string) string { return userID + ":" + courseID }
func invitationKey(email, code string) string      { return email + ":" + code }
