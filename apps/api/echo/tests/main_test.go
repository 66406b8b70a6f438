package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	. "github.com/productfruits/academy/apps/api/echo"
	"github.com/productfruits/academy/core"
	"github.com/productfruits/academy/core/activity"
	"github.com/productfruits/academy/core/course"
	"github.com/productfruits/academy/core/enrollment"
	"github.com/productfruits/academy/core/notification"
	"github.com/productfruits/academy/core/user"
	emailsvc "github.com/productfruits/academy/services/email"
	logsvc "github.com/productfruits/academy/services/logger"
	inmemdb "github.com/productfruits/academy/storage/database/inmem"
)

var (
	conf *core.Config
	db   *inmemdb.DB
	app  Server

	usrRepo  user.Repository
	crsRepo  course.Repository
	usrSvc   *user.Service
	notifSvc *notification.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	conf = core.NewConfig()
	conf.TestMode = true

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "API TEST : ", log.LstdFlags), conf)
	logger.Enable(false)

	// set up DB & repos
	db = inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	crsRepo = inmemdb.NewCourseRepository(db)
	enrRepo := inmemdb.NewEnrollmentRepository(db)
	actRepo := inmemdb.NewActivityRepository(db)
	notifRepo := inmemdb.NewNotificationRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc = user.NewService(usrRepo, mailSvc, conf)
	crsSvc := course.NewService(crsRepo)
	actSvc := activity.NewService(actRepo)
	enrollSvc := enrollment.NewService(enrRepo, crsRepo, actSvc)
	notifSvc = notification.NewService(notifRepo, conf)

	core.ParseEmailTemplates(conf, logger)

	// set up server
	app = NewServer(&Options{
		DisableReqLogs:  true,
		Conf:            conf,
		Logger:          logger,
		UserSvc:         usrSvc,
		CourseSvc:       crsSvc,
		EnrollmentSvc:   enrollSvc,
		ActivitySvc:     actSvc,
		NotificationSvc: notifSvc,
	})

	os.Exit(m.Run())
}

func resetDB(t *testing.T) {
	t.Helper()
	db.Reset()
}

// createUser stores an active user directly, skipping the invitation flow.
func createUser(t *testing.T, first, last, email, pwd string, admin bool) user.User {
	t.Helper()

	role := user.RoleUser
	if admin {
		role = user.RoleAdmin
	}
	now := core.NowFunc().UTC().Truncate(time.Second)
	usr := user.User{
		ID:          uuid.New().String(),
		Email:       email,
		FirstName:   first,
		LastName:    last,
		Role:        role,
		Status:      user.StatusActive,
		Permissions: user.DefaultPermissions(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("SetPassword(): %v", err)
		}
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

func createCourse(t *testing.T, crs course.Course) course.Course {
	t.Helper()
	crs, err := crsRepo.CreateCourse(context.Background(), crs)
	if err != nil {
		t.Fatalf("CreateCourse(): %v", err)
	}
	return crs
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
