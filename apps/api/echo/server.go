package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/productfruits/academy/core"
	"github.com/productfruits/academy/core/activity"
	"github.com/productfruits/academy/core/course"
	"github.com/productfruits/academy/core/enrollment"
	"github.com/productfruits/academy/core/notification"
	"github.com/productfruits/academy/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Conf            *core.Config
		Logger          core.Logger
		UserSvc         *user.Service
		CourseSvc       *course.Service
		EnrollmentSvc   *enrollment.Service
		ActivitySvc     *activity.Service
		NotificationSvc *notification.Service

		// SignalShutdown is called when an unrecoverable error is caught
		// so main can drive a graceful stop.
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerUserAPI(v1, jwt, s.opts)
	registerCourseAPI(v1, jwt, s.opts)
	registerActivityAPI(v1, jwt, s.opts)
	registerNotificationAPI(v1, jwt, s.opts)
}

func (s *server) Start() {
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.app.Logger.Fatal(err)
	}
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Academy API!")
}
