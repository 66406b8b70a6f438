package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/productfruits/academy/apps/api/echo"
	"github.com/productfruits/academy/core"
	"github.com/productfruits/academy/core/activity"
	"github.com/productfruits/academy/core/course"
	"github.com/productfruits/academy/core/enrollment"
	"github.com/productfruits/academy/core/notification"
	"github.com/productfruits/academy/core/user"
	emailsvc "github.com/productfruits/academy/services/email"
	logsvc "github.com/productfruits/academy/services/logger"
	"github.com/productfruits/academy/storage/database"
	sqlxrepos "github.com/productfruits/academy/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrRepo := sqlxrepos.NewUserRepository(db)
	crsRepo := sqlxrepos.NewCourseRepository(db)
	enrRepo := sqlxrepos.NewEnrollmentRepository(db)
	actRepo := sqlxrepos.NewActivityRepository(db)
	notifRepo := sqlxrepos.NewNotificationRepository(db)

	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	crsSvc := course.NewService(crsRepo)
	actSvc := activity.NewService(actRepo)
	enrSvc := enrollment.NewService(enrRepo, crsRepo, actSvc)
	notifSvc := notification.NewService(notifRepo, conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	core.ParseEmailTemplates(conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddr, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Notification Scheduler

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go runNotificationScheduler(schedulerCtx, conf, logger, usrSvc, enrSvc, notifSvc)

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:         conf.Server.Addr,
		Conf:            conf,
		Logger:          logger,
		UserSvc:         usrSvc,
		CourseSvc:       crsSvc,
		EnrollmentSvc:   enrSvc,
		ActivitySvc:     actSvc,
		NotificationSvc: notifSvc,
		SignalShutdown:  func() { shutdown <- syscall.SIGTERM },
	})

	go server.Start()
	logger.Info(fmt.Sprintf("API server listening on %s", conf.Server.Addr))

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
	stopScheduler()

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// runNotificationScheduler periodically rescans every active user's merged
// course views and stores the derived notifications.
func runNotificationScheduler(
	ctx context.Context,
	conf *core.Config,
	logger core.Logger,
	usrSvc *user.Service,
	enrSvc *enrollment.Service,
	notifSvc *notification.Service,
) {
	ticker := time.NewTicker(conf.Notification.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scanUsers(ctx, logger, usrSvc, enrSvc, notifSvc)
		}
	}
}

func scanUsers(
	ctx context.Context,
	logger core.Logger,
	usrSvc *user.Service,
	enrSvc *enrollment.Service,
	notifSvc *notification.Service,
) {
	users, err := usrSvc.QueryAll(ctx)
	if err != nil {
		logger.Error(fmt.Sprintf("notification scan: querying users: %v", err), err)
		return
	}

	for _, usr := range users {
		if !usr.IsActive() {
			continue
		}
		courses, err := enrSvc.UserCourses(ctx, usr)
		if err != nil {
			logger.Error(fmt.Sprintf("notification scan: querying courses: %v", err), err)
			continue
		}
		if err := notifSvc.Generate(ctx, usr.ID, courses); err != nil {
			logger.Error(fmt.Sprintf("notification scan: generating: %v", err), err)
		}
	}
}
