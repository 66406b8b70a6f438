package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/productfruits/academy/core"
	"github.com/productfruits/academy/core/certificate"
	"github.com/productfruits/academy/core/course"
	"github.com/productfruits/academy/core/enrollment"
	"github.com/productfruits/academy/core/user"
)

type courseApi struct {
	conf      *core.Config
	svc       *course.Service
	enrollSvc *enrollment.Service
	userSvc   *user.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := courseApi{
		conf:      opts.Conf,
		svc:       opts.CourseSvc,
		enrollSvc: opts.EnrollmentSvc,
		userSvc:   opts.UserSvc,
	}

	cg := g.Group("/courses", jwt)

	canAccess := permissionMiddleware(func(perms user.Permissions) bool { return perms.CanAccessCourses })

	cg.GET("", api.query)
	cg.POST("", api.create, adminMiddleware())

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/clone", api.clone, adminMiddleware())
	dg.POST("/toggle-status", api.toggleStatus, adminMiddleware())

	dg.POST("/enroll", api.enroll, canAccess)
	dg.POST("/unenroll", api.unenroll, canAccess)
	dg.POST("/chapters/:chapterID/milestones/:milestoneID/complete", api.completeMilestone, canAccess)

	dg.GET("/certificate", api.certificate)
	dg.GET("/certificate/share-url", api.certificateShareURL)
	dg.GET("/chapters/:chapterID/calendar", api.chapterCalendar)
}

// Handlers

// query returns the catalog merged with the caller's enrollment state;
// ?available=true narrows it down to courses the caller could enroll in.
func (api *courseApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	courses, err := api.enrollSvc.UserCourses(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}

	if ctx.QueryParam("available") == "true" {
		available := make([]course.Course, 0, len(courses))
		for _, crs := range courses {
			if crs.IsAvailableTo(usr.ID) {
				available = append(available, crs)
			}
		}
		courses = available
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.enrollSvc.GetUserCourse(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) clone(ctx echo.Context) error {
	crs, err := api.svc.Clone(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) toggleStatus(ctx echo.Context) error {
	crs, err := api.svc.ToggleStatus(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.enrollSvc.Enroll(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) unenroll(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.enrollSvc.Unenroll(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) completeMilestone(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	// answers are only required for questionary milestones
	var data enrollment.CompleteAnswers
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompleteAnswers")
	}

	crs, err := api.enrollSvc.CompleteMilestone(
		ctx.Request().Context(), usr,
		ctx.Param("id"), ctx.Param("chapterID"), ctx.Param("milestoneID"),
		data.Answers,
	)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) certificate(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.enrollSvc.GetUserCourse(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return err
	}

	doc, err := certificate.Render(crs, usr)
	if err != nil {
		return err
	}
	return ctx.HTMLBlob(http.StatusOK, doc)
}

func (api *courseApi) certificateShareURL(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.enrollSvc.GetUserCourse(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return err
	}

	certURL := fmt.Sprintf("%s/courses/%s/certificate", api.conf.FrontendBaseURL, crs.ID)
	shareURL, err := certificate.LinkedInShareURL(crs, certURL)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"url": shareURL})
}

func (api *courseApi) chapterCalendar(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.enrollSvc.GetUserCourse(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return err
	}
	ch, ok := crs.FindChapter(ctx.Param("chapterID"))
	if !ok {
		return enrollment.ErrChapterNotFound
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="chapter.ics"`)
	return ctx.Blob(http.StatusOK, "text/calendar", []byte(ch.CalendarEvent()))
}
