package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/productfruits/academy/core/notification"
)

type notificationApi struct {
	svc *notification.Service
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := notificationApi{svc: opts.NotificationSvc}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.query)
	ng.PUT("/read-all", api.markAllRead)
	ng.PUT("/:id/read", api.markRead)
	ng.DELETE("", api.clear)
}

func (api *notificationApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	notifications, err := api.svc.Query(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifications == nil {
		notifications = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifications)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.MarkRead(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.MarkAllRead(ctx.Request().Context(), claims.Subject); err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *notificationApi) clear(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.ClearAll(ctx.Request().Context(), claims.Subject); err != nil {
		return errors.Wrap(err, "clearing notifications")
	}
	return ctx.NoContent(http.StatusNoContent)
}
