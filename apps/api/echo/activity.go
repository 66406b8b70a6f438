package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/productfruits/academy/core/activity"
)

type activityApi struct {
	svc *activity.Service
}

func registerActivityAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := activityApi{svc: opts.ActivitySvc}

	ag := g.Group("/activities", jwt)
	ag.GET("", api.query)
	ag.DELETE("", api.reset)
}

type activityResponse struct {
	activity.Activity
	Message string `json:"message"`
}

func (api *activityApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	activities, err := api.svc.Query(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying activities")
	}

	out := make([]activityResponse, 0, len(activities))
	for _, act := range activities {
		out = append(out, activityResponse{Activity: act, Message: activity.FormatMessage(act)})
	}
	return ctx.JSON(http.StatusOK, out)
}

func (api *activityApi) reset(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.Reset(ctx.Request().Context(), claims.Subject); err != nil {
		return errors.Wrap(err, "resetting activities")
	}
	return ctx.NoContent(http.StatusNoContent)
}
