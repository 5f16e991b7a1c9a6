package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/notification"
	"github.com/trezcool/ecole/core/policy"
)

type activityApi struct {
	svc *activity.Service
}

func registerActivityAPI(g *echo.Group, auth *authenticator, svc *activity.Service) {
	api := activityApi{svc: svc}
	g.GET("/activities", api.query, auth.authorize(policy.ActivityList))
}

func (api *activityApi) query(ctx echo.Context) error {
	filter := new(activity.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []activity.Log{})
	}

	logs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying activities")
	}
	if logs == nil {
		logs = []activity.Log{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

type notificationApi struct {
	auth *authenticator
	svc  *notification.Service
}

func registerNotificationAPI(g *echo.Group, auth *authenticator, svc *notification.Service) {
	api := notificationApi{auth: auth, svc: svc}

	ng := g.Group("/notifications")
	ng.GET("", api.query, auth.authorize(policy.NotificationList))
	ng.PUT("/:id/read", api.markRead, auth.authorize(policy.NotificationRead))
}

// query lists the notifications of the current user.
func (api *notificationApi) query(ctx echo.Context) error {
	ctxUsr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	notifs, err := api.svc.QueryForUser(ctx.Request().Context(), ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	ctxUsr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	n, err := api.svc.MarkRead(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "marking notification as read")
	}
	return ctx.JSON(http.StatusOK, n)
}
