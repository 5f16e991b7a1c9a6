package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core/message"
	"github.com/trezcool/ecole/core/policy"
)

type messageApi struct {
	auth     *authenticator
	svc      *message.Service
	validate *validator.Validate
}

func registerMessageAPI(g *echo.Group, auth *authenticator, svc *message.Service, validate *validator.Validate) {
	api := messageApi{
		auth:     auth,
		svc:      svc,
		validate: validate,
	}

	g.GET("/groups/:id/messages", api.query, auth.authorize(policy.MessageList))
	g.POST("/groups/:id/messages", api.create, auth.authorize(policy.MessageCreate))

	mg := g.Group("/messages/:id")
	mg.DELETE("", api.destroy, auth.authorize(policy.MessageDelete))
	mg.GET("/comments", api.queryComments, auth.authorize(policy.CommentList))
	mg.POST("/comments", api.comment, auth.authorize(policy.CommentCreate))
	mg.POST("/like", api.like, auth.authorize(policy.MessageLike))
	mg.DELETE("/like", api.unlike, auth.authorize(policy.MessageUnlike))
}

// Handlers

func (api *messageApi) query(ctx echo.Context) error {
	msgs, err := api.svc.QueryGroupMessages(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying group messages")
	}
	if msgs == nil {
		msgs = []message.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *messageApi) create(ctx echo.Context) error {
	var data message.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	msg, err := api.svc.Create(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *messageApi) destroy(ctx echo.Context) error {
	ctxUsr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), ctxUsr.ID, ctxUsr.IsAdmin(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting message")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *messageApi) queryComments(ctx echo.Context) error {
	comments, err := api.svc.QueryComments(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying comments")
	}
	if comments == nil {
		comments = []message.Comment{}
	}
	return ctx.JSON(http.StatusOK, comments)
}

func (api *messageApi) comment(ctx echo.Context) error {
	var data message.NewComment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	c, err := api.svc.Comment(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating comment")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *messageApi) like(ctx echo.Context) error {
	ctxUsr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	count, err := api.svc.Like(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "liking message")
	}
	return ctx.JSON(http.StatusOK, LikesResponse{Likes: count})
}

func (api *messageApi) unlike(ctx echo.Context) error {
	ctxUsr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	count, err := api.svc.Unlike(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "unliking message")
	}
	return ctx.JSON(http.StatusOK, LikesResponse{Likes: count})
}

type LikesResponse struct {
	Likes int `json:"likes"`
}
