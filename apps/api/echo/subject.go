package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core/policy"
	"github.com/trezcool/ecole/core/subject"
)

type subjectApi struct {
	auth     *authenticator
	svc      *subject.Service
	validate *validator.Validate
}

func registerSubjectAPI(g *echo.Group, auth *authenticator, svc *subject.Service, validate *validator.Validate) {
	api := subjectApi{
		auth:     auth,
		svc:      svc,
		validate: validate,
	}

	sg := g.Group("/subjects")
	sg.GET("", api.query, auth.authorize(policy.SubjectList))
	sg.POST("", api.create, auth.authorize(policy.SubjectCreate))
	sg.GET("/:id", api.retrieve, auth.authorize(policy.SubjectRead))
}

// Handlers

func (api *subjectApi) query(ctx echo.Context) error {
	subjects, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []subject.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *subjectApi) create(ctx echo.Context) error {
	var data subject.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	sub, err := api.svc.Create(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *subjectApi) retrieve(ctx echo.Context) error {
	sub, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding subject by ID")
	}
	return ctx.JSON(http.StatusOK, sub)
}
