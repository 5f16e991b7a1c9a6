package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/grade"
	"github.com/trezcool/ecole/core/policy"
	"github.com/trezcool/ecole/core/user"
	"github.com/trezcool/ecole/services/gradesheet"
)

type gradeApi struct {
	auth       *authenticator
	svc        *grade.Service
	usrSvc     *user.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerGradeAPI(
	g *echo.Group,
	auth *authenticator,
	svc *grade.Service,
	usrSvc *user.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := gradeApi{
		auth:       auth,
		svc:        svc,
		usrSvc:     usrSvc,
		validate:   validate,
		translator: translator,
	}

	gg := g.Group("/grades")
	gg.GET("", api.query, auth.authorize(policy.GradeList))
	gg.POST("", api.create, auth.authorize(policy.GradeCreate))
	gg.GET("/export", api.export, auth.authorize(policy.GradeExport))
	gg.POST("/import", api.importSheet, auth.authorize(policy.GradeImport))
	gg.GET("/:id", api.retrieve, auth.authorize(policy.GradeRead))
	gg.PUT("/:id", api.update, auth.authorize(policy.GradeUpdate))
	gg.DELETE("/:id", api.destroy, auth.authorize(policy.GradeDelete))
}

// Handlers

func (api *gradeApi) query(ctx echo.Context) error {
	filter := new(grade.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []grade.Grade{})
	}

	grades, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) create(ctx echo.Context) error {
	var data grade.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	g, err := api.svc.Create(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating grade")
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	g, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding grade by ID")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) update(ctx echo.Context) error {
	var data grade.UpdateGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	g, err := api.svc.Update(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating grade")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) destroy(ctx echo.Context) error {
	ctxUsr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradeApi) export(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	filter := new(grade.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	grades, err := api.svc.Query(reqCtx, filter)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	students, err := api.usrSvc.Query(reqCtx, &user.QueryFilter{Role: user.RoleStudent}, nil)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	names := make(map[string]string, len(students))
	for _, s := range students {
		names[s.ID] = s.FullName()
	}

	var buf bytes.Buffer
	if err = gradesheet.Export(&buf, grades, names); err != nil {
		return errors.Wrap(err, "exporting grades")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="grades.xlsx"`)
	return ctx.Blob(http.StatusOK, gradesheet.ContentType, buf.Bytes())
}

func (api *gradeApi) importSheet(ctx echo.Context) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: errFileRequired})
	}
	src, err := file.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	rows, err := gradesheet.Import(src)
	if err != nil {
		return errors.Wrap(err, "reading grade sheet")
	}
	for i := range rows {
		if err = rows[i].Validate(api.validate); err != nil {
			return api.rowError(i, err)
		}
	}

	ctxUsr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	grades, err := api.svc.Import(ctx.Request().Context(), ctxUsr.ID, rows)
	if err != nil {
		return errors.Wrap(err, "importing grades")
	}
	return ctx.JSON(http.StatusCreated, grades)
}

// rowError names the sheet row in the field errors of a row that failed validation.
func (api *gradeApi) rowError(i int, err error) error {
	vErrs, ok := errors.Cause(err).(validator.ValidationErrors)
	if !ok {
		return err
	}
	flds := make([]core.FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		flds = append(flds, core.FieldError{
			Field: fmt.Sprintf("row %d: %s", i+1, fe.Field()),
			Error: fe.Translate(api.translator),
		})
	}
	return core.NewValidationError(nil, flds...)
}
