package echoapi

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/material"
	"github.com/trezcool/ecole/core/policy"
)

var (
	errFileRequired = "a file is required"
	errFileTooLarge = "file is too large"
)

type materialApi struct {
	auth          *authenticator
	svc           *material.Service
	validate      *validator.Validate
	maxUploadSize int64
}

func registerMaterialAPI(
	g *echo.Group,
	auth *authenticator,
	svc *material.Service,
	validate *validator.Validate,
	maxUploadSize int64,
) {
	if maxUploadSize <= 0 || maxUploadSize > material.MaxFileSize {
		maxUploadSize = material.MaxFileSize
	}
	api := materialApi{
		auth:          auth,
		svc:           svc,
		validate:      validate,
		maxUploadSize: maxUploadSize,
	}

	mg := g.Group("/materials")
	mg.GET("", api.query, auth.authorize(policy.MaterialList))
	mg.POST("", api.create, auth.authorize(policy.MaterialCreate))
	mg.POST("/upload", api.upload, auth.authorize(policy.MaterialCreate))
	mg.GET("/:id", api.retrieve, auth.authorize(policy.MaterialRead))
	mg.GET("/:id/download", api.download, auth.authorize(policy.MaterialDownload))
	mg.PUT("/:id", api.update, auth.authorize(policy.MaterialUpdate))
	mg.DELETE("/:id", api.destroy, auth.authorize(policy.MaterialDelete))
}

// Handlers

func (api *materialApi) query(ctx echo.Context) error {
	filter := new(material.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []material.Material{})
	}

	materials, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	if materials == nil {
		materials = []material.Material{}
	}
	return ctx.JSON(http.StatusOK, materials)
}

func (api *materialApi) create(ctx echo.Context) error {
	var data material.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	m, err := api.svc.Create(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating material")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *materialApi) upload(ctx echo.Context) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: errFileRequired})
	}
	if file.Size > api.maxUploadSize {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: errFileTooLarge})
	}

	data := material.NewMaterial{
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
		FileName:    filepath.Base(file.Filename),
		FileType:    contentType(file.Header.Get(echo.HeaderContentType), file.Filename),
		FileSize:    file.Size,
		GroupID:     ctx.FormValue("groupId"),
		SubjectID:   ctx.FormValue("subjectId"),
	}
	if data.IsVisible, err = bindBool("isVisible", ctx.FormValue("isVisible")); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	m, err := api.svc.Upload(ctx.Request().Context(), ctxUsr.ID, data, src)
	if err != nil {
		return errors.Wrap(err, "uploading material")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *materialApi) retrieve(ctx echo.Context) error {
	m, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding material by ID")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *materialApi) download(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	m, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding material by ID")
	}

	content, err := api.svc.Open(reqCtx, m)
	if err != nil {
		// materials linking to an external file
		if errors.Cause(err) == material.ErrFileNotFound && m.FileKey == "" && m.FileURL != "" {
			return ctx.Redirect(http.StatusFound, m.FileURL)
		}
		return errors.Wrap(err, "opening material file")
	}
	defer content.Close()

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", m.FileName))
	return ctx.Stream(http.StatusOK, m.FileType, content)
}

func (api *materialApi) update(ctx echo.Context) error {
	var data material.UpdateMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMaterial")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	m, err := api.svc.Update(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating material")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *materialApi) destroy(ctx echo.Context) error {
	ctxUsr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting material")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// contentType returns the media type of an uploaded part, guessed from the file extension when the client sent none.
func contentType(header, fileName string) string {
	if mediaType, _, err := mime.ParseMediaType(header); err == nil && mediaType != echo.MIMEOctetStream {
		return mediaType
	}
	if guessed := mime.TypeByExtension(filepath.Ext(fileName)); guessed != "" {
		if mediaType, _, err := mime.ParseMediaType(guessed); err == nil {
			return mediaType
		}
	}
	return header
}
