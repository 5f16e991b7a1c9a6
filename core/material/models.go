package material

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecole/core"
)

// MaxFileSize is the largest material file accepted, in bytes.
const MaxFileSize int64 = 50 << 20

// AllowedTypes are the accepted material MIME types.
var AllowedTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/gif",
	"video/mp4",
	"video/quicktime",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

func IsAllowedType(mimeType string) bool {
	for _, t := range AllowedTypes {
		if t == mimeType {
			return true
		}
	}
	return false
}

type Material struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	FileName    string `json:"fileName"`
	FileURL     string `json:"fileUrl"`
	// FileKey locates the file in the file storage; empty for materials linking to an external URL.
	FileKey    string    `json:"-"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	GroupID    string    `json:"groupId"`
	SubjectID  string    `json:"subjectId"`
	UploadedBy string    `json:"uploadedBy"`
	IsVisible  bool      `json:"isVisible"`
	CreatedAt  time.Time `json:"createdAt"` // UTC
}

// NewMaterial describes a material. FileURL is required unless the file content is uploaded.
type NewMaterial struct {
	Title       string `json:"title" form:"title" validate:"required,notblank,max=200"`
	Description string `json:"description" form:"description"`
	FileName    string `json:"fileName" form:"-" validate:"required,notblank,max=255"`
	FileURL     string `json:"fileUrl" form:"-" validate:"omitempty,url"`
	FileType    string `json:"fileType" form:"-" validate:"required,materialtype"`
	FileSize    int64  `json:"fileSize" form:"-" validate:"gt=0,maxfilesize"`
	GroupID     string `json:"groupId" form:"groupId" validate:"required,uuid"`
	SubjectID   string `json:"subjectId" form:"subjectId" validate:"required,uuid"`
	IsVisible   *bool  `json:"isVisible" form:"isVisible"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	nm.FileName = core.CleanString(nm.FileName)
	nm.FileURL = core.CleanString(nm.FileURL)
	nm.FileType = core.CleanString(nm.FileType, true /* lower */)
	return validate.Struct(nm)
}

type UpdateMaterial struct {
	Title       *string `json:"title" validate:"omitnil,notblank,max=200"`
	Description *string `json:"description"`
	IsVisible   *bool   `json:"isVisible"`
}

func (um *UpdateMaterial) Validate(validate *validator.Validate) error {
	if um.Title != nil {
		*um.Title = core.CleanString(*um.Title)
	}
	if um.Description != nil {
		*um.Description = core.CleanString(*um.Description)
	}
	return validate.Struct(um)
}

func (um UpdateMaterial) Merge(m Material) Material {
	m.Title = core.StringValue(um.Title, m.Title)
	m.Description = core.StringValue(um.Description, m.Description)
	m.IsVisible = core.BoolValue(um.IsVisible, m.IsVisible)
	return m
}

type QueryFilter struct {
	GroupID   string `query:"groupId"`
	SubjectID string `query:"subjectId"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf == nil || (qf.GroupID == "" && qf.SubjectID == "")
}
