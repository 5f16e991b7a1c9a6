package group

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecole/core"
)

// Group is a class of students for an academic year.
type Group struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	AcademicYear string    `json:"academicYear"`
	IsActive     bool      `json:"isActive"`
	CreatedBy    string    `json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
}

type NewGroup struct {
	Name         string `json:"name" validate:"required,notblank,max=100"`
	Description  string `json:"description"`
	AcademicYear string `json:"academicYear" validate:"required,notblank,max=10"`
	IsActive     *bool  `json:"isActive"`
}

func (ng *NewGroup) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	ng.Description = core.CleanString(ng.Description)
	ng.AcademicYear = core.CleanString(ng.AcademicYear)
	return validate.Struct(ng)
}

type UpdateGroup struct {
	Name         *string `json:"name" validate:"omitnil,notblank,max=100"`
	Description  *string `json:"description"`
	AcademicYear *string `json:"academicYear" validate:"omitnil,notblank,max=10"`
	IsActive     *bool   `json:"isActive"`
}

func (ug *UpdateGroup) Validate(validate *validator.Validate) error {
	for _, s := range []*string{ug.Name, ug.Description, ug.AcademicYear} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	return validate.Struct(ug)
}

func (ug UpdateGroup) Merge(grp Group) Group {
	grp.Name = core.StringValue(ug.Name, grp.Name)
	grp.Description = core.StringValue(ug.Description, grp.Description)
	grp.AcademicYear = core.StringValue(ug.AcademicYear, grp.AcademicYear)
	grp.IsActive = core.BoolValue(ug.IsActive, grp.IsActive)
	return grp
}
