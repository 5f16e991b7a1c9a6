package grade

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecole/core"
)

const DefaultMaxValue = 20.0

// Types
const (
	TypeExam          = "exam"
	TypeHomework      = "homework"
	TypeQuiz          = "quiz"
	TypeProject       = "project"
	TypeParticipation = "participation"
)

var AllTypes = []string{TypeExam, TypeHomework, TypeQuiz, TypeProject, TypeParticipation}

func IsValidType(typ string) bool {
	for _, t := range AllTypes {
		if t == typ {
			return true
		}
	}
	return false
}

// Round rounds v to the 2 decimals grades are stored with.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

type Grade struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"studentId"`
	SubjectID   string    `json:"subjectId"`
	GroupID     string    `json:"groupId"`
	GradeValue  float64   `json:"gradeValue"`
	MaxValue    float64   `json:"maxValue"`
	GradeType   string    `json:"gradeType"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	GradedBy    string    `json:"gradedBy"`
	GradedAt    time.Time `json:"gradedAt"`  // UTC
	CreatedAt   time.Time `json:"createdAt"` // UTC
}

type NewGrade struct {
	StudentID   string   `json:"studentId" validate:"required,uuid"`
	SubjectID   string   `json:"subjectId" validate:"required,uuid"`
	GroupID     string   `json:"groupId" validate:"required,uuid"`
	GradeValue  *float64 `json:"gradeValue" validate:"required,gte=0"`
	MaxValue    *float64 `json:"maxValue" validate:"required,gte=1,lte=999.99"`
	GradeType   string   `json:"gradeType" validate:"required,gradetype"`
	Title       string   `json:"title" validate:"required,notblank,max=200"`
	Description string   `json:"description"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.Title = core.CleanString(ng.Title)
	ng.Description = core.CleanString(ng.Description)
	ng.GradeType = core.CleanString(ng.GradeType, true /* lower */)
	if ng.MaxValue == nil {
		max := DefaultMaxValue
		ng.MaxValue = &max
	}
	return validate.Struct(ng)
}

type UpdateGrade struct {
	GradeValue  *float64 `json:"gradeValue" validate:"omitempty,gte=0"`
	MaxValue    *float64 `json:"maxValue" validate:"omitempty,gte=1,lte=999.99"`
	GradeType   *string  `json:"gradeType" validate:"omitnil,gradetype"`
	Title       *string  `json:"title" validate:"omitnil,notblank,max=200"`
	Description *string  `json:"description"`
}

func (ug *UpdateGrade) Validate(validate *validator.Validate) error {
	if ug.Title != nil {
		*ug.Title = core.CleanString(*ug.Title)
	}
	if ug.Description != nil {
		*ug.Description = core.CleanString(*ug.Description)
	}
	if ug.GradeType != nil {
		*ug.GradeType = core.CleanString(*ug.GradeType, true /* lower */)
	}
	return validate.Struct(ug)
}

func (ug UpdateGrade) Merge(g Grade) Grade {
	if ug.GradeValue != nil {
		g.GradeValue = Round(*ug.GradeValue)
	}
	if ug.MaxValue != nil {
		g.MaxValue = Round(*ug.MaxValue)
	}
	g.GradeType = core.StringValue(ug.GradeType, g.GradeType)
	g.Title = core.StringValue(ug.Title, g.Title)
	g.Description = core.StringValue(ug.Description, g.Description)
	return g
}

type QueryFilter struct {
	StudentID string `query:"studentId"`
	SubjectID string `query:"subjectId"`
	GroupID   string `query:"groupId"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf == nil || (qf.StudentID == "" && qf.SubjectID == "" && qf.GroupID == "")
}
