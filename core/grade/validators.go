package grade

import (
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecole/core"
)

var (
	gradeTypeTag  = "gradetype"
	gradeTypeText = fmt.Sprintf("{0} must be one of: %s", strings.Join(AllTypes, ", "))

	gradeMaxTag  = "grademax"
	gradeMaxText = "gradeValue cannot be greater than maxValue"
)

// InitValidators registers the grade validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(gradeTypeTag, func(fl validator.FieldLevel) bool {
		return IsValidType(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, gradeTypeTag, gradeTypeText)

	validate.RegisterStructValidation(gradeStructValidation, NewGrade{})
	core.RegisterCustomTranslation(validate, translator, gradeMaxTag, gradeMaxText)
}

// gradeStructValidation checks that the grade value does not exceed the maximum.
func gradeStructValidation(sl validator.StructLevel) {
	ng := sl.Current().Interface().(NewGrade)
	if ng.GradeValue != nil && ng.MaxValue != nil && *ng.GradeValue > *ng.MaxValue {
		sl.ReportError(*ng.GradeValue, "gradeValue", "gradeValue", gradeMaxTag, "")
	}
}

func valueExceedsMaxError() error {
	return core.NewValidationError(nil, core.FieldError{Field: "gradeValue", Error: gradeMaxText})
}
