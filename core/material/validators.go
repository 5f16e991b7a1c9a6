package material

import (
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecole/core"
)

var (
	mimeTypeTag  = "materialtype"
	mimeTypeText = "file type not allowed"

	fileSizeTag  = "maxfilesize"
	fileSizeText = fmt.Sprintf("file cannot be larger than %d MB", MaxFileSize>>20)

	errFileURLRequired = "fileUrl is required when no file is uploaded"
)

// InitValidators registers the material validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(mimeTypeTag, func(fl validator.FieldLevel) bool {
		return IsAllowedType(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, mimeTypeTag, mimeTypeText)

	_ = validate.RegisterValidation(fileSizeTag, func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= MaxFileSize
	})
	core.RegisterCustomTranslation(validate, translator, fileSizeTag, fileSizeText)
}
