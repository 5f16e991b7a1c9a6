package schedule

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecole/core"
)

var (
	timeRangeTag  = "timerange"
	timeRangeText = "endTime must be after startTime"
)

// InitValidators registers the schedule validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(scheduleStructValidation, NewSchedule{})
	core.RegisterCustomTranslation(validate, translator, timeRangeTag, timeRangeText)
}

func scheduleStructValidation(sl validator.StructLevel) {
	ns := sl.Current().Interface().(NewSchedule)
	if !validRange(ns.StartTime, ns.EndTime) {
		sl.ReportError(ns.EndTime, "endTime", "endTime", timeRangeTag, "")
	}
}

// validRange reports whether end comes after start. Malformed times are left to the hhmm validator.
func validRange(start, end string) bool {
	if !core.IsValidTime(start) || !core.IsValidTime(end) {
		return true
	}
	// zero-padded HH:MM strings order lexically
	return end > start
}

func timeRangeError() error {
	return core.NewValidationError(nil, core.FieldError{Field: "endTime", Error: timeRangeText})
}
