package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecole/core"
)

// Schedule is a weekly timetable slot. Slots may overlap.
type Schedule struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"groupId"`
	SubjectID   string    `json:"subjectId"`
	ProfessorID string    `json:"professorId"`
	DayOfWeek   int       `json:"dayOfWeek"` // 0 (Sunday) - 6 (Saturday)
	StartTime   string    `json:"startTime"` // HH:MM
	EndTime     string    `json:"endTime"`   // HH:MM
	Room        string    `json:"room,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
}

type NewSchedule struct {
	GroupID     string `json:"groupId" validate:"required,uuid"`
	SubjectID   string `json:"subjectId" validate:"required,uuid"`
	ProfessorID string `json:"professorId" validate:"required,uuid"`
	DayOfWeek   *int   `json:"dayOfWeek" validate:"required,gte=0,lte=6"`
	StartTime   string `json:"startTime" validate:"required,hhmm"`
	EndTime     string `json:"endTime" validate:"required,hhmm"`
	Room        string `json:"room" validate:"max=50"`
	Notes       string `json:"notes"`
	IsActive    *bool  `json:"isActive"`
}

func (ns *NewSchedule) Validate(validate *validator.Validate) error {
	ns.StartTime = core.CleanString(ns.StartTime)
	ns.EndTime = core.CleanString(ns.EndTime)
	ns.Room = core.CleanString(ns.Room)
	ns.Notes = core.CleanString(ns.Notes)
	return validate.Struct(ns)
}

type UpdateSchedule struct {
	GroupID     *string `json:"groupId" validate:"omitnil,uuid"`
	SubjectID   *string `json:"subjectId" validate:"omitnil,uuid"`
	ProfessorID *string `json:"professorId" validate:"omitnil,uuid"`
	DayOfWeek   *int    `json:"dayOfWeek" validate:"omitempty,gte=0,lte=6"`
	StartTime   *string `json:"startTime" validate:"omitnil,hhmm"`
	EndTime     *string `json:"endTime" validate:"omitnil,hhmm"`
	Room        *string `json:"room" validate:"omitempty,max=50"`
	Notes       *string `json:"notes"`
	IsActive    *bool   `json:"isActive"`
}

func (us *UpdateSchedule) Validate(validate *validator.Validate) error {
	for _, s := range []*string{us.StartTime, us.EndTime, us.Room, us.Notes} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	return validate.Struct(us)
}

func (us UpdateSchedule) Merge(s Schedule) Schedule {
	s.GroupID = core.StringValue(us.GroupID, s.GroupID)
	s.SubjectID = core.StringValue(us.SubjectID, s.SubjectID)
	s.ProfessorID = core.StringValue(us.ProfessorID, s.ProfessorID)
	if us.DayOfWeek != nil {
		s.DayOfWeek = *us.DayOfWeek
	}
	s.StartTime = core.StringValue(us.StartTime, s.StartTime)
	s.EndTime = core.StringValue(us.EndTime, s.EndTime)
	s.Room = core.StringValue(us.Room, s.Room)
	s.Notes = core.StringValue(us.Notes, s.Notes)
	s.IsActive = core.BoolValue(us.IsActive, s.IsActive)
	return s
}

// QueryFilter selects schedules by group or, when GroupID is empty, by professor.
type QueryFilter struct {
	GroupID     string `query:"groupId"`
	ProfessorID string `query:"professorId"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf == nil || (qf.GroupID == "" && qf.ProfessorID == "")
}
