package grade

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/group"
	"github.com/trezcool/ecole/core/notification"
	"github.com/trezcool/ecole/core/subject"
	"github.com/trezcool/ecole/core/user"
)

var (
	ErrNotFound   = core.NewNotFoundError("grade")
	errNotStudent = "user is not a student"
)

type (
	Repository interface {
		CreateGrade(ctx context.Context, g Grade, exec ...core.DBExecutor) (Grade, error)
		// QueryGrades returns the grades matching filter, most recently graded first.
		QueryGrades(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Grade, error)
		GetGradeByID(ctx context.Context, id string, exec ...core.DBExecutor) (Grade, error)
		UpdateGrade(ctx context.Context, g Grade, exec ...core.DBExecutor) (Grade, error)
		DeleteGrade(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo          Repository
		users         user.Repository
		groups        group.Repository
		subjects      subject.Repository
		notifications notification.Repository
		tx            core.Transactor
		activities    activity.Repository
	}
)

func NewService(
	repo Repository,
	users user.Repository,
	groups group.Repository,
	subjects subject.Repository,
	notifications notification.Repository,
	tx core.Transactor,
	activities activity.Repository,
) *Service {
	return &Service{
		repo:          repo,
		users:         users,
		groups:        groups,
		subjects:      subjects,
		notifications: notifications,
		tx:            tx,
		activities:    activities,
	}
}

// checkReferences resolves the records ng points to and returns the subject, used in notifications.
func (svc *Service) checkReferences(ctx context.Context, ng NewGrade) (subject.Subject, error) {
	student, err := svc.users.GetUserByID(ctx, ng.StudentID)
	if err != nil {
		return subject.Subject{}, errors.Wrap(core.NewReferenceError(err, "studentId"), "getting student")
	}
	if !student.IsStudent() {
		return subject.Subject{}, core.NewValidationError(nil, core.FieldError{Field: "studentId", Error: errNotStudent})
	}
	if _, err = svc.groups.GetGroupByID(ctx, ng.GroupID); err != nil {
		return subject.Subject{}, errors.Wrap(core.NewReferenceError(err, "groupId"), "getting group")
	}
	sub, err := svc.subjects.GetSubjectByID(ctx, ng.SubjectID)
	if err != nil {
		return subject.Subject{}, errors.Wrap(core.NewReferenceError(err, "subjectId"), "getting subject")
	}
	return sub, nil
}

func newGrade(actorID string, ng NewGrade) Grade {
	maxValue := DefaultMaxValue
	if ng.MaxValue != nil {
		maxValue = *ng.MaxValue
	}
	now := core.Now()
	return Grade{
		StudentID:   ng.StudentID,
		SubjectID:   ng.SubjectID,
		GroupID:     ng.GroupID,
		GradeValue:  Round(*ng.GradeValue),
		MaxValue:    Round(maxValue),
		GradeType:   ng.GradeType,
		Title:       ng.Title,
		Description: ng.Description,
		GradedBy:    actorID,
		GradedAt:    now,
		CreatedAt:   now,
	}
}

// create persists g and notifies its student, with the caller's executor.
func (svc *Service) create(ctx context.Context, exec core.DBExecutor, g Grade, subjectName string) (Grade, error) {
	g, err := svc.repo.CreateGrade(ctx, g, exec)
	if err != nil {
		return Grade{}, errors.Wrap(err, "creating grade")
	}
	msg := fmt.Sprintf("You received %g/%g in %s: %s", g.GradeValue, g.MaxValue, subjectName, g.Title)
	if err = notification.Notify(ctx, svc.notifications, exec, g.StudentID, notification.TypeSuccess, "New grade", msg); err != nil {
		return Grade{}, err
	}
	return g, nil
}

// Create records a validated grade, logs it and notifies the student.
func (svc *Service) Create(ctx context.Context, actorID string, ng NewGrade) (Grade, error) {
	if ng.GradeValue == nil {
		return Grade{}, core.NewValidationError(nil, core.FieldError{Field: "gradeValue", Error: "this field is required"})
	}
	sub, err := svc.checkReferences(ctx, ng)
	if err != nil {
		return Grade{}, err
	}

	g := newGrade(actorID, ng)
	if g.GradeValue > g.MaxValue {
		return Grade{}, valueExceedsMaxError()
	}

	err = svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if g, err = svc.create(ctx, exec, g, sub.Name); err != nil {
			return err
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionCreateGrade, activity.EntityGrade, g.ID,
			activity.Details{"title": g.Title, "value": g.GradeValue, "maxValue": g.MaxValue, "gradeType": g.GradeType},
		)
	})
	if err != nil {
		return Grade{}, err
	}
	return g, nil
}

// Import records a batch of validated grades as a single unit of work with a single activity entry.
// Row errors are reported with the 1-based row number of the offending grade.
func (svc *Service) Import(ctx context.Context, actorID string, rows []NewGrade) ([]Grade, error) {
	if len(rows) == 0 {
		return nil, core.NewValidationError(errors.New("no grades to import"))
	}

	grades := make([]Grade, 0, len(rows))
	subjectNames := make([]string, 0, len(rows))
	for i, ng := range rows {
		if ng.GradeValue == nil {
			return nil, core.NewValidationError(nil, core.FieldError{Field: rowField(i, "gradeValue"), Error: "this field is required"})
		}
		sub, err := svc.checkReferences(ctx, ng)
		if err != nil {
			return nil, prefixRow(i, err)
		}
		g := newGrade(actorID, ng)
		if g.GradeValue > g.MaxValue {
			return nil, core.NewValidationError(nil, core.FieldError{Field: rowField(i, "gradeValue"), Error: gradeMaxText})
		}
		grades = append(grades, g)
		subjectNames = append(subjectNames, sub.Name)
	}

	err := svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		for i := range grades {
			g, err := svc.create(ctx, exec, grades[i], subjectNames[i])
			if err != nil {
				return err
			}
			grades[i] = g
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionImportGrades, activity.EntityGrade, "",
			activity.Details{"count": len(grades)},
		)
	})
	if err != nil {
		return nil, err
	}
	return grades, nil
}

func rowField(i int, field string) string {
	return fmt.Sprintf("row %d: %s", i+1, field)
}

// prefixRow prefixes the field errors of a validation error with the row number.
func prefixRow(i int, err error) error {
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	if !ok {
		return err
	}
	flds := make([]core.FieldError, 0, len(vErr.Fields))
	for _, f := range vErr.Fields {
		flds = append(flds, core.FieldError{Field: rowField(i, f.Field), Error: f.Error})
	}
	return core.NewValidationError(vErr.Err, flds...)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Grade, error) {
	return svc.repo.GetGradeByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, actorID, id string, ug UpdateGrade) (Grade, error) {
	g, err := svc.repo.GetGradeByID(ctx, id)
	if err != nil {
		return Grade{}, err
	}
	g = ug.Merge(g)
	if g.GradeValue > g.MaxValue {
		return Grade{}, valueExceedsMaxError()
	}

	err = svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if g, err = svc.repo.UpdateGrade(ctx, g, exec); err != nil {
			return errors.Wrap(err, "updating grade")
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionUpdateGrade, activity.EntityGrade, g.ID,
			activity.Details{"updates": ug},
		)
	})
	if err != nil {
		return Grade{}, err
	}
	return g, nil
}

func (svc *Service) Delete(ctx context.Context, actorID, id string) error {
	return svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.repo.DeleteGrade(ctx, id, exec); err != nil {
			return errors.Wrap(err, "deleting grade")
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionDeleteGrade, activity.EntityGrade, id,
			activity.Details{"deletedAt": core.Now()},
		)
	})
}
