package user

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/policy"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrDeleteSelf         = errors.New("you cannot delete your own account")
)

type (
	Repository interface {
		// CreateUser assigns an ID to usr and persists it. It returns ErrEmailExists when the email is taken.
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.FirstName, User.LastName or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (User, error)
		GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		DeleteUser(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo       Repository
		tx         core.Transactor
		activities activity.Repository
		mailSvc    core.EmailService
	}
)

func NewService(repo Repository, tx core.Transactor, activities activity.Repository, mailSvc core.EmailService) *Service {
	return &Service{
		repo:       repo,
		tx:         tx,
		activities: activities,
		mailSvc:    mailSvc,
	}
}

func emailConflict(err error) error {
	if errors.Cause(err) == ErrEmailExists {
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	}
	return err
}

func (svc *Service) checkEmail(ctx context.Context, email string, exclID string) error {
	existing, err := svc.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.ID != exclID {
			return emailConflict(ErrEmailExists)
		}
		return nil
	case core.IsNotFound(err):
		return nil
	default:
		return errors.Wrap(err, "checking email")
	}
}

func (svc *Service) newUser(nu NewUser) (User, error) {
	now := core.Now()
	usr := User{
		Email:              nu.Email,
		FirstName:          nu.FirstName,
		LastName:           nu.LastName,
		Role:               nu.Role,
		IsActive:           core.BoolValue(nu.IsActive, true),
		MustChangePassword: core.BoolValue(nu.MustChangePassword, true),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return usr, nil
}

// Create creates a user on behalf of actor, who must be allowed to manage the new user's role.
func (svc *Service) Create(ctx context.Context, actor User, nu NewUser) (User, error) {
	if !policy.CanManageRole(actor.Role, nu.Role) {
		return User{}, core.ErrPermissionDenied
	}
	if err := svc.checkEmail(ctx, nu.Email, ""); err != nil {
		return User{}, err
	}

	usr, err := svc.newUser(nu)
	if err != nil {
		return User{}, err
	}
	usr.CreatedBy = actor.ID

	err = svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if usr, err = svc.repo.CreateUser(ctx, usr, exec); err != nil {
			return emailConflict(errors.Wrap(err, "creating user"))
		}
		return activity.Record(ctx, svc.activities, exec, actor.ID, activity.ActionCreateUser, activity.EntityUser, usr.ID,
			activity.Details{"email": usr.Email, "role": usr.Role, "name": usr.FullName()},
		)
	})
	if err != nil {
		return User{}, err
	}

	svc.sendWelcomeEmail(usr)
	return usr, nil
}

// Register creates a user without an actor. It is meant for administration commands.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.checkEmail(ctx, nu.Email, ""); err != nil {
		return User{}, err
	}
	usr, err := svc.newUser(nu)
	if err != nil {
		return User{}, err
	}
	usr, err = svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, emailConflict(errors.Wrap(err, "creating user"))
	}
	return usr, nil
}

func (svc *Service) sendWelcomeEmail(usr User) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Your account has been created",
		TemplateName: "welcome",
		TemplateData: map[string]interface{}{
			"FirstName":          usr.FirstName,
			"Email":              usr.Email,
			"Role":               usr.Role,
			"MustChangePassword": usr.MustChangePassword,
		},
	})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Update applies uu to the user identified by id.
// A professor may only update student and parent accounts, and may not promote them.
func (svc *Service) Update(ctx context.Context, actor User, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !policy.CanManageRole(actor.Role, usr.Role) {
		return User{}, core.ErrPermissionDenied
	}
	if uu.Role != nil && !policy.CanManageRole(actor.Role, *uu.Role) {
		return User{}, core.ErrPermissionDenied
	}
	if uu.Email != nil && *uu.Email != usr.Email {
		if err = svc.checkEmail(ctx, *uu.Email, usr.ID); err != nil {
			return User{}, err
		}
	}

	usr = uu.Merge(usr)
	if uu.Password != "" {
		if err = usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	usr.UpdatedAt = core.Now()

	err = svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if usr, err = svc.repo.UpdateUser(ctx, usr, exec); err != nil {
			return emailConflict(errors.Wrap(err, "updating user"))
		}
		return activity.Record(ctx, svc.activities, exec, actor.ID, activity.ActionUpdateUser, activity.EntityUser, usr.ID,
			activity.Details{"fields": uu.Changes()},
		)
	})
	if err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *Service) Delete(ctx context.Context, actor User, id string) error {
	if actor.ID == id {
		return core.NewValidationError(ErrDeleteSelf)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanManageRole(actor.Role, usr.Role) {
		return core.ErrPermissionDenied
	}

	return svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.repo.DeleteUser(ctx, id, exec); err != nil {
			return errors.Wrap(err, "deleting user")
		}
		return activity.Record(ctx, svc.activities, exec, actor.ID, activity.ActionDeleteUser, activity.EntityUser, id,
			activity.Details{"email": usr.Email, "deletedAt": core.Now()},
		)
	})
}

// Authenticate checks the credentials and logs the login.
// Unknown emails, wrong passwords and inactive accounts all yield ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, creds LoginCredentials) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "getting user")
	}
	if err = usr.CheckPassword(creds.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrInvalidCredentials
	}

	err = svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		return activity.Record(ctx, svc.activities, exec, usr.ID, activity.ActionLogin, activity.EntityUser, usr.ID,
			activity.Details{"email": usr.Email, "loginTime": core.Now()},
		)
	})
	if err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *Service) RecordLogout(ctx context.Context, userID string) error {
	return svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		return activity.Record(ctx, svc.activities, exec, userID, activity.ActionLogout, activity.EntityUser, userID,
			activity.Details{"logoutTime": core.Now()},
		)
	})
}

// ChangePassword replaces the password of usr after checking the current one, and clears MustChangePassword.
func (svc *Service) ChangePassword(ctx context.Context, usr User, cp ChangePassword) (User, error) {
	if err := usr.CheckPassword(cp.CurrentPassword); err != nil {
		return User{}, core.NewValidationError(ErrWrongPassword,
			core.FieldError{Field: "currentPassword", Error: ErrWrongPassword.Error()},
		)
	}
	if IsPasswordTooSimilar(cp.NewPassword, usr.FirstName, usr.LastName, usr.Email) {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "newPassword", Error: pwdAttrSimText})
	}

	if err := usr.SetPassword(cp.NewPassword); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.MustChangePassword = false
	usr.UpdatedAt = core.Now()

	err := svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if usr, err = svc.repo.UpdateUser(ctx, usr, exec); err != nil {
			return errors.Wrap(err, "updating user")
		}
		return activity.Record(ctx, svc.activities, exec, usr.ID, activity.ActionChangePassword, activity.EntityUser, usr.ID,
			activity.Details{"changedAt": core.Now()},
		)
	})
	if err != nil {
		return User{}, err
	}
	return usr, nil
}

// ResetPassword sets a new password without checking the current one. It is meant for administration commands.
func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.MustChangePassword = true
	usr.UpdatedAt = core.Now()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "updating user")
}

// EnsureDefaultAdmin creates the default administrator unless a user already holds its email.
func (svc *Service) EnsureDefaultAdmin(ctx context.Context, email, pwd string) (bool, error) {
	email = core.CleanString(email, true /* lower */)
	_, err := svc.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !core.IsNotFound(err) {
		return false, errors.Wrap(err, "getting default admin")
	}

	mustChange := false
	usr, err := svc.newUser(NewUser{
		Email:              email,
		FirstName:          "Admin",
		LastName:           "System",
		Role:               RoleAdmin,
		Password:           pwd,
		MustChangePassword: &mustChange,
	})
	if err != nil {
		return false, err
	}
	if _, err = svc.repo.CreateUser(ctx, usr); err != nil {
		return false, errors.Wrap(err, "creating default admin")
	}
	return true, nil
}
