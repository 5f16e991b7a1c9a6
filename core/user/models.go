package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/ecole/core"
)

// Roles
const (
	RoleAdmin     = "admin"
	RoleProfessor = "professor"
	RoleStudent   = "student"
	RoleParent    = "parent"
)

var (
	AllRoles = []string{RoleAdmin, RoleProfessor, RoleStudent, RoleParent}

	// bcrypt cost; lowered by tests
	PasswordHashCost = bcrypt.DefaultCost
)

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	PasswordHash       []byte    `json:"-"`
	FirstName          string    `json:"firstName"`
	LastName           string    `json:"lastName"`
	Role               string    `json:"role"`
	IsActive           bool      `json:"isActive"`
	MustChangePassword bool      `json:"mustChangePassword"`
	CreatedBy          string    `json:"createdBy,omitempty"`
	CreatedAt          time.Time `json:"createdAt"` // UTC
	UpdatedAt          time.Time `json:"updatedAt"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), PasswordHashCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword fails for users whose password was never set.
func (u *User) CheckPassword(pwd string) error {
	if len(u.PasswordHash) == 0 {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) FullName() string {
	return core.CleanString(u.FirstName + " " + u.LastName)
}

func (u User) IsAdmin() bool     { return u.Role == RoleAdmin }
func (u User) IsProfessor() bool { return u.Role == RoleProfessor }
func (u User) IsStudent() bool   { return u.Role == RoleStudent }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Email              string `json:"email" validate:"required,email,max=255"`
	FirstName          string `json:"firstName" validate:"required,notblank,max=100"`
	LastName           string `json:"lastName" validate:"required,notblank,max=100"`
	Role               string `json:"role" validate:"required,role"`
	Password           string `json:"password" validate:"required"`
	ConfirmPassword    string `json:"confirmPassword" validate:"required,eqfield=Password"`
	IsActive           *bool  `json:"isActive"`
	MustChangePassword *bool  `json:"mustChangePassword"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	if nu.Role == "" {
		nu.Role = RoleStudent
	}
	return validate.Struct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Nil fields are left untouched.
type UpdateUser struct {
	Email              *string `json:"email" validate:"omitnil,email,max=255"`
	FirstName          *string `json:"firstName" validate:"omitnil,notblank,max=100"`
	LastName           *string `json:"lastName" validate:"omitnil,notblank,max=100"`
	Role               *string `json:"role" validate:"omitnil,role"`
	IsActive           *bool   `json:"isActive"`
	MustChangePassword *bool   `json:"mustChangePassword"`
	Password           string  `json:"password"`
	ConfirmPassword    string  `json:"confirmPassword" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate) error {
	clean := func(s *string, lower bool) {
		if s != nil {
			*s = core.CleanString(*s, lower)
		}
	}
	clean(uu.Email, true)
	clean(uu.FirstName, false)
	clean(uu.LastName, false)
	clean(uu.Role, true)
	return validate.Struct(uu)
}

// Merge returns a copy of usr with the provided fields applied.
func (uu UpdateUser) Merge(usr User) User {
	usr.Email = core.StringValue(uu.Email, usr.Email)
	usr.FirstName = core.StringValue(uu.FirstName, usr.FirstName)
	usr.LastName = core.StringValue(uu.LastName, usr.LastName)
	usr.Role = core.StringValue(uu.Role, usr.Role)
	usr.IsActive = core.BoolValue(uu.IsActive, usr.IsActive)
	usr.MustChangePassword = core.BoolValue(uu.MustChangePassword, usr.MustChangePassword)
	return usr
}

// Changes lists the names of the fields that are set, for activity details.
func (uu UpdateUser) Changes() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(uu.Email != nil, "email")
	add(uu.FirstName != nil, "firstName")
	add(uu.LastName != nil, "lastName")
	add(uu.Role != nil, "role")
	add(uu.IsActive != nil, "isActive")
	add(uu.MustChangePassword != nil, "mustChangePassword")
	add(uu.Password != "", "password")
	return fields
}

type ChangePassword struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

func (cp ChangePassword) Validate(validate *validator.Validate) error { return validate.Struct(cp) }

type LoginCredentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (lc *LoginCredentials) Validate(validate *validator.Validate) error {
	lc.Email = core.CleanString(lc.Email, true /* lower */)
	return validate.Struct(lc)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Role     string `query:"role"`
	IsActive *bool  `query:"isActive"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf == nil || (qf.Search == "" && qf.Role == "" && qf.IsActive == nil)
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search, true /* lower */)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}
