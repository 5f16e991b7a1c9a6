package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func failedTags(err error) map[string]string {
	tags := make(map[string]string)
	if vErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range vErrs {
			tags[fe.Field()] = fe.Tag()
		}
	}
	return tags
}

func TestNewUserValidate(t *testing.T) {
	validate := newValidator()

	valid := func() NewUser {
		return NewUser{
			Email:           "  John.Doe@Ecole.com ",
			FirstName:       " John ",
			LastName:        "Doe",
			Password:        "s3cr3t!x",
			ConfirmPassword: "s3cr3t!x",
		}
	}

	t.Run("valid input is cleaned", func(t *testing.T) {
		nu := valid()
		require.NoError(t, nu.Validate(validate))
		assert.Equal(t, "john.doe@ecole.com", nu.Email)
		assert.Equal(t, "John", nu.FirstName)
		assert.Equal(t, RoleStudent, nu.Role)
	})

	tests := []struct {
		name      string
		mutate    func(nu *NewUser)
		wantField string
		wantTag   string
	}{
		{"bad email", func(nu *NewUser) { nu.Email = "nope" }, "email", "email"},
		{"blank first name", func(nu *NewUser) { nu.FirstName = "   " }, "firstName", "required"},
		{"unknown role", func(nu *NewUser) { nu.Role = "janitor" }, "role", roleTag},
		{"short password", func(nu *NewUser) { nu.Password, nu.ConfirmPassword = "abc", "abc" }, "password", pwdMinLenTag},
		{"whitespace password", func(nu *NewUser) { nu.Password, nu.ConfirmPassword = "abc def1", "abc def1" }, "password", pwdNoSpaceTag},
		{"password mismatch", func(nu *NewUser) { nu.ConfirmPassword = "other!pwd" }, "confirmPassword", "eqfield"},
		{"password too similar", func(nu *NewUser) { nu.Password, nu.ConfirmPassword = "johndoe1", "johndoe1" }, "password", pwdAttrSimTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := valid()
			tt.mutate(&nu)
			err := nu.Validate(validate)
			require.Error(t, err)
			assert.Equal(t, tt.wantTag, failedTags(err)[tt.wantField])
		})
	}
}

func TestUpdateUserValidateAndMerge(t *testing.T) {
	validate := newValidator()

	email := " NEW@ecole.com"
	role := "Parent"
	uu := UpdateUser{Email: &email, Role: &role}
	require.NoError(t, uu.Validate(validate))

	usr := User{ID: "1", Email: "old@ecole.com", FirstName: "Jane", LastName: "Doe", Role: RoleStudent, IsActive: true}
	merged := uu.Merge(usr)
	assert.Equal(t, "new@ecole.com", merged.Email)
	assert.Equal(t, RoleParent, merged.Role)
	assert.Equal(t, "Jane", merged.FirstName)
	assert.True(t, merged.IsActive)
	assert.ElementsMatch(t, []string{"email", "role"}, uu.Changes())

	t.Run("password requires confirmation", func(t *testing.T) {
		uu := UpdateUser{Password: "n3w!pass"}
		err := uu.Validate(validate)
		require.Error(t, err)
		assert.Equal(t, "required_with", failedTags(err)["confirmPassword"])
	})
}

func TestChangePasswordValidate(t *testing.T) {
	validate := newValidator()

	assert.NoError(t, ChangePassword{CurrentPassword: "old", NewPassword: "n3w!pass", ConfirmPassword: "n3w!pass"}.Validate(validate))

	err := ChangePassword{CurrentPassword: "old", NewPassword: "n3w!pass", ConfirmPassword: "other"}.Validate(validate)
	require.Error(t, err)
	assert.Equal(t, "eqfield", failedTags(err)["confirmPassword"])

	err = ChangePassword{CurrentPassword: "old", NewPassword: "abc", ConfirmPassword: "abc"}.Validate(validate)
	require.Error(t, err)
	assert.Equal(t, pwdMinLenTag, failedTags(err)["newPassword"])
}

func TestCheckPassword(t *testing.T) {
	PasswordHashCost = 4
	var usr User
	assert.Error(t, usr.CheckPassword(""), "unset password never matches")

	require.NoError(t, usr.SetPassword("s3cr3t!x"))
	assert.NoError(t, usr.CheckPassword("s3cr3t!x"))
	assert.Error(t, usr.CheckPassword("wrong"))
}
