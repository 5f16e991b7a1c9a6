package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		op   Operation
		role string
		want bool
	}{
		{UserCreate, roleAdmin, true},
		{UserCreate, roleProfessor, true},
		{UserCreate, roleStudent, false},
		{UserList, roleParent, false},
		{GroupList, roleStudent, true},
		{GroupCreate, roleParent, false},
		{GradeCreate, roleProfessor, true},
		{GradeCreate, roleStudent, false},
		{ScheduleList, roleParent, true},
		{ScheduleUpdate, roleStudent, false},
		{ActivityList, roleProfessor, true},
		{ActivityList, roleStudent, false},
		{NotificationRead, roleParent, true},
		{MessageCreate, roleStudent, false},
		{CommentCreate, roleStudent, true},
		{Operation("unknown:op"), roleAdmin, false},
		{GroupList, "janitor", false},
	}
	for _, tc := range tests {
		t.Run(string(tc.op)+"/"+tc.role, func(t *testing.T) {
			assert.Equal(t, tc.want, Allowed(tc.op, tc.role))
		})
	}
}

func TestCanManageRole(t *testing.T) {
	assert.True(t, CanManageRole(roleAdmin, roleAdmin))
	assert.True(t, CanManageRole(roleAdmin, roleProfessor))
	assert.True(t, CanManageRole(roleProfessor, roleStudent))
	assert.True(t, CanManageRole(roleProfessor, roleParent))
	assert.False(t, CanManageRole(roleProfessor, roleAdmin))
	assert.False(t, CanManageRole(roleProfessor, roleProfessor))
	assert.False(t, CanManageRole(roleStudent, roleStudent))
	assert.False(t, CanManageRole(roleParent, roleStudent))
}

func TestRolesReturnsCopy(t *testing.T) {
	roles := Roles(UserCreate)
	assert.ElementsMatch(t, []string{roleAdmin, roleProfessor}, roles)

	roles[0] = "hacked"
	assert.True(t, Allowed(UserCreate, roleAdmin))
}
