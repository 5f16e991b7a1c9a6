// Package policy holds the role policy: which roles may perform which operation.
// Every route goes through Allowed before reaching a service.
package policy

// Operation names a gated action.
type Operation string

const (
	UserList   Operation = "user:list"
	UserRead   Operation = "user:read"
	UserCreate Operation = "user:create"
	UserUpdate Operation = "user:update"
	UserDelete Operation = "user:delete"

	GroupList   Operation = "group:list"
	GroupRead   Operation = "group:read"
	GroupCreate Operation = "group:create"
	GroupUpdate Operation = "group:update"
	GroupDelete Operation = "group:delete"

	SubjectList   Operation = "subject:list"
	SubjectRead   Operation = "subject:read"
	SubjectCreate Operation = "subject:create"

	MaterialList     Operation = "material:list"
	MaterialRead     Operation = "material:read"
	MaterialDownload Operation = "material:download"
	MaterialCreate   Operation = "material:create"
	MaterialUpdate   Operation = "material:update"
	MaterialDelete   Operation = "material:delete"

	GradeList   Operation = "grade:list"
	GradeRead   Operation = "grade:read"
	GradeCreate Operation = "grade:create"
	GradeUpdate Operation = "grade:update"
	GradeDelete Operation = "grade:delete"
	GradeExport Operation = "grade:export"
	GradeImport Operation = "grade:import"

	ScheduleList   Operation = "schedule:list"
	ScheduleRead   Operation = "schedule:read"
	ScheduleCreate Operation = "schedule:create"
	ScheduleUpdate Operation = "schedule:update"
	ScheduleDelete Operation = "schedule:delete"

	ActivityList Operation = "activity:list"

	NotificationList Operation = "notification:list"
	NotificationRead Operation = "notification:read"

	MessageList   Operation = "message:list"
	MessageCreate Operation = "message:create"
	MessageDelete Operation = "message:delete"
	CommentList   Operation = "comment:list"
	CommentCreate Operation = "comment:create"
	MessageLike   Operation = "message:like"
	MessageUnlike Operation = "message:unlike"
)

// Roles; kept in sync with the user package.
const (
	roleAdmin     = "admin"
	roleProfessor = "professor"
	roleStudent   = "student"
	roleParent    = "parent"
)

var (
	staff  = []string{roleAdmin, roleProfessor}
	anyone = []string{roleAdmin, roleProfessor, roleStudent, roleParent}

	table = map[Operation][]string{
		UserList:   staff,
		UserRead:   staff,
		UserCreate: staff,
		UserUpdate: staff,
		UserDelete: staff,

		GroupList:   anyone,
		GroupRead:   anyone,
		GroupCreate: staff,
		GroupUpdate: staff,
		GroupDelete: staff,

		SubjectList:   anyone,
		SubjectRead:   anyone,
		SubjectCreate: staff,

		MaterialList:     anyone,
		MaterialRead:     anyone,
		MaterialDownload: anyone,
		MaterialCreate:   staff,
		MaterialUpdate:   staff,
		MaterialDelete:   staff,

		GradeList:   anyone,
		GradeRead:   anyone,
		GradeCreate: staff,
		GradeUpdate: staff,
		GradeDelete: staff,
		GradeExport: staff,
		GradeImport: staff,

		ScheduleList:   anyone,
		ScheduleRead:   anyone,
		ScheduleCreate: staff,
		ScheduleUpdate: staff,
		ScheduleDelete: staff,

		ActivityList: staff,

		NotificationList: anyone,
		NotificationRead: anyone,

		MessageList:   anyone,
		MessageCreate: staff,
		MessageDelete: anyone, // author or admin, checked by the service
		CommentList:   anyone,
		CommentCreate: anyone,
		MessageLike:   anyone,
		MessageUnlike: anyone,
	}

	// roles each role may assign to, or manage on, other accounts
	manageable = map[string][]string{
		roleAdmin:     {roleAdmin, roleProfessor, roleStudent, roleParent},
		roleProfessor: {roleStudent, roleParent},
	}
)

// Allowed reports whether role may perform op. Unknown operations are denied.
func Allowed(op Operation, role string) bool {
	return contains(table[op], role)
}

// CanManageRole reports whether an actor with actorRole may create, update or delete
// an account holding targetRole, or grant targetRole to an account.
func CanManageRole(actorRole, targetRole string) bool {
	return contains(manageable[actorRole], targetRole)
}

// Roles returns the roles allowed to perform op.
func Roles(op Operation) []string {
	roles := make([]string, len(table[op]))
	copy(roles, table[op])
	return roles
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
