package activity

import (
	"time"
)

// Actions
const (
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionChangePassword = "change_password"

	ActionCreateUser = "create_user"
	ActionUpdateUser = "update_user"
	ActionDeleteUser = "delete_user"

	ActionCreateGroup = "create_group"
	ActionUpdateGroup = "update_group"
	ActionDeleteGroup = "delete_group"

	ActionCreateSubject = "create_subject"

	ActionUploadMaterial = "upload_material"
	ActionUpdateMaterial = "update_material"
	ActionDeleteMaterial = "delete_material"

	ActionCreateGrade  = "create_grade"
	ActionUpdateGrade  = "update_grade"
	ActionDeleteGrade  = "delete_grade"
	ActionImportGrades = "import_grades"

	ActionCreateSchedule = "create_schedule"
	ActionUpdateSchedule = "update_schedule"
	ActionDeleteSchedule = "delete_schedule"

	ActionReadNotification = "read_notification"

	ActionCreateMessage = "create_message"
	ActionDeleteMessage = "delete_message"
	ActionCreateComment = "create_comment"
	ActionLikeMessage   = "like_message"
	ActionUnlikeMessage = "unlike_message"
)

// Entity types
const (
	EntityUser         = "user"
	EntityGroup        = "group"
	EntitySubject      = "subject"
	EntityMaterial     = "material"
	EntityGrade        = "grade"
	EntitySchedule     = "schedule"
	EntityNotification = "notification"
	EntityMessage      = "message"
	EntityComment      = "comment"
)

// Details is the free-form JSON payload of a Log. It must never carry secrets.
type Details map[string]interface{}

// Log records who did what to which entity. Logs are append-only.
type Log struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId,omitempty"`
	Details    Details   `json:"details"`
	CreatedAt  time.Time `json:"createdAt"`
}

type QueryFilter struct {
	UserID     string `query:"userId"`
	EntityType string `query:"entityType"`
	EntityID   string `query:"entityId"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf == nil || (qf.UserID == "" && qf.EntityType == "" && qf.EntityID == "")
}
