package project

// Action is a project operation subject to role checks.
type Action string

const (
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionChangeStatus Action = "changeStatus"
	ActionAddMember    Action = "addMember"
	ActionRemoveMember Action = "removeMember"
	ActionArchive      Action = "archive"
	// ActionView is checked by membership, not by the role table.
	ActionView Action = "view"
)

// Actions returns every action governed by the role table.
func Actions() []Action {
	return []Action{ActionUpdate, ActionDelete, ActionChangeStatus, ActionAddMember, ActionRemoveMember, ActionArchive}
}

// Allowed reports whether role grants action.
func Allowed(role Role, action Action) bool {
	switch role {
	case RoleOwner:
		switch action {
		case ActionUpdate, ActionDelete, ActionChangeStatus, ActionAddMember, ActionRemoveMember, ActionArchive:
			return true
		}
	case RoleManager:
		switch action {
		case ActionUpdate, ActionChangeStatus, ActionAddMember:
			return true
		}
	case RoleMember:
		return action == ActionUpdate
	case RoleViewer, RoleNone:
	}
	return false
}

// CheckPermission fails with a PermissionError when role lacks action.
func CheckPermission(role Role, action Action) error {
	if !Allowed(role, action) {
		return &PermissionError{Action: action}
	}
	return nil
}
