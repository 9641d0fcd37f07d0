package domain

// Action is an operation a caller attempts on a resource.
type Action string

const (
	ActionListUsers       Action = "list_users"
	ActionReadUser        Action = "read_user"
	ActionCreateUser      Action = "create_user"
	ActionUpdateUser      Action = "update_user"
	ActionUpdateBanStatus Action = "update_ban_status"
	ActionDeleteUser      Action = "delete_user"
	ActionReadAdmin       Action = "read_admin"
)

// Decision is the outcome of Authorize.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Caller is an authenticated, currently existing identity.
type Caller struct {
	Kind        SubjectKind
	ID          string
	Permissions Permission
}

// AdminCaller builds the caller for an admin record.
func AdminCaller(a *Admin) Caller {
	return Caller{Kind: KindAdmin, ID: a.ID, Permissions: a.Permissions}
}

// UserCaller builds the caller for a user record.
func UserCaller(u *User) Caller {
	return Caller{Kind: KindUser, ID: u.ID}
}

// IsAdmin reports whether the caller is an admin.
func (c Caller) IsAdmin() bool { return c.Kind == KindAdmin }

// owns reports whether the caller is the target identity itself.
func (c Caller) owns(targetID string) bool {
	return c.ID != "" && c.ID == targetID
}

// userManagement is the permission set that grants access to other users' accounts.
const userManagement = PermSuperAdmin | PermManageUsers

// adminRequirements lists, per action, the permissions of which an admin needs at least one.
var adminRequirements = map[Action]Permission{
	ActionListUsers:  userManagement,
	ActionReadUser:   userManagement,
	ActionCreateUser: userManagement,
	ActionUpdateUser: userManagement,
	ActionDeleteUser: userManagement,
}

// ownerActions are the actions a user may perform on their own account.
var ownerActions = map[Action]bool{
	ActionReadUser:   true,
	ActionUpdateUser: true,
	ActionDeleteUser: true,
}

// Authorize decides whether caller may perform action on the identity targetID.
// targetID is ignored for actions that do not address a single identity.
func Authorize(caller Caller, action Action, targetID string) Decision {
	if caller.ID == "" {
		return Deny
	}

	switch caller.Kind {
	case KindAdmin:
		switch action {
		case ActionUpdateBanStatus:
			return Allow
		case ActionReadAdmin:
			if caller.owns(targetID) {
				return Allow
			}
			return Deny
		}
		if required, ok := adminRequirements[action]; ok && caller.Permissions.Any(required) {
			return Allow
		}
		return Deny

	case KindUser:
		if ownerActions[action] && caller.owns(targetID) {
			return Allow
		}
		return Deny
	}

	return Deny
}
