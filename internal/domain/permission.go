package domain

// Permission is a key checked against the caller's permission set.
type Permission string

const (
	PermissionCreate         Permission = "tickets.create"
	PermissionUpdate         Permission = "tickets.update"
	PermissionAssign         Permission = "tickets.assign"
	PermissionValidate       Permission = "tickets.validate"
	PermissionValidateOwn    Permission = "tickets.validate_own"
	PermissionDelete         Permission = "tickets.delete"
	PermissionOverrideStatus Permission = "tickets.override_status"
)

// KnownPermissions lists every key the engine consults.
var KnownPermissions = []Permission{
	PermissionCreate,
	PermissionUpdate,
	PermissionAssign,
	PermissionValidate,
	PermissionValidateOwn,
	PermissionDelete,
	PermissionOverrideStatus,
}
