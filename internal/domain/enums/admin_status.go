package enums

type AdminStatus string

const (
	AdminStatusOwner         AdminStatus = "OWNER"
	AdminStatusAdministrator AdminStatus = "ADMINISTRATOR"
	AdminStatusMember        AdminStatus = "MEMBER"
	AdminStatusUnknown       AdminStatus = "UNKNOWN"
)

// IsPrivileged reports whether the status exempts a user from moderation
// and allows them to issue chat commands.
func (s AdminStatus) IsPrivileged() bool {
	return s == AdminStatusOwner || s == AdminStatusAdministrator
}
