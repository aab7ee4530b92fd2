package constant

// RoleCode is an opaque numeric authorization tier.
type RoleCode int

const (
	RoleClient RoleCode = 1000
	RoleEditor RoleCode = 2000
	RoleAdmin  RoleCode = 5000
)

// DefaultRoleCode is assigned to every self-registered account.
const DefaultRoleCode = RoleClient

// KnownRoleCodes lists every role code accepted on account updates.
var KnownRoleCodes = []RoleCode{RoleClient, RoleEditor, RoleAdmin}

const (
	DefaultTokenType = "Bearer"

	RefreshCookieName   = "jwt"
	RefreshCookieMaxAge = 24 * 60 * 60
)

// Seed values for the bootstrap admin account.
const (
	AdminName         = "Admin"
	AdminBusinessType = "Admin Business"
)

const (
	MsgRegistrationPending = "Please check your email for a link to complete your registration."
	MsgEmailConfirmed      = "Email confirmed successfully"
	MsgPasswordResetSent   = "A password reset email has been sent to the provided email address if it exists in our system. Please check your inbox"
	MsgPasswordReset       = "Password reset successfully"
	MsgPasswordChanged     = "Password changed successfully!"
	MsgClientDeleted       = "Client deleted successfully"
)
