package domain

// Standard roles
const (
	RoleUser   = "ROLE_USER"
	RoleVendor = "ROLE_VENDOR"
	RoleAdmin  = "ROLE_ADMIN"
)
