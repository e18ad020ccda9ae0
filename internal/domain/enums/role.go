package enums

type Role string

const (
	RoleUser  Role = "user"
	RoleBaker Role = "baker"
	RoleAdmin Role = "admin"
)
