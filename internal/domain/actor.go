package domain

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
)

// Actor is the already-authenticated caller. Identity and role are issued by
// the external auth service; no credential checks happen in this core.
type Actor struct {
	ID   int
	Role Role
}

func (a Actor) IsCustomer() bool {
	return a.Role == RoleCustomer
}

func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff
}
