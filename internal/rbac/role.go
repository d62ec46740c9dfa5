package rbac

// Role is one of the three fixed roles.
type Role string

const (
	RoleAdmin            Role = "Admin"
	RoleBaseCommander    Role = "Base Commander"
	RoleLogisticsOfficer Role = "Logistics Officer"
)

var Roles = []Role{RoleAdmin, RoleBaseCommander, RoleLogisticsOfficer}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleBaseCommander, RoleLogisticsOfficer:
		return true
	}
	return false
}

// Base is an organizational site and the scoping key for non-admin roles.
type Base string

const (
	BaseA        Base = "Base A"
	BaseB        Base = "Base B"
	BaseC        Base = "Base C"
	BaseD        Base = "Base D"
	Headquarters Base = "Headquarters"
)

var Bases = []Base{BaseA, BaseB, BaseC, BaseD, Headquarters}

func (b Base) IsValid() bool {
	switch b {
	case BaseA, BaseB, BaseC, BaseD, Headquarters:
		return true
	}
	return false
}
