package rbac

// ScopeKind tells how far a principal's reads reach.
type ScopeKind int

const (
	// ScopeNothing matches no record at all.
	ScopeNothing ScopeKind = iota
	ScopeUnrestricted
	ScopeBaseRestricted
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeUnrestricted:
		return "all"
	case ScopeBaseRestricted:
		return "base"
	default:
		return "none"
	}
}

// DataScope is derived purely from role and base.
type DataScope struct {
	Kind ScopeKind
	Base Base
}

func ScopeFor(p *Principal) DataScope {
	if p == nil {
		return DataScope{Kind: ScopeNothing}
	}
	switch p.Role {
	case RoleAdmin:
		return DataScope{Kind: ScopeUnrestricted}
	case RoleBaseCommander, RoleLogisticsOfficer:
		return DataScope{Kind: ScopeBaseRestricted, Base: p.Base}
	default:
		return DataScope{Kind: ScopeNothing}
	}
}

// Includes reports whether a record living at base is visible under s.
func (s DataScope) Includes(base Base) bool {
	switch s.Kind {
	case ScopeUnrestricted:
		return true
	case ScopeBaseRestricted:
		return s.Base == base
	default:
		return false
	}
}
