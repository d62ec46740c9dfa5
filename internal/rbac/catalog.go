package rbac

import "sort"

// Canonical permission tokens.
var (
	DashboardView    = Token{Resource: "dashboard", Action: "view"}
	DashboardViewAll = Token{Resource: "dashboard", Action: "view", Scope: ScopeAll}
	DashboardExport  = Token{Resource: "dashboard", Action: "export"}

	UserView      = Token{Resource: "user", Action: "view"}
	UserViewAll   = Token{Resource: "user", Action: "view", Scope: ScopeAll}
	UserCreate    = Token{Resource: "user", Action: "create"}
	UserUpdate    = Token{Resource: "user", Action: "update"}
	UserUpdateAny = Token{Resource: "user", Action: "update", Scope: ScopeAny}
	UserDelete    = Token{Resource: "user", Action: "delete"}

	SystemAdmin   = Token{Resource: "system", Action: "admin"}
	SystemReports = Token{Resource: "system", Action: "reports"}
	SystemAudit   = Token{Resource: "system", Action: "audit"}
)

// Resource names of the owned, lifecycle-managed records.
const (
	ResourcePurchase    = "purchase"
	ResourceTransfer    = "transfer"
	ResourceAssignment  = "assignment"
	ResourceExpenditure = "expenditure"
)

func View(resource string) Token    { return Token{Resource: resource, Action: "view"} }
func ViewAll(resource string) Token { return Token{Resource: resource, Action: "view", Scope: ScopeAll} }
func Create(resource string) Token  { return Token{Resource: resource, Action: "create"} }
func Approve(resource string) Token { return Token{Resource: resource, Action: "approve"} }

func UpdateOwn(resource string) Token {
	return Token{Resource: resource, Action: "update", Scope: ScopeOwn}
}

func UpdateAny(resource string) Token {
	return Token{Resource: resource, Action: "update", Scope: ScopeAny}
}

func DeleteOwn(resource string) Token {
	return Token{Resource: resource, Action: "delete", Scope: ScopeOwn}
}

func DeleteAny(resource string) Token {
	return Token{Resource: resource, Action: "delete", Scope: ScopeAny}
}

// All returns every canonical token.
func All() []Token {
	out := []Token{
		DashboardView, DashboardViewAll, DashboardExport,
		UserView, UserViewAll, UserCreate, UserUpdate, UserUpdateAny, UserDelete,
	}
	for _, res := range []string{ResourcePurchase, ResourceTransfer, ResourceAssignment, ResourceExpenditure} {
		out = append(out,
			View(res), ViewAll(res), Create(res),
			UpdateOwn(res), UpdateAny(res), DeleteOwn(res), DeleteAny(res),
		)
		if res != ResourceExpenditure {
			out = append(out, Approve(res))
		}
	}
	return append(out, SystemAdmin, SystemReports, SystemAudit)
}

type tokenSet map[Token]struct{}

func newTokenSet(tokens ...Token) tokenSet {
	s := make(tokenSet, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

func managed(res string, approve, anyScope bool) []Token {
	out := []Token{View(res), Create(res), UpdateOwn(res), DeleteOwn(res)}
	if anyScope {
		out = append(out, UpdateAny(res), DeleteAny(res))
	}
	if approve {
		out = append(out, Approve(res))
	}
	return out
}

var catalog = buildCatalog()

func buildCatalog() map[Role]tokenSet {
	commander := []Token{DashboardView, DashboardExport, UserView, UserCreate, UserUpdate, SystemReports}
	commander = append(commander, managed(ResourcePurchase, true, true)...)
	commander = append(commander, managed(ResourceTransfer, true, true)...)
	commander = append(commander, managed(ResourceAssignment, true, true)...)
	commander = append(commander, managed(ResourceExpenditure, false, true)...)

	officer := []Token{DashboardView, UserView}
	officer = append(officer, managed(ResourcePurchase, false, false)...)
	officer = append(officer, managed(ResourceTransfer, false, false)...)
	officer = append(officer, managed(ResourceAssignment, false, false)...)
	officer = append(officer, managed(ResourceExpenditure, false, false)...)

	return map[Role]tokenSet{
		RoleAdmin:            newTokenSet(All()...),
		RoleBaseCommander:    newTokenSet(commander...),
		RoleLogisticsOfficer: newTokenSet(officer...),
	}
}

// Has reports whether role holds token. Unknown roles hold nothing.
func Has(role Role, token Token) bool {
	_, ok := catalog[role][token]
	return ok
}

// PermissionsFor returns the role's tokens in a stable order.
func PermissionsFor(role Role) []Token {
	set := catalog[role]
	out := make([]Token, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
