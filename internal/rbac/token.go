package rbac

import (
	"fmt"
	"strings"
)

// Scope qualifies a token as applying to self-owned records or to any record.
type Scope string

const (
	ScopeNone Scope = ""
	ScopeOwn  Scope = "own"
	ScopeAny  Scope = "any"
	// ScopeAll only appears on view tokens ("purchase:view:all").
	ScopeAll Scope = "all"
)

// Token is a permission in resource:action[:scope] form.
type Token struct {
	Resource string
	Action   string
	Scope    Scope
}

func (t Token) String() string {
	if t.Scope == ScopeNone {
		return t.Resource + ":" + t.Action
	}
	return t.Resource + ":" + t.Action + ":" + string(t.Scope)
}

// Own returns the own-scoped variant of t. Tokens without an explicit scope
// get one synthesized.
func (t Token) Own() Token {
	switch t.Scope {
	case ScopeAny, ScopeNone:
		return Token{Resource: t.Resource, Action: t.Action, Scope: ScopeOwn}
	}
	return t
}

// MustParse is Parse for package-level declarations.
func MustParse(s string) Token {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse accepts canonical tokens and the legacy aliases still sent by older
// clients.
func Parse(s string) (Token, error) {
	s = strings.TrimSpace(s)
	if t, ok := legacyAliases[strings.ToLower(s)]; ok {
		return t, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Token{}, fmt.Errorf("malformed permission token %q", s)
	}
	for _, p := range parts {
		if p == "" {
			return Token{}, fmt.Errorf("malformed permission token %q", s)
		}
	}

	t := Token{Resource: parts[0], Action: parts[1]}
	if len(parts) == 3 {
		switch sc := Scope(parts[2]); sc {
		case ScopeOwn, ScopeAny, ScopeAll:
			t.Scope = sc
		default:
			return Token{}, fmt.Errorf("unknown scope %q in permission token %q", parts[2], s)
		}
	}
	return t, nil
}

var legacyAliases = buildLegacyAliases()

func buildLegacyAliases() map[string]Token {
	aliases := map[string]Token{
		"view_all_bases_dashboard": DashboardViewAll,
		"view_base_dashboard":      DashboardView,
		"export_data":              DashboardExport,
		"access_admin_panel":       SystemAdmin,
		"view_system_reports":      SystemReports,
		"view_all_users":           UserViewAll,
		"view_base_users":          UserView,
		"create_user":              UserCreate,
		"update_user":              UserUpdate,
		"delete_user":              UserDelete,
	}

	resources := map[string]string{
		"purchase":    "purchases",
		"transfer":    "transfers",
		"assignment":  "assignments",
		"expenditure": "expenditures",
	}
	for res, plural := range resources {
		aliases["view_all_"+plural] = Token{Resource: res, Action: "view", Scope: ScopeAll}
		aliases["view_base_"+plural] = Token{Resource: res, Action: "view"}
		aliases["create_"+res] = Token{Resource: res, Action: "create"}
		aliases["approve_"+res] = Token{Resource: res, Action: "approve"}
		for _, action := range []string{"update", "delete"} {
			aliases[action+"_own_"+res] = Token{Resource: res, Action: action, Scope: ScopeOwn}
			aliases[action+"_any_"+res] = Token{Resource: res, Action: action, Scope: ScopeAny}
		}
	}
	return aliases
}
