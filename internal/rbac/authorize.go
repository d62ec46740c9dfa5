package rbac

import "military-logistics-api-server/internal/apperror"

// Principal is the acting identity handed to every core operation.
type Principal struct {
	ID   string
	Role Role
	Base Base
}

// Authorize returns nil when p may use required. ownerID is the owner of the
// record being acted on, or "" when there is none. Ownership never grants a
// permission by itself: it only unlocks the own-scoped variant of required
// when the role already holds that variant. An own-scoped token is refused
// only when a record owner is given and it is someone else.
func Authorize(p *Principal, required Token, ownerID string) error {
	if p == nil {
		return apperror.Unauthenticated("Authentication required")
	}
	owner := ownerID != "" && ownerID == p.ID
	if required.Scope == ScopeOwn {
		if (ownerID == "" || owner) && Has(p.Role, required) {
			return nil
		}
		return apperror.PermissionDenied(required.String(), string(p.Role))
	}
	if Has(p.Role, required) {
		return nil
	}
	if owner && Has(p.Role, required.Own()) {
		return nil
	}
	return apperror.PermissionDenied(required.String(), string(p.Role))
}

// Can is Authorize as a boolean, for response hints.
func Can(p *Principal, required Token, ownerID string) bool {
	return Authorize(p, required, ownerID) == nil
}

// HasAny reports whether p's role holds at least one of tokens, ignoring
// ownership. Route guards use it before the record is loaded.
func HasAny(p *Principal, tokens ...Token) bool {
	if p == nil {
		return false
	}
	for _, t := range tokens {
		if Has(p.Role, t) {
			return true
		}
	}
	return false
}
