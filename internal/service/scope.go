package service

import (
	"context"

	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/rbac"
	"military-logistics-api-server/internal/store"
)

// ownedScope narrows a collection whose records are owned through ownerField
// to the owners the principal may see.
func (c *core) ownedScope(ctx context.Context, p *rbac.Principal, ownerField string) (store.Filter, error) {
	scope := rbac.ScopeFor(p)
	switch scope.Kind {
	case rbac.ScopeUnrestricted:
		return store.All(), nil
	case rbac.ScopeBaseRestricted:
		ids, err := c.baseUserIDs(ctx, scope.Base)
		if err != nil {
			return store.Filter{}, err
		}
		return store.In(ownerField, ids...), nil
	}
	return store.None(), nil
}

// transferScope matches transfers leaving or entering the principal's base.
func transferScope(p *rbac.Principal) store.Filter {
	scope := rbac.ScopeFor(p)
	switch scope.Kind {
	case rbac.ScopeUnrestricted:
		return store.All()
	case rbac.ScopeBaseRestricted:
		return store.Or(
			store.Eq("sourceBaseId", scope.Base),
			store.Eq("destinationBaseId", scope.Base),
		)
	}
	return store.None()
}

func userScope(p *rbac.Principal) store.Filter {
	scope := rbac.ScopeFor(p)
	switch scope.Kind {
	case rbac.ScopeUnrestricted:
		return store.All()
	case rbac.ScopeBaseRestricted:
		return store.Eq("base", scope.Base)
	}
	return store.None()
}

func (c *core) baseUserIDs(ctx context.Context, base rbac.Base) ([]interface{}, error) {
	users, err := c.stores.Users.Find(ctx, store.Eq("base", base))
	if err != nil {
		return nil, apperror.Dependency("Failed to query users", err)
	}
	ids := make([]interface{}, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}
