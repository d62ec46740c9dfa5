// Package service holds the lifecycle rules for every record type. Each
// operation takes the acting principal explicitly, checks its permission,
// narrows reads to the principal's data scope and then persists.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"
	"military-logistics-api-server/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier pushes an event to a connected user. Delivery is best effort.
type Notifier interface {
	Notify(userID, event string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, interface{}) {}

// Services bundles the per-resource services over one set of stores.
type Services struct {
	Users        *UserService
	Purchases    *PurchaseService
	Transfers    *TransferService
	Assignments  *AssignmentService
	Expenditures *ExpenditureService
	Dashboard    *DashboardService
}

type core struct {
	stores *store.Stores
	notify Notifier
	now    func() time.Time
}

func New(stores *store.Stores, notifier Notifier) *Services {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	c := &core{
		stores: stores,
		notify: notifier,
		now:    func() time.Time { return time.Now().UTC() },
	}
	return &Services{
		Users:        &UserService{c},
		Purchases:    &PurchaseService{c},
		Transfers:    &TransferService{c},
		Assignments:  &AssignmentService{c},
		Expenditures: &ExpenditureService{c},
		Dashboard:    &DashboardService{c},
	}
}

func parseID(field, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperror.Validation(field, "Invalid "+field)
	}
	return oid, nil
}

// actorID is the principal's id as stored on owned records.
func actorID(p *rbac.Principal) (primitive.ObjectID, error) {
	if p == nil {
		return primitive.NilObjectID, apperror.Unauthenticated("Authentication required")
	}
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return primitive.NilObjectID, apperror.Unauthenticated("Invalid identity")
	}
	return oid, nil
}

// findScoped loads one record by id, treating an out-of-scope record the
// same as a missing one.
func findScoped[T any](ctx context.Context, coll store.Collection[T], scope store.Filter, id primitive.ObjectID, resource string) (*T, error) {
	doc, err := coll.FindOne(ctx, store.And(store.ID(id), scope))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound(resource)
	}
	if err != nil {
		return nil, apperror.Dependency("Failed to load "+strings.ToLower(resource), err)
	}
	return doc, nil
}

func oidPtr(id primitive.ObjectID) *primitive.ObjectID {
	return &id
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// statusGuard decides what an UpdateStatus call may do given the current
// status. It returns done=true for an idempotent repeat.
func statusGuard(resource string, allowed []string, terminal, current, target string) (done bool, err error) {
	if !models.Contains(allowed, target) {
		return false, apperror.InvalidState("Invalid status: %s. Allowed statuses: %s", target, strings.Join(allowed, ", "))
	}
	if current == target {
		return true, nil
	}
	if current == terminal {
		return false, apperror.InvalidState("Cannot change status of %s %s", strings.ToLower(terminal), strings.ToLower(resource))
	}
	return false, nil
}
