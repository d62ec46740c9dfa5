// Package store is the persistence layer: one generic collection contract with
// a MongoDB implementation and an in-memory one used by tests and local runs.
package store

import (
	"context"
	"errors"

	"military-logistics-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotFound = errors.New("document not found")

// Collection is the access a service needs to one document type. Update and
// Delete report whether a document matched, so callers can use the filter as
// a compare-and-set guard.
type Collection[T any] interface {
	Find(ctx context.Context, f Filter, opts ...FindOption) ([]T, error)
	FindOne(ctx context.Context, f Filter) (*T, error)
	Count(ctx context.Context, f Filter) (int64, error)
	Insert(ctx context.Context, doc *T) error
	Update(ctx context.Context, f Filter, m Mutation) (bool, error)
	Delete(ctx context.Context, f Filter) (bool, error)
}

// Mutation is an update document. Empty parts are omitted.
type Mutation struct {
	Set  bson.M
	Inc  bson.M
	Push bson.M
}

func Set(m bson.M) Mutation { return Mutation{Set: m} }

func (m Mutation) BSON() bson.M {
	out := bson.M{}
	if len(m.Set) > 0 {
		out["$set"] = m.Set
	}
	if len(m.Inc) > 0 {
		out["$inc"] = m.Inc
	}
	if len(m.Push) > 0 {
		out["$push"] = m.Push
	}
	return out
}

type findOptions struct {
	sortField string
	sortDir   int
	limit     int64
}

type FindOption func(*findOptions)

func SortAsc(field string) FindOption {
	return func(o *findOptions) { o.sortField, o.sortDir = field, 1 }
}

func SortDesc(field string) FindOption {
	return func(o *findOptions) { o.sortField, o.sortDir = field, -1 }
}

func Limit(n int64) FindOption {
	return func(o *findOptions) { o.limit = n }
}

func buildFindOptions(opts []FindOption) findOptions {
	var o findOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Collection names.
const (
	UsersCollection        = "users"
	PurchasesCollection    = "purchases"
	TransfersCollection    = "transfers"
	AssignmentsCollection  = "assignments"
	ExpendituresCollection = "expenditures"
)

// Stores bundles every collection the services use.
type Stores struct {
	Users        Collection[models.User]
	Purchases    Collection[models.Purchase]
	Transfers    Collection[models.Transfer]
	Assignments  Collection[models.Assignment]
	Expenditures Collection[models.Expenditure]
}

// AdjustAvailable changes a purchase's quantityAvailable by delta in one
// conditional write. A decrement that would take it below zero matches
// nothing and returns false.
func AdjustAvailable(ctx context.Context, purchases Collection[models.Purchase], id primitive.ObjectID, delta int) (bool, error) {
	f := ID(id)
	if delta < 0 {
		f = And(f, Gte("quantityAvailable", -delta))
	}
	return purchases.Update(ctx, f, Mutation{Inc: bson.M{"quantityAvailable": delta}})
}
