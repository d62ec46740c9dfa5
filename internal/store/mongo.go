package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"military-logistics-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect dials MongoDB and pings it before returning.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// NewMongoStores wires every collection of db.
func NewMongoStores(db *mongo.Database) *Stores {
	return &Stores{
		Users:        &mongoCollection[models.User]{coll: db.Collection(UsersCollection)},
		Purchases:    &mongoCollection[models.Purchase]{coll: db.Collection(PurchasesCollection)},
		Transfers:    &mongoCollection[models.Transfer]{coll: db.Collection(TransfersCollection)},
		Assignments:  &mongoCollection[models.Assignment]{coll: db.Collection(AssignmentsCollection)},
		Expenditures: &mongoCollection[models.Expenditure]{coll: db.Collection(ExpendituresCollection)},
	}
}

// EnsureIndexes creates the unique email index and the lookup indexes the
// scoped queries rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "base", Value: 1}}},
		},
		PurchasesCollection:    {{Keys: bson.D{{Key: "requestedBy", Value: 1}}}},
		TransfersCollection:    {{Keys: bson.D{{Key: "sourceBaseId", Value: 1}}}, {Keys: bson.D{{Key: "destinationBaseId", Value: 1}}}},
		AssignmentsCollection:  {{Keys: bson.D{{Key: "assignedBy", Value: 1}}}, {Keys: bson.D{{Key: "personnel", Value: 1}}}},
		ExpendituresCollection: {{Keys: bson.D{{Key: "requestedBy", Value: 1}}}},
	}
	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

type mongoCollection[T any] struct {
	coll *mongo.Collection
}

func (m *mongoCollection[T]) Find(ctx context.Context, f Filter, opts ...FindOption) ([]T, error) {
	o := buildFindOptions(opts)
	findOpts := options.Find()
	if o.sortField != "" {
		findOpts.SetSort(bson.D{{Key: o.sortField, Value: o.sortDir}})
	}
	if o.limit > 0 {
		findOpts.SetLimit(o.limit)
	}

	cursor, err := m.coll.Find(ctx, f.BSON(), findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *mongoCollection[T]) FindOne(ctx context.Context, f Filter) (*T, error) {
	var doc T
	if err := m.coll.FindOne(ctx, f.BSON()).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (m *mongoCollection[T]) Count(ctx context.Context, f Filter) (int64, error) {
	return m.coll.CountDocuments(ctx, f.BSON())
}

func (m *mongoCollection[T]) Insert(ctx context.Context, doc *T) error {
	_, err := m.coll.InsertOne(ctx, doc)
	return err
}

func (m *mongoCollection[T]) Update(ctx context.Context, f Filter, mut Mutation) (bool, error) {
	res, err := m.coll.UpdateOne(ctx, f.BSON(), mut.BSON())
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (m *mongoCollection[T]) Delete(ctx context.Context, f Filter) (bool, error) {
	res, err := m.coll.DeleteOne(ctx, f.BSON())
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
