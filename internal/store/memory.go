package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"military-logistics-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

// NewMemoryStores returns empty in-memory collections.
func NewMemoryStores() *Stores {
	return &Stores{
		Users:        NewMemoryCollection[models.User](),
		Purchases:    NewMemoryCollection[models.Purchase](),
		Transfers:    NewMemoryCollection[models.Transfer](),
		Assignments:  NewMemoryCollection[models.Assignment](),
		Expenditures: NewMemoryCollection[models.Expenditure](),
	}
}

// MemoryCollection keeps documents as BSON maps so filters see the same field
// names and value types a MongoDB server would.
type MemoryCollection[T any] struct {
	mu   sync.RWMutex
	docs []bson.M
}

func NewMemoryCollection[T any]() *MemoryCollection[T] {
	return &MemoryCollection[T]{}
}

// Find decodes the matches before releasing the read lock. Update mutates the
// stored maps in place.
func (m *MemoryCollection[T]) Find(_ context.Context, f Filter, opts ...FindOption) ([]T, error) {
	o := buildFindOptions(opts)

	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []bson.M
	for _, d := range m.docs {
		if f.Matches(d) {
			matched = append(matched, d)
		}
	}

	if o.sortField != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			c, _ := compare(matched[i][o.sortField], matched[j][o.sortField])
			if o.sortDir < 0 {
				return c > 0
			}
			return c < 0
		})
	}
	if o.limit > 0 && int64(len(matched)) > o.limit {
		matched = matched[:o.limit]
	}

	out := make([]T, 0, len(matched))
	for _, d := range matched {
		v, err := decode[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (m *MemoryCollection[T]) FindOne(_ context.Context, f Filter) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.docs {
		if f.Matches(d) {
			return decode[T](d)
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryCollection[T]) Count(_ context.Context, f Filter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, d := range m.docs {
		if f.Matches(d) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryCollection[T]) Insert(_ context.Context, doc *T) error {
	d, err := toDoc(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := d["_id"]; ok {
		for _, existing := range m.docs {
			if equal(existing["_id"], id) {
				return fmt.Errorf("duplicate _id %v", id)
			}
		}
	}
	m.docs = append(m.docs, d)
	return nil
}

func (m *MemoryCollection[T]) Update(_ context.Context, f Filter, mut Mutation) (bool, error) {
	set, err := toDoc(mut.Set)
	if err != nil {
		return false, err
	}
	push, err := toDoc(mut.Push)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if !f.Matches(d) {
			continue
		}
		for k, v := range set {
			d[k] = v
		}
		for k, v := range mut.Inc {
			d[k] = increment(d[k], v)
		}
		for k, v := range push {
			arr, _ := d[k].(bson.A)
			d[k] = append(arr, v)
		}
		return true, nil
	}
	return false, nil
}

func (m *MemoryCollection[T]) Delete(_ context.Context, f Filter) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.docs {
		if f.Matches(d) {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func toDoc(v interface{}) (bson.M, error) {
	if v == nil {
		return bson.M{}, nil
	}
	if m, ok := v.(bson.M); ok && m == nil {
		return bson.M{}, nil
	}
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var d bson.M
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}

func decode[T any](d bson.M) (*T, error) {
	raw, err := bson.Marshal(d)
	if err != nil {
		return nil, err
	}
	var v T
	if err := bson.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// increment keeps integer fields integral, the way $inc does.
func increment(cur, delta interface{}) interface{} {
	switch c := cur.(type) {
	case int32:
		return int32(float64(c) + normalize(delta).(float64))
	case int64:
		return int64(float64(c) + normalize(delta).(float64))
	case float64:
		return c + normalize(delta).(float64)
	case nil:
		return delta
	}
	return cur
}
