package database

import (
	"context"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FakeCollection is an in-memory Collection used by package tests. It keeps
// documents in insertion order and understands the filter shapes the
// repositories actually issue (equality matches plus "$ne" on _id).
type FakeCollection struct {
	mu   sync.Mutex
	docs []bson.M

	// UniqueKeys emulates a compound unique index, e.g. []string{"user_id", "phone"}.
	UniqueKeys []string

	// FailInsertAfter makes InsertOne return ForcedErr once this many
	// documents exist. Zero disables it.
	FailInsertAfter int
	ForcedErr       error
}

func NewFakeCollection() *FakeCollection {
	return &FakeCollection{}
}

func (c *FakeCollection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

func (c *FakeCollection) FindOne(ctx context.Context, filter bson.M, out interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, doc := range c.docs {
		if matches(doc, filter) {
			return decodeInto(doc, out)
		}
	}

	return ErrNoDocuments
}

func (c *FakeCollection) Find(ctx context.Context, filter bson.M, opts *FindOptions, out interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	matched := []bson.M{}
	for _, doc := range c.docs {
		if matches(doc, filter) {
			matched = append(matched, doc)
		}
	}

	if opts != nil {
		if opts.Skip > 0 {
			if opts.Skip >= int64(len(matched)) {
				matched = nil
			} else {
				matched = matched[opts.Skip:]
			}
		}
		if opts.Limit > 0 && int64(len(matched)) > opts.Limit {
			matched = matched[:opts.Limit]
		}
	}

	slicePtr := reflect.ValueOf(out).Elem()
	elemType := slicePtr.Type().Elem()
	result := reflect.MakeSlice(slicePtr.Type(), 0, len(matched))

	for _, doc := range matched {
		elem := reflect.New(elemType)
		if err := decodeInto(doc, elem.Interface()); err != nil {
			return err
		}
		result = reflect.Append(result, elem.Elem())
	}

	slicePtr.Set(result)
	return nil
}

func (c *FakeCollection) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var count int64
	for _, doc := range c.docs {
		if matches(doc, filter) {
			count++
		}
	}

	return count, nil
}

func (c *FakeCollection) InsertOne(ctx context.Context, document interface{}) (primitive.ObjectID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FailInsertAfter > 0 && len(c.docs) >= c.FailInsertAfter {
		return primitive.NilObjectID, c.ForcedErr
	}

	doc := bson.M{}
	if err := decodeInto(document, &doc); err != nil {
		return primitive.NilObjectID, err
	}

	id, ok := doc["_id"].(primitive.ObjectID)
	if !ok || id.IsZero() {
		id = primitive.NewObjectID()
		doc["_id"] = id
	}

	if len(c.UniqueKeys) > 0 {
		key := bson.M{}
		for _, k := range c.UniqueKeys {
			key[k] = doc[k]
		}
		for _, existing := range c.docs {
			if matches(existing, key) {
				return primitive.NilObjectID, ErrDuplicateKey
			}
		}
	}

	c.docs = append(c.docs, doc)
	return id, nil
}

func (c *FakeCollection) UpdateOne(ctx context.Context, filter bson.M, update bson.M) (*UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, doc := range c.docs {
		if !matches(doc, filter) {
			continue
		}

		if set, ok := update["$set"].(bson.M); ok {
			normalized := bson.M{}
			if err := decodeInto(set, &normalized); err != nil {
				return nil, err
			}
			for k, v := range normalized {
				doc[k] = v
			}
		}

		if set, ok := update["$set"].(map[string]interface{}); ok {
			normalized := bson.M{}
			if err := decodeInto(bson.M(set), &normalized); err != nil {
				return nil, err
			}
			for k, v := range normalized {
				doc[k] = v
			}
		}

		if inc, ok := update["$inc"].(bson.M); ok {
			for k, v := range inc {
				current, _ := toInt64(doc[k])
				delta, _ := toInt64(v)
				doc[k] = current + delta
			}
		}

		return &UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
	}

	return &UpdateResult{}, nil
}

func (c *FakeCollection) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, doc := range c.docs {
		if matches(doc, filter) {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return 1, nil
		}
	}

	return 0, nil
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func matches(doc bson.M, filter bson.M) bool {
	for field, condition := range filter {
		switch cond := condition.(type) {
		case bson.M:
			if ne, ok := cond["$ne"]; ok && reflect.DeepEqual(doc[field], ne) {
				return false
			}
		default:
			if !reflect.DeepEqual(doc[field], normalize(condition)) {
				return false
			}
		}
	}

	return true
}

// normalize runs a value through bson so filter literals compare equal to
// stored document values (e.g. time.Time vs primitive.DateTime).
func normalize(value interface{}) interface{} {
	wrapped := bson.M{}
	if err := decodeInto(bson.M{"v": value}, &wrapped); err != nil {
		return value
	}

	return wrapped["v"]
}

func decodeInto(in interface{}, out interface{}) error {
	raw, err := bson.Marshal(in)
	if err != nil {
		return err
	}

	return bson.Unmarshal(raw, out)
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	}

	return 0, false
}
