package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on a MongoDB database. Documents keep string
// "_id" values assigned by NewID so ids look the same in both stores.
// Commit runs inside a multi-document transaction, which needs a replica set
// (a single-node replica set is enough for development).
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(database)}
}

func (m *MongoStore) List(ctx context.Context, coll string) ([]bson.M, error) {
	cur, err := m.db.Collection(coll).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: IDField, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", coll, err)
	}
	defer cur.Close(ctx)
	out := []bson.M{}
	for cur.Next(ctx) {
		var d bson.M
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", coll, err)
		}
		out = append(out, d)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", coll, err)
	}
	return out, nil
}

func (m *MongoStore) Get(ctx context.Context, coll, id string) (bson.M, error) {
	var d bson.M
	err := m.db.Collection(coll).FindOne(ctx, bson.M{IDField: id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (m *MongoStore) Insert(ctx context.Context, coll string, doc bson.M) (string, error) {
	d, err := clone(doc)
	if err != nil {
		return "", err
	}
	id := DocID(d)
	if id == "" {
		id = NewID()
		d[IDField] = id
	}
	if _, err := m.db.Collection(coll).InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrConflict
		}
		return "", fmt.Errorf("insert %s: %w", coll, err)
	}
	return id, nil
}

func (m *MongoStore) Update(ctx context.Context, coll, id string, fields bson.M) error {
	res, err := m.db.Collection(coll).UpdateOne(ctx, bson.M{IDField: id}, bson.M{"$set": withoutID(fields)})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", coll, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) Delete(ctx context.Context, coll, id string) error {
	res, err := m.db.Collection(coll).DeleteOne(ctx, bson.M{IDField: id})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", coll, id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Commit applies ops in one transaction; any failing op aborts all of them.
func (m *MongoStore) Commit(ctx context.Context, coll string, ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	sess, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	col := m.db.Collection(coll)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for i, op := range ops {
			if err := applyOp(sc, col, op); err != nil {
				return nil, fmt.Errorf("op %d (%s %s): %w", i, op.Kind, op.ID, err)
			}
		}
		return nil, nil
	})
	return err
}

func applyOp(ctx context.Context, col *mongo.Collection, op Op) error {
	switch op.Kind {
	case OpCreate:
		d := withoutID(op.Doc)
		d[IDField] = op.ID
		if _, err := col.InsertOne(ctx, d); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrConflict
			}
			return err
		}
	case OpSet:
		d := withoutID(op.Doc)
		d[IDField] = op.ID
		_, err := col.ReplaceOne(ctx, bson.M{IDField: op.ID}, d, options.Replace().SetUpsert(true))
		return err
	case OpUpdate:
		res, err := col.UpdateOne(ctx, bson.M{IDField: op.ID}, bson.M{"$set": withoutID(op.Fields)})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
	case OpDelete:
		_, err := col.DeleteOne(ctx, bson.M{IDField: op.ID})
		return err
	default:
		return fmt.Errorf("unknown kind %q", op.Kind)
	}
	return nil
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func withoutID(fields bson.M) bson.M {
	out := make(bson.M, len(fields))
	for k, v := range fields {
		if k == IDField {
			continue
		}
		out[k] = v
	}
	return out
}
