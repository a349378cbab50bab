// Package store is the document-store layer behind every staffboard collection.
//
// Documents are bson.M maps keyed by a string "_id". The in-memory store backs
// tests and local development; the Mongo store is used whenever MONGODB_URI is
// configured. Collection[T] layers typed encode/decode on top of either.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document already exists")
)

// IDField is the key holding a document's identity.
const IDField = "_id"

// OpKind is the kind of a single write inside an atomic batch.
type OpKind string

const (
	OpCreate OpKind = "create" // insert, fail with ErrConflict when the id exists
	OpSet    OpKind = "set"    // insert or overwrite
	OpUpdate OpKind = "update" // $set fields, fail with ErrNotFound when missing
	OpDelete OpKind = "delete" // remove; a missing id is not an error
)

// Op is one write of a batch.
type Op struct {
	Kind   OpKind
	ID     string
	Doc    bson.M // OpCreate, OpSet
	Fields bson.M // OpUpdate
}

// Store is the backing document database. Commit applies every op or none.
type Store interface {
	List(ctx context.Context, coll string) ([]bson.M, error)
	Get(ctx context.Context, coll, id string) (bson.M, error)
	Insert(ctx context.Context, coll string, doc bson.M) (string, error)
	Update(ctx context.Context, coll, id string, fields bson.M) error
	Delete(ctx context.Context, coll, id string) error
	Commit(ctx context.Context, coll string, ops []Op) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// NewID returns a fresh store-assigned document id.
func NewID() string {
	return uuid.NewString()
}

// DocID returns the "_id" of doc, or "" when absent.
func DocID(doc bson.M) string {
	id, _ := doc[IDField].(string)
	return id
}

// Encode converts a bson-tagged struct into a document map.
func Encode(v interface{}) (bson.M, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Decode converts a document map into T.
func Decode[T any](doc bson.M) (T, error) {
	var out T
	data, err := bson.Marshal(doc)
	if err != nil {
		return out, err
	}
	err = bson.Unmarshal(data, &out)
	return out, err
}

func clone(doc bson.M) (bson.M, error) {
	if doc == nil {
		return bson.M{}, nil
	}
	return Encode(doc)
}
