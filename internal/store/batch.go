package store

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Batch collects writes for one atomic Commit. Encoding failures are kept and
// reported by Err so callers can build a batch without checking every step.
type Batch struct {
	ops []Op
	err error
}

func NewBatch() *Batch { return &Batch{} }

// Create queues an insert that fails the whole batch if id already exists.
// An empty id is replaced by a fresh one, which is returned.
func (b *Batch) Create(id string, v interface{}) string {
	return b.put(OpCreate, id, v)
}

// Set queues an insert-or-overwrite.
func (b *Batch) Set(id string, v interface{}) string {
	return b.put(OpSet, id, v)
}

func (b *Batch) put(kind OpKind, id string, v interface{}) string {
	doc, err := Encode(v)
	if err != nil {
		b.fail(fmt.Errorf("encode %s op: %w", kind, err))
		return ""
	}
	if id == "" {
		id = DocID(doc)
	}
	if id == "" {
		id = NewID()
	}
	doc[IDField] = id
	b.ops = append(b.ops, Op{Kind: kind, ID: id, Doc: doc})
	return id
}

// Update queues a field-level overwrite of an existing document.
func (b *Batch) Update(id string, fields bson.M) {
	b.ops = append(b.ops, Op{Kind: OpUpdate, ID: id, Fields: fields})
}

// Delete queues removal of id.
func (b *Batch) Delete(id string) {
	b.ops = append(b.ops, Op{Kind: OpDelete, ID: id})
}

func (b *Batch) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Batch) Ops() []Op  { return b.ops }
func (b *Batch) Len() int   { return len(b.ops) }
func (b *Batch) Err() error { return b.err }
