// Package committee keeps the grade-by-committee assignment table.
package committee

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/banghwa/staffboard/internal/apperr"
	"github.com/banghwa/staffboard/internal/live"
	"github.com/banghwa/staffboard/internal/store"
	"github.com/banghwa/staffboard/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
)

const Collection = "committees"

// Row is one grade's line of the table. The four committee cells are free text.
type Row struct {
	ID    string `json:"id" bson:"_id,omitempty"`
	Order int    `json:"order" bson:"order"`
	Grade string `json:"grade" bson:"grade"`
	Insa  string `json:"insa" bson:"insa"`
	Eval  string `json:"eval" bson:"eval"`
	Art   string `json:"art" bson:"art"`
	Equip string `json:"equip" bson:"equip"`
}

// Column is a committee column of the table.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Columns lists the editable cells in display order.
var Columns = []Column{
	{Key: "insa", Label: "인사자문"},
	{Key: "eval", Label: "학교평가"},
	{Key: "art", Label: "예체능"},
	{Key: "equip", Label: "기자재"},
}

// Grades is the fixed seeded row set, already in order.
var Grades = []string{"1학년", "2학년", "3학년", "4학년", "5학년", "6학년", "교과"}

// ValidField reports whether key names a committee column.
func ValidField(key string) bool {
	for _, c := range Columns {
		if c.Key == key {
			return true
		}
	}
	return false
}

type Service struct {
	rows *store.Collection[Row]
}

func NewService(st store.Store) *Service {
	return &Service{rows: store.NewCollection[Row](st, Collection)}
}

// seedID gives each seeded row a fixed id, so a second seeding attempt
// collides instead of adding rows.
func seedID(order int) string {
	return fmt.Sprintf("grade-%d", order)
}

// Load returns the table sorted by order, seeding the seven blank rows in
// one batch when the collection is empty.
func (s *Service) Load(ctx context.Context) ([]Row, error) {
	rows, err := s.rows.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load committees: %w", err)
	}
	if len(rows) == 0 {
		if err := s.seed(ctx); err != nil {
			return nil, err
		}
		if rows, err = s.rows.List(ctx); err != nil {
			return nil, fmt.Errorf("load committees: %w", err)
		}
	}
	SortRows(rows)
	return rows, nil
}

func (s *Service) seed(ctx context.Context) error {
	b := store.NewBatch()
	for i, g := range Grades {
		order := i + 1
		b.Create(seedID(order), Row{Order: order, Grade: g})
	}
	err := s.rows.Commit(ctx, b)
	switch {
	case err == nil:
		logger.Infow("committee: seeded table", "rows", len(Grades))
		return nil
	case errors.Is(err, store.ErrConflict):
		// another caller seeded first
		return nil
	default:
		return fmt.Errorf("seed committees: %w", err)
	}
}

// UpdateCell overwrites one committee cell. The last write wins.
func (s *Service) UpdateCell(ctx context.Context, rowID, field, value string) error {
	if !ValidField(field) {
		return apperr.Invalid("field", "must be one of insa, eval, art, equip")
	}
	if rowID == "" {
		return apperr.Invalid("id", "required")
	}
	if err := s.rows.Update(ctx, rowID, bson.M{field: value}); err != nil {
		return fmt.Errorf("update committee %s.%s: %w", rowID, field, err)
	}
	return nil
}

// Watch streams the sorted table until the returned Unsubscribe is called.
func Watch(ctx context.Context, h *live.Hub, onChange func([]Row), onError func(error)) (live.Unsubscribe, error) {
	return live.Watch[Row](ctx, h, Collection, func(rows []Row) {
		SortRows(rows)
		onChange(rows)
	}, onError)
}

func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Order < rows[j].Order })
}

// Cell returns the value of a committee column.
func (r Row) Cell(key string) string {
	switch key {
	case "insa":
		return r.Insa
	case "eval":
		return r.Eval
	case "art":
		return r.Art
	case "equip":
		return r.Equip
	}
	return ""
}
