// Package menu defines the dashboard's top-level entries.
package menu

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry types decide which viewer a menu opens.
const (
	TypeStatic    = "static"
	TypeCommittee = "committee"
	TypeSchedule  = "schedule"
)

type Entry struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label" yaml:"label"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Defaults is the menu used when no file is configured.
var Defaults = []Entry{
	{ID: "duty", Label: "학급구성 및 업무분장", Type: TypeStatic, Description: "학급 담임 선생님 명단 및 학교 업무 분장표입니다."},
	{ID: "committee", Label: "학년별 위원회 조직", Type: TypeCommittee},
	{ID: "special", Label: "특별실 시간표", Type: TypeStatic, Description: "과학실, 컴퓨터실 등 특별실 시간표입니다."},
	{ID: "afterschool", Label: "방과후 시간표", Type: TypeStatic, Description: "방과후 학교 프로그램 시간표입니다."},
	{ID: "classroom", Label: "교실정보", Type: TypeStatic, Description: "각 교실의 위치, 전화번호 등 배치도입니다."},
	{ID: "coop", Label: "협력강사 시간표", Type: TypeSchedule},
}

type Registry struct {
	entries []Entry
	byID    map[string]Entry
}

// New indexes entries, rejecting empty or duplicate ids and unknown types.
func New(entries []Entry) (*Registry, error) {
	r := &Registry{byID: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("menu entry %q: empty id", e.Label)
		}
		switch e.Type {
		case TypeStatic, TypeCommittee, TypeSchedule:
		default:
			return nil, fmt.Errorf("menu entry %q: unknown type %q", e.ID, e.Type)
		}
		if _, dup := r.byID[e.ID]; dup {
			return nil, fmt.Errorf("menu entry %q: duplicate id", e.ID)
		}
		r.byID[e.ID] = e
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// Load reads a YAML list of entries from path. An empty path yields Defaults.
func Load(path string) (*Registry, error) {
	if path == "" {
		return New(Defaults)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu file: %w", err)
	}
	var doc struct {
		Menu []Entry `yaml:"menu"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse menu file %s: %w", path, err)
	}
	if len(doc.Menu) == 0 {
		return nil, fmt.Errorf("menu file %s: no entries", path)
	}
	return New(doc.Menu)
}

func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Registry) Get(id string) (Entry, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// HasFiles reports whether id is a static menu, the only kind that holds files.
func (r *Registry) HasFiles(id string) bool {
	e, ok := r.byID[id]
	return ok && e.Type == TypeStatic
}
