// Package files stores references to shared files (images and PDFs hosted
// on a public file-sharing service) shown by the static reference menus.
// Only the link metadata is stored, never the file bytes.
package files

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/banghwa/staffboard/internal/apperr"
	"github.com/banghwa/staffboard/internal/store"
)

const (
	TypeImage = "image"
	TypePDF   = "pdf"
)

// CollectionPrefix + menu id names the backing collection of a menu.
const CollectionPrefix = "files_"

// Record is one file shown in a menu's viewer.
type Record struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name"`
	FileID    string    `json:"fileId" bson:"fileId"`
	Type      string    `json:"type" bson:"type"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// View is a Record with its derived viewer URLs.
type View struct {
	Record
	ImageURL   string `json:"imageUrl,omitempty"`
	PreviewURL string `json:"previewUrl"`
}

func (r Record) WithURLs() View {
	v := View{Record: r, PreviewURL: PreviewURL(r.FileID)}
	if r.Type == TypeImage {
		v.ImageURL = ImageURL(r.FileID)
	}
	return v
}

var linkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/file/d/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`/d/([A-Za-z0-9_-]+)`),
}

// ExtractFileID pulls the file id out of a public share link. It returns ""
// when no known link shape matches.
func ExtractFileID(link string) string {
	link = strings.TrimSpace(link)
	for _, re := range linkPatterns {
		if m := re.FindStringSubmatch(link); m != nil {
			return m[1]
		}
	}
	return ""
}

func ImageURL(fileID string) string {
	return "https://drive.google.com/uc?export=view&id=" + fileID
}

func PreviewURL(fileID string) string {
	return "https://drive.google.com/file/d/" + fileID + "/preview"
}

var menuIDPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

type Service struct {
	st    store.Store
	known func(menuID string) bool
	now   func() time.Time
}

// NewService builds a Service over st. known, when non-nil, restricts which
// menu ids may hold files.
func NewService(st store.Store, known func(menuID string) bool) *Service {
	return &Service{st: st, known: known, now: time.Now}
}

// CollectionFor returns the collection backing menuID.
func CollectionFor(menuID string) string {
	return CollectionPrefix + menuID
}

func (s *Service) collection(menuID string) (*store.Collection[Record], error) {
	if !menuIDPattern.MatchString(menuID) || (s.known != nil && !s.known(menuID)) {
		return nil, fmt.Errorf("menu %q: %w", menuID, store.ErrNotFound)
	}
	return store.NewCollection[Record](s.st, CollectionFor(menuID)), nil
}

// List returns the menu's files, oldest first.
func (s *Service) List(ctx context.Context, menuID string) ([]View, error) {
	c, err := s.collection(menuID)
	if err != nil {
		return nil, err
	}
	recs, err := c.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files of %s: %w", menuID, err)
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].CreatedAt.Before(recs[j].CreatedAt) })
	out := make([]View, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.WithURLs())
	}
	return out, nil
}

// Add registers a shared file under menuID. The link must carry a file id.
func (s *Service) Add(ctx context.Context, menuID, name, link, fileType string) (*View, error) {
	c, err := s.collection(menuID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	fileID := ExtractFileID(link)

	var fields []apperr.FieldError
	if name == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Error: "required"})
	}
	if fileID == "" {
		fields = append(fields, apperr.FieldError{Field: "link", Error: "not a recognized share link"})
	}
	if fileType != TypeImage && fileType != TypePDF {
		fields = append(fields, apperr.FieldError{Field: "type", Error: "must be image or pdf"})
	}
	if len(fields) > 0 {
		return nil, apperr.NewValidationError(fields...)
	}

	rec := Record{Name: name, FileID: fileID, Type: fileType, CreatedAt: s.now().UTC()}
	id, err := c.Insert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("add file to %s: %w", menuID, err)
	}
	rec.ID = id
	v := rec.WithURLs()
	return &v, nil
}

func (s *Service) Remove(ctx context.Context, menuID, id string) error {
	c, err := s.collection(menuID)
	if err != nil {
		return err
	}
	if err := c.Delete(ctx, id); err != nil {
		return fmt.Errorf("remove file %s from %s: %w", id, menuID, err)
	}
	return nil
}
