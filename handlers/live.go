package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/banghwa/staffboard/internal/committee"
	"github.com/banghwa/staffboard/internal/files"
	"github.com/banghwa/staffboard/internal/live"
	"github.com/banghwa/staffboard/internal/schedule"
	"github.com/banghwa/staffboard/internal/store"
	"github.com/banghwa/staffboard/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// shapeFunc decodes a raw snapshot into what clients of a collection expect.
type shapeFunc func(docs []bson.M) (interface{}, error)

// LiveHandler streams collection snapshots over server-sent events. Each
// connection holds one subscription, released when the client goes away.
type LiveHandler struct {
	hub       *live.Hub
	hasFiles  func(menuID string) bool
	keepAlive time.Duration
}

func NewLiveHandler(hub *live.Hub, hasFiles func(menuID string) bool) *LiveHandler {
	return &LiveHandler{hub: hub, hasFiles: hasFiles, keepAlive: 25 * time.Second}
}

func (h *LiveHandler) Register(api *gin.RouterGroup) {
	api.GET("/live/:collection", h.Stream)
}

func (h *LiveHandler) shapeFor(coll string) (shapeFunc, bool) {
	switch {
	case coll == schedule.Collection:
		return func(docs []bson.M) (interface{}, error) {
			events, err := store.DecodeAll[schedule.Event](docs)
			schedule.SortByDate(events)
			return events, err
		}, true
	case coll == committee.Collection:
		return func(docs []bson.M) (interface{}, error) {
			rows, err := store.DecodeAll[committee.Row](docs)
			committee.SortRows(rows)
			return rows, err
		}, true
	case strings.HasPrefix(coll, files.CollectionPrefix):
		if h.hasFiles == nil || !h.hasFiles(strings.TrimPrefix(coll, files.CollectionPrefix)) {
			return nil, false
		}
		return func(docs []bson.M) (interface{}, error) {
			recs, err := store.DecodeAll[files.Record](docs)
			if err != nil {
				return nil, err
			}
			views := make([]files.View, 0, len(recs))
			for _, r := range recs {
				views = append(views, r.WithURLs())
			}
			return views, nil
		}, true
	}
	return nil, false
}

func (h *LiveHandler) Stream(c *gin.Context) {
	coll := c.Param("collection")
	shape, ok := h.shapeFor(coll)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
		return
	}

	// The hub calls back one snapshot at a time, so a single-slot channel
	// holding only the newest snapshot is enough.
	updates := make(chan interface{}, 1)
	failures := make(chan error, 1)
	fail := func(err error) {
		select {
		case failures <- err:
		default:
		}
	}
	onChange := func(docs []bson.M) {
		v, err := shape(docs)
		if err != nil {
			fail(err)
			return
		}
		select {
		case <-updates:
		default:
		}
		updates <- v
	}

	ctx := c.Request.Context()
	unsub, err := h.hub.Subscribe(ctx, coll, onChange, fail)
	if err != nil {
		respondError(c, err, "failed to subscribe")
		return
	}
	defer unsub()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case v := <-updates:
			c.SSEvent("snapshot", v)
			return true
		case err := <-failures:
			logger.Warnf("live: %s subscriber kept its last snapshot: %v", coll, err)
			c.SSEvent("error", gin.H{"error": "snapshot reload failed"})
			return true
		case t := <-ticker.C:
			c.SSEvent("ping", t.Unix())
			return true
		case <-ctx.Done():
			return false
		}
	})
}
