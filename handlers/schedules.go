package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/banghwa/staffboard/internal/apperr"
	"github.com/banghwa/staffboard/internal/calendar"
	"github.com/banghwa/staffboard/internal/export"
	"github.com/banghwa/staffboard/internal/schedule"
	"github.com/banghwa/staffboard/pkg/middleware"
	"github.com/gin-gonic/gin"
)

type addEventRequest struct {
	Title string `json:"title" binding:"required"`
	Date  string `json:"date" binding:"required,isodate"`
}

type generateRequest struct {
	Title     string `json:"title" binding:"required"`
	StartDate string `json:"startDate" binding:"required,isodate"`
	EndDate   string `json:"endDate" binding:"required,isodate"`
	DayOfWeek *int   `json:"dayOfWeek" binding:"required,min=0,max=6"`
}

type bulkRequest struct {
	Title     string `json:"title" binding:"required"`
	StartDate string `json:"startDate" binding:"required,isodate"`
	EndDate   string `json:"endDate" binding:"required,isodate"`
	Confirm   bool   `json:"confirm"`
}

type bulkMoveRequest struct {
	bulkRequest
	TargetDate string `json:"targetDate" binding:"required,isodate"`
}

func (r bulkRequest) selector() schedule.Selector {
	return schedule.Selector{Title: r.Title, Start: r.StartDate, End: r.EndDate}
}

// ScheduleHandler serves the instructor schedule: single edits, the
// recurring generator, conditional bulk changes, the month grid and the ICS
// feed.
type ScheduleHandler struct {
	svc *schedule.Service
	pub *export.Publisher
	loc *time.Location
	now func() time.Time
}

func NewScheduleHandler(svc *schedule.Service, pub *export.Publisher, loc *time.Location) *ScheduleHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ScheduleHandler{svc: svc, pub: pub, loc: loc, now: time.Now}
}

// Register mounts the routes under /schedules. auth establishes a session;
// bulk routes additionally require the admin capability.
func (h *ScheduleHandler) Register(api *gin.RouterGroup, auth gin.HandlerFunc) {
	g := api.Group("/schedules")
	g.GET("", h.List)
	g.GET("/calendar", h.Calendar)
	g.GET("/export.ics", h.ExportICS)
	g.POST("", auth, h.Add)
	g.DELETE("/:id", auth, h.Remove)

	admin := g.Group("", auth, middleware.RequireAdmin())
	admin.POST("/generate", h.Generate)
	admin.POST("/bulk-delete", h.BulkDelete)
	admin.POST("/bulk-move", h.BulkMove)
	admin.POST("/export", h.Publish)
}

func (h *ScheduleHandler) List(c *gin.Context) {
	events, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to load schedules")
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *ScheduleHandler) Add(c *gin.Context) {
	var req addEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err), "")
		return
	}
	ev, err := h.svc.Add(c.Request.Context(), req.Title, req.Date)
	if err != nil {
		respondError(c, err, "failed to add event")
		return
	}
	c.JSON(http.StatusCreated, ev)
}

func (h *ScheduleHandler) Remove(c *gin.Context) {
	if err := h.svc.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "failed to remove event")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err), "")
		return
	}
	n, err := h.svc.Generate(c.Request.Context(), schedule.Recurrence{
		Title:   req.Title,
		Start:   req.StartDate,
		End:     req.EndDate,
		Weekday: *req.DayOfWeek,
	})
	if err != nil {
		respondError(c, err, "failed to generate events")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// confirmation records the prompt so a declined request can echo it back.
type confirmation struct {
	ok     bool
	prompt string
}

func (cf *confirmation) Confirm(prompt string) bool {
	cf.prompt = prompt
	return cf.ok
}

func (h *ScheduleHandler) respondBulk(c *gin.Context, n int, err error, cf *confirmation, msg string) {
	if errors.Is(err, apperr.ErrNotConfirmed) {
		c.JSON(http.StatusPreconditionRequired, gin.H{"error": "confirmation required", "prompt": cf.prompt})
		return
	}
	if err != nil {
		respondError(c, err, msg)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *ScheduleHandler) BulkDelete(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err), "")
		return
	}
	cf := &confirmation{ok: req.Confirm}
	n, err := h.svc.BulkDelete(c.Request.Context(), req.selector(), cf)
	h.respondBulk(c, n, err, cf, "bulk delete failed")
}

func (h *ScheduleHandler) BulkMove(c *gin.Context) {
	var req bulkMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err), "")
		return
	}
	cf := &confirmation{ok: req.Confirm}
	n, err := h.svc.BulkMove(c.Request.Context(), req.selector(), req.TargetDate, cf)
	h.respondBulk(c, n, err, cf, "bulk move failed")
}

// Calendar lays out one month. year and month (zero-based) default to the
// current month in the configured timezone.
func (h *ScheduleHandler) Calendar(c *gin.Context) {
	now := h.now()
	cur := calendar.Current(now, h.loc)
	year, month := cur.Year, cur.Month
	var fields []apperr.FieldError
	if v := c.Query("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			fields = append(fields, apperr.FieldError{Field: "year", Error: "must be a year between 1 and 9999"})
		}
		year = y
	}
	if v := c.Query("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 0 || m > 11 {
			fields = append(fields, apperr.FieldError{Field: "month", Error: "must be 0 (January) through 11 (December)"})
		}
		month = m
	}
	if len(fields) > 0 {
		respondError(c, apperr.NewValidationError(fields...), "")
		return
	}
	events, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to load schedules")
		return
	}
	c.JSON(http.StatusOK, calendar.BuildMonth(year, month, events, calendar.Today(now, h.loc)))
}

func (h *ScheduleHandler) ExportICS(c *gin.Context) {
	var buf bytes.Buffer
	if _, err := h.pub.Render(c.Request.Context(), &buf); err != nil {
		respondError(c, err, "failed to render calendar")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="schedules.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

func (h *ScheduleHandler) Publish(c *gin.Context) {
	res, err := h.pub.Publish(c.Request.Context())
	if errors.Is(err, export.ErrNoObjectStore) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err, "failed to publish calendar")
		return
	}
	c.JSON(http.StatusOK, res)
}
