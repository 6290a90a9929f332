package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"timetable-ical-backend/internal/builder"
)

// feedParams are the per-request generation parameters shared by both
// output modes.
type feedParams struct {
	service *builder.Service
	start   time.Time
	weeks   int
}

// parseFeedParams resolves the account service and the optional date/weeks
// query parameters. A date is snapped to the Monday of its week; the
// default start is today.
func (h *Handler) parseFeedParams(c *gin.Context) (feedParams, bool) {
	id := strings.ToLower(c.Param("id"))
	service, ok := h.services[id]
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Unknown account id"})
		return feedParams{}, false
	}

	start := time.Now()
	if dateParam := c.Query("date"); dateParam != "" {
		parsed, err := time.Parse("2006-01-02", dateParam)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'date' format. Use yyyy-mm-dd."})
			return feedParams{}, false
		}
		start = startOfWeek(parsed)
	}

	weeks := h.cfg.Timetable.DefaultWeeks
	if weeksParam := c.Query("weeks"); weeksParam != "" {
		parsed, err := strconv.Atoi(weeksParam)
		if err != nil || parsed < builder.MinWeeks || parsed > builder.MaxWeeks {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'weeks' parameter"})
			return feedParams{}, false
		}
		weeks = parsed
	}

	return feedParams{service: service, start: start, weeks: weeks}, true
}

// GetICal handles GET /ical/{account_id}.
func (h *Handler) GetICal(c *gin.Context) {
	params, ok := h.parseFeedParams(c)
	if !ok {
		return
	}

	doc, err := params.service.GenerateICal(c.Request.Context(), params.start, params.weeks)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Calendar could not be generated"})
		return
	}

	c.Header("Content-Disposition", `inline; filename="timetable.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(doc))
}

// GetClean handles GET /json/{account_id}.
func (h *Handler) GetClean(c *gin.Context) {
	params, ok := h.parseFeedParams(c)
	if !ok {
		return
	}

	doc, err := params.service.GenerateClean(c.Request.Context(), params.start, params.weeks)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Timetable could not be generated"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// startOfWeek snaps a date to the Monday of its week.
func startOfWeek(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
