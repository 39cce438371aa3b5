package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"crm-platform/internal/audit"
	"crm-platform/internal/auth"
	"crm-platform/internal/authz"
	"crm-platform/pkg/logger"
	"crm-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ListAuditLogs serves GET /v1/audit/logs.
// Query params: actorId, entityType, entityId, action, startDate, endDate,
// page, limit. Malformed values are rejected here, before storage is touched.
func (h Handlers) ListAuditLogs(c *gin.Context) {
	f, err := parseAuditFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}

	page, err := h.AuditQuery.GetLogs(c.Request.Context(), f)
	if err != nil {
		if errors.Is(err, audit.ErrInvalidFilter) {
			badFilter(c, err)
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit query failed"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// AuditStats serves GET /v1/audit/stats?entityType=&days=.
func (h Handlers) AuditStats(c *gin.Context) {
	days := 30
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badFilter(c, fmt.Errorf("days must be a positive integer, got %q", raw))
			return
		}
		days = n
	}

	stats, err := h.AuditQuery.GetStats(c.Request.Context(), c.Query("entityType"), days)
	if err != nil {
		if errors.Is(err, audit.ErrInvalidFilter) {
			badFilter(c, err)
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit stats failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportAuditLogs serves GET /v1/audit/export?format=csv|json&... The export
// is rate limited per actor and is itself recorded as an audit entry.
func (h Handlers) ExportAuditLogs(c *gin.Context) {
	f, err := parseAuditFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}
	format := c.DefaultQuery("format", audit.FormatCSV)

	actorID, _ := auth.UserID(c.Request.Context())
	if h.RDB != nil && h.ExportRateLimit > 0 {
		key := "audit:export:" + actorID
		allowed, err := utils.AllowFixedWindow(c.Request.Context(), h.RDB, key, h.ExportRateLimit, h.ExportRateWindow)
		if err != nil {
			// Rate limiting is advisory; a redis outage must not block exports.
			logger.FromGin(c).Warn("export rate limit check failed", "err", err)
		} else if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "export rate limit exceeded"})
			return
		}
	}

	payload, contentType, err := h.AuditQuery.Export(c.Request.Context(), f, format, actorID, audit.RequestMetadata(c))
	if err != nil {
		if errors.Is(err, audit.ErrInvalidFilter) {
			badFilter(c, err)
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit export failed"})
		return
	}

	if format == audit.FormatCSV {
		c.Header("Content-Disposition", `attachment; filename="audit_logs.csv"`)
	}
	c.Data(http.StatusOK, contentType, payload)
}

func parseAuditFilter(c *gin.Context) (audit.Filter, error) {
	f := audit.Filter{
		ActorID:    c.Query("actorId"),
		EntityType: c.Query("entityType"),
		EntityID:   c.Query("entityId"),
		Action:     authz.Action(c.Query("action")),
	}

	start, err := parseDate(c.Query("startDate"), false)
	if err != nil {
		return audit.Filter{}, err
	}
	f.Start = start

	end, err := parseDate(c.Query("endDate"), true)
	if err != nil {
		return audit.Filter{}, err
	}
	f.End = end

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return audit.Filter{}, fmt.Errorf("page must be a positive integer, got %q", raw)
		}
		f.Page = n
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return audit.Filter{}, fmt.Errorf("limit must be a positive integer, got %q", raw)
		}
		f.Limit = n
	}
	return f, nil
}

// parseDate accepts RFC3339 or a bare date. A bare end date is widened to the
// end of that day so the range stays inclusive.
func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want RFC3339 or YYYY-MM-DD)", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func badFilter(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error": err.Error(),
		"code":  "BAD_REQUEST",
	})
}
