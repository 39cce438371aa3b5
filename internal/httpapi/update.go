package httpapi

import (
	"errors"
	"net/http"

	"crm-platform/internal/audit"
	"crm-platform/internal/authz"
	"crm-platform/internal/fields"

	"github.com/gin-gonic/gin"
)

// UpdateEntity applies a partial update and records the before/after diff.
//
// Flow: the route middleware has already authorized (resource, update) against
// the record's ownership facts. Here we re-check field editability server-side
// (the UI hides non-editable inputs, the server drops them), apply the patch,
// record the audit entry, and respond with the redacted result. The audit
// write happens after the store commit and cannot fail the response.
func (h Handlers) UpdateEntity(entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := callerRole(c)
		if !ok {
			return
		}

		var patch map[string]any
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if len(patch) == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "empty patch"})
			return
		}

		access := h.Fields.AccessPolicy(role, entityType)
		allowed := make(map[string]any, len(patch))
		for k, v := range patch {
			if a, ok := access[k]; ok && a.Editable {
				allowed[k] = v
			}
		}
		if len(allowed) == 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "no editable fields in patch",
				"code":  "FORBIDDEN",
			})
			return
		}

		id := c.Param("id")
		before, err := h.Entities.Get(c.Request.Context(), entityType, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
			return
		}

		after, err := h.Entities.Update(c.Request.Context(), entityType, id, allowed)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
			return
		}

		if h.Recorder != nil {
			h.Recorder.RecordFromRequest(c, authz.ActionUpdate, entityType, id, audit.Options{
				EntityName: displayName(after),
				Before:     before,
				After:      after,
				Redact:     fields.SecretFields(entityType),
			})
		}

		c.JSON(http.StatusOK, h.Fields.Project(after, role, entityType))
	}
}

// displayName picks a human label for the audit trail; entities use different
// title fields.
func displayName(entity map[string]any) string {
	for _, k := range []string{"name", "title", "subject", "email"} {
		if v, ok := entity[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
