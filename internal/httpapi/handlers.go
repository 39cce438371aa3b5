package httpapi

import (
	"errors"
	"net/http"
	"time"

	"crm-platform/internal/audit"
	"crm-platform/internal/auth"
	"crm-platform/internal/authz"
	"crm-platform/internal/fields"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
// Responses always pass through the field resolver before serialization.
type Handlers struct {
	Auth     *auth.Manager
	Policy   *authz.Policy
	Fields   *fields.Resolver
	Entities EntityStore

	Recorder   *audit.Recorder
	AuditQuery *audit.Query

	// RDB gates audit exports per actor; nil disables the rate limit.
	RDB              *redis.Client
	ExportRateLimit  int
	ExportRateWindow time.Duration
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	TeamID string `json:"team_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id and role required"})
		return
	}
	if !authz.ValidRole(authz.Role(req.Role)) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.TeamID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// Me echoes the resolved principal.
func (h Handlers) Me(c *gin.Context) {
	uid, _ := auth.UserID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"user_id": uid,
		"team_id": auth.TeamID(c.Request.Context()),
		"role":    role,
	})
}

// --- Field access policy (UI contract) ---

// AccessPolicy returns the per-field {visible, editable, required} map for the
// caller's role on one entity type. Form-driving UIs use it to hide or disable
// inputs; the server still enforces the same policy on write.
func (h Handlers) AccessPolicy(c *gin.Context) {
	entityType := c.Param("entityType")
	if fields.KnownFields(entityType) == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown entity type"})
		return
	}
	role, ok := callerRole(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entityType": entityType,
		"fields":     h.Fields.AccessPolicy(role, entityType),
	})
}

// --- Entities ---

// GetEntity fetches one record and redacts it to the caller's visible fields.
func (h Handlers) GetEntity(entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := callerRole(c)
		if !ok {
			return
		}
		entity, err := h.Entities.Get(c.Request.Context(), entityType, c.Param("id"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
			return
		}
		c.JSON(http.StatusOK, h.Fields.Project(entity, role, entityType))
	}
}

// ListEntities lists records, each redacted to the caller's visible fields.
func (h Handlers) ListEntities(entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := callerRole(c)
		if !ok {
			return
		}
		entities, err := h.Entities.List(c.Request.Context(), entityType)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": h.Fields.ProjectAll(entities, role, entityType)})
	}
}

func callerRole(c *gin.Context) (authz.Role, bool) {
	roleStr, err := auth.Role(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
			"code":  "UNAUTHORIZED",
		})
		return "", false
	}
	return authz.Role(roleStr), true
}
