package authz

import (
	"fmt"
	"net/http"

	"crm-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

// ginCtxKey is where the evaluated permission context is stashed for reuse by
// the handler and the audit recorder.
const ginCtxKey = "authz_context"

// ContextExtractor derives target-record facts (owner, assignee, team, ...)
// from the request: route params, query params, or a storage lookup of the
// record about to be touched. Identity fields are filled in by the middleware;
// extractors only populate the Entity/Owner/AssignedTo/CreatedBy/Team facts.
type ContextExtractor func(c *gin.Context) (Context, error)

// RequirePermission gates a route on (resource, action). It resolves the
// principal, builds the permission context, runs the evaluator, and either
// continues or short-circuits with a structured deny. The deny body discloses
// only the role and the required permission, never entity data.
func RequirePermission(policy *Policy, resource string, action Action, extract ContextExtractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		pctx, ok := buildContext(c, extract)
		if !ok {
			return
		}

		if !policy.Evaluate(pctx.UserRole, resource, action, pctx) {
			denyForbidden(c, pctx.UserRole, resource, action)
			return
		}

		c.Set(ginCtxKey, pctx)
		c.Next()
	}
}

// CheckPermission is the imperative form for in-handler branching that does
// not warrant a separate route-level gate. extra carries any target facts the
// handler already knows; identity fields are overwritten from the principal.
func CheckPermission(c *gin.Context, policy *Policy, resource string, action Action, extra Context) bool {
	uid, err := auth.UserID(c.Request.Context())
	if err != nil {
		return false
	}
	roleStr, err := auth.Role(c.Request.Context())
	if err != nil {
		return false
	}

	extra.UserID = uid
	extra.UserRole = Role(roleStr)
	extra.UserTeamID = auth.TeamID(c.Request.Context())
	return policy.Evaluate(extra.UserRole, resource, action, extra)
}

// FromGin returns the permission context computed by RequirePermission.
func FromGin(c *gin.Context) (Context, bool) {
	v, ok := c.Get(ginCtxKey)
	if !ok {
		return Context{}, false
	}
	pctx, ok := v.(Context)
	return pctx, ok
}

func buildContext(c *gin.Context, extract ContextExtractor) (Context, bool) {
	uid, err := auth.UserID(c.Request.Context())
	if err != nil {
		denyUnauthenticated(c)
		return Context{}, false
	}
	roleStr, err := auth.Role(c.Request.Context())
	if err != nil {
		denyUnauthenticated(c)
		return Context{}, false
	}
	role := Role(roleStr)
	if !ValidRole(role) {
		denyUnauthenticated(c)
		return Context{}, false
	}

	pctx := Context{}
	if extract != nil {
		pctx, err = extract(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
				"code":  "BAD_REQUEST",
			})
			return Context{}, false
		}
	}

	pctx.UserID = uid
	pctx.UserRole = role
	pctx.UserTeamID = auth.TeamID(c.Request.Context())
	return pctx, true
}

func denyUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": "Authentication required",
		"code":  "UNAUTHORIZED",
	})
}

func denyForbidden(c *gin.Context, role Role, resource string, action Action) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error": fmt.Sprintf("Insufficient permissions. Required: %s on %s", action, resource),
		"code":  "FORBIDDEN",
		"details": gin.H{
			"userRole": role,
			"requiredPermission": gin.H{
				"resource": resource,
				"action":   action,
			},
		},
	})
}
