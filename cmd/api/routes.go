package main

import (
	"crm-platform/internal/authz"
	"crm-platform/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic: every protected route declares its
// (resource, action) pair plus a context extractor, and the authorization
// middleware does the rest.
func registerRoutes(r *gin.Engine, policy *authz.Policy, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.POST("/v1/auth/login", h.Login)

	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/me", h.Me)

		// Per-field access policy for form-driving UIs.
		v1.GET("/meta/:entityType/access-policy", h.AccessPolicy)

		// Entity collections. Record-level routes authorize against the
		// record's ownership facts; collection routes against the caller's
		// own team.
		for _, resource := range []string{
			authz.ResourceAccounts,
			authz.ResourceContacts,
			authz.ResourceDeals,
			authz.ResourceTickets,
			authz.ResourceUsers,
		} {
			g := v1.Group("/" + resource)
			g.GET("",
				authz.RequirePermission(policy, resource, authz.ActionRead, httpapi.OwnTeamContext()),
				h.ListEntities(resource))
			g.GET("/:id",
				authz.RequirePermission(policy, resource, authz.ActionRead, h.EntityContext(resource)),
				h.GetEntity(resource))
			g.PATCH("/:id",
				authz.RequirePermission(policy, resource, authz.ActionUpdate, h.EntityContext(resource)),
				h.UpdateEntity(resource))
		}

		teams := v1.Group("/" + authz.ResourceTeams)
		{
			teams.GET("",
				authz.RequirePermission(policy, authz.ResourceTeams, authz.ActionRead, httpapi.OwnTeamContext()),
				h.ListEntities(authz.ResourceTeams))
			teams.GET("/:id",
				authz.RequirePermission(policy, authz.ResourceTeams, authz.ActionRead, h.EntityContext(authz.ResourceTeams)),
				h.GetEntity(authz.ResourceTeams))
			teams.PATCH("/:id",
				authz.RequirePermission(policy, authz.ResourceTeams, authz.ActionUpdate, h.EntityContext(authz.ResourceTeams)),
				h.UpdateEntity(authz.ResourceTeams))
		}

		reports := v1.Group("/" + authz.ResourceReports)
		{
			reports.GET("",
				authz.RequirePermission(policy, authz.ResourceReports, authz.ActionRead, httpapi.PublicReportsContext()),
				h.ListEntities(authz.ResourceReports))
			reports.GET("/:id",
				authz.RequirePermission(policy, authz.ResourceReports, authz.ActionRead, h.EntityContext(authz.ResourceReports)),
				h.GetEntity(authz.ResourceReports))
		}

		// Audit trail. Reads require audit_logs/read; export requires the
		// export verb and additionally records itself.
		auditGroup := v1.Group("/audit")
		{
			auditGroup.GET("/logs",
				authz.RequirePermission(policy, authz.ResourceAuditLogs, authz.ActionRead, nil),
				h.ListAuditLogs)
			auditGroup.GET("/stats",
				authz.RequirePermission(policy, authz.ResourceAuditLogs, authz.ActionRead, nil),
				h.AuditStats)
			auditGroup.GET("/export",
				authz.RequirePermission(policy, authz.ResourceAuditLogs, authz.ActionExport, nil),
				h.ExportAuditLogs)
		}
	}
}
