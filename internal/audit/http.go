package audit

import (
	"crm-platform/internal/auth"
	"crm-platform/internal/authz"

	"github.com/gin-gonic/gin"
)

const (
	headerRequestID = "X-Request-Id"
	headerSessionID = "X-Session-Id"
)

// RequestMetadata builds entry metadata from an inbound request: client IP,
// user-agent, and the request/session identifiers if present.
func RequestMetadata(c *gin.Context) Metadata {
	return Metadata{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
		Source:    "api",
		RequestID: c.Writer.Header().Get(headerRequestID),
		SessionID: c.GetHeader(headerSessionID),
	}
}

// RecordFromRequest is a convenience that pulls the actor id and request
// metadata from the gin context before delegating to Record. Like Record it
// never fails the caller.
func (r *Recorder) RecordFromRequest(c *gin.Context, action authz.Action, entityType, entityID string, opts Options) {
	actorID, _ := auth.UserID(c.Request.Context())
	if opts.Metadata == (Metadata{}) {
		opts.Metadata = RequestMetadata(c)
	}
	r.Record(c.Request.Context(), actorID, action, entityType, entityID, opts)
}
