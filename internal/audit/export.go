package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"crm-platform/internal/authz"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// csvHeader is the fixed export column order. Do not reorder: downstream
// compliance tooling parses by position.
const csvHeader = "ID,Actor ID,Action,Entity Type,Entity ID,IP,User Agent,Created At"

// Export renders the filtered log set as CSV or JSON and records the export
// itself as an audit entry against entity type audit_logs. Returns the payload
// and its content type.
func (q *Query) Export(ctx context.Context, f Filter, format, actorID string, meta Metadata) ([]byte, string, error) {
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatJSON {
		return nil, "", fmt.Errorf("%w: unsupported format %q", ErrInvalidFilter, format)
	}

	page, err := q.GetLogs(ctx, f)
	if err != nil {
		return nil, "", err
	}

	var payload []byte
	var contentType string
	switch format {
	case FormatJSON:
		payload, err = json.Marshal(page)
		if err != nil {
			return nil, "", fmt.Errorf("audit: encode export: %w", err)
		}
		contentType = "application/json"
	case FormatCSV:
		payload = encodeCSV(page.Logs)
		contentType = "text/csv"
	}

	if q.rec != nil {
		q.rec.Record(ctx, actorID, authz.ActionExport, authz.ResourceAuditLogs, "", Options{
			After: map[string]any{
				"format":     format,
				"entityType": f.EntityType,
				"actorId":    f.ActorID,
				"rows":       len(page.Logs),
			},
			Metadata: meta,
		})
	}

	return payload, contentType, nil
}

// encodeCSV writes the fixed header followed by one row per entry with every
// field double-quoted.
func encodeCSV(entries []Entry) []byte {
	var b strings.Builder
	b.WriteString(csvHeader)
	b.WriteByte('\n')
	for _, e := range entries {
		row := []string{
			e.ID,
			e.ActorID,
			string(e.Action),
			e.EntityType,
			e.EntityID,
			e.Metadata.IPAddress,
			e.Metadata.UserAgent,
			e.CreatedAt.UTC().Format(time.RFC3339),
		}
		for i, v := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(v, `"`, `""`))
			b.WriteByte('"')
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
