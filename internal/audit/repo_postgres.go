package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"crm-platform/internal/authz"
)

// PostgresRepo persists entries in an append-only audit_logs table.
//
// Expected schema:
//
//	CREATE TABLE audit_logs (
//	    id          TEXT PRIMARY KEY,
//	    actor_id    TEXT NOT NULL,
//	    action      TEXT NOT NULL,
//	    entity_type TEXT NOT NULL,
//	    entity_id   TEXT NOT NULL DEFAULT '',
//	    entity_name TEXT NOT NULL DEFAULT '',
//	    diff        JSONB,
//	    metadata    JSONB NOT NULL DEFAULT '{}',
//	    created_at  TIMESTAMPTZ NOT NULL
//	);
//
// The table carries no UPDATE/DELETE paths in this codebase.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Entry) error {
	var diffJSON any
	if e.Diff != nil {
		raw, err := json.Marshal(e.Diff)
		if err != nil {
			return fmt.Errorf("audit: marshal diff: %w", err)
		}
		diffJSON = raw
	}
	metaJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("audit: marshal metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_id, action, entity_type, entity_id, entity_name, diff, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.ActorID, string(e.Action), e.EntityType, e.EntityID, e.EntityName, diffJSON, metaJSON, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]Entry, int, error) {
	where, args := buildWhere(f)

	var total int
	countQuery := "SELECT COUNT(*) FROM audit_logs" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("audit: count: %w", err)
	}

	offset := (f.Page - 1) * f.Limit
	query := fmt.Sprintf(
		"SELECT id, actor_id, action, entity_type, entity_id, entity_name, diff, metadata, created_at FROM audit_logs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2,
	)
	rows, err := r.db.QueryContext(ctx, query, append(args, f.Limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("audit: list: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var action string
		var diffRaw, metaRaw []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &action, &e.EntityType, &e.EntityID, &e.EntityName, &diffRaw, &metaRaw, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("audit: scan: %w", err)
		}
		e.Action = authz.Action(action)
		if len(diffRaw) > 0 {
			var d Diff
			if err := json.Unmarshal(diffRaw, &d); err != nil {
				return nil, 0, fmt.Errorf("audit: decode diff: %w", err)
			}
			e.Diff = &d
		}
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &e.Metadata); err != nil {
				return nil, 0, fmt.Errorf("audit: decode metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("audit: list rows: %w", err)
	}
	return entries, total, nil
}

func (r *PostgresRepo) ActionCounts(ctx context.Context, entityType string, since time.Time) (map[authz.Action]int, error) {
	where, args := buildStatsWhere(entityType, since)
	rows, err := r.db.QueryContext(ctx,
		"SELECT action, COUNT(*) FROM audit_logs"+where+" GROUP BY action", args...)
	if err != nil {
		return nil, fmt.Errorf("audit: action counts: %w", err)
	}
	defer rows.Close()

	out := make(map[authz.Action]int)
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("audit: scan action count: %w", err)
		}
		out[authz.Action(action)] = n
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ActorCounts(ctx context.Context, entityType string, since time.Time, limit int) ([]ActorCount, error) {
	where, args := buildStatsWhere(entityType, since)
	query := fmt.Sprintf(
		"SELECT actor_id, COUNT(*) AS n FROM audit_logs%s GROUP BY actor_id ORDER BY n DESC, actor_id ASC LIMIT $%d",
		where, len(args)+1,
	)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("audit: actor counts: %w", err)
	}
	defer rows.Close()

	out := []ActorCount{}
	for rows.Next() {
		var ac ActorCount
		if err := rows.Scan(&ac.ActorID, &ac.Count); err != nil {
			return nil, fmt.Errorf("audit: scan actor count: %w", err)
		}
		out = append(out, ac)
	}
	return out, rows.Err()
}

func buildWhere(f Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ActorID != "" {
		add("actor_id = $%d", f.ActorID)
	}
	if f.EntityType != "" {
		add("entity_type = $%d", f.EntityType)
	}
	if f.EntityID != "" {
		add("entity_id = $%d", f.EntityID)
	}
	if f.Action != "" {
		add("action = $%d", string(f.Action))
	}
	if f.Start != nil {
		add("created_at >= $%d", *f.Start)
	}
	if f.End != nil {
		add("created_at <= $%d", *f.End)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func buildStatsWhere(entityType string, since time.Time) (string, []any) {
	conds := []string{"created_at >= $1"}
	args := []any{since}
	if entityType != "" {
		args = append(args, entityType)
		conds = append(conds, fmt.Sprintf("entity_type = $%d", len(args)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
