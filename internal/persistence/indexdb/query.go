package indexdb

import (
	"context"
	"database/sql"
	"fmt"
)

type AuditRow struct {
	SessionID string
	Tick      uint64
	Seq       int
	Actor     string
	Action    string
	ItemKey   string
	Pos       [3]int
	Reason    string
}

// AuditFilter selects audit rows. Empty fields match everything.
type AuditFilter struct {
	SessionID string
	Actor     string
	ItemKey   string
	Action    string
	Limit     int
}

func (s *SQLiteIndex) Audits(ctx context.Context, f AuditFilter) ([]AuditRow, error) {
	q := `SELECT session_id,tick,seq,actor,action,item_key,x,y,z,COALESCE(reason,'') FROM audits WHERE 1=1`
	var args []any
	if f.SessionID != "" {
		q += ` AND session_id=?`
		args = append(args, f.SessionID)
	}
	if f.Actor != "" {
		q += ` AND actor=?`
		args = append(args, f.Actor)
	}
	if f.ItemKey != "" {
		q += ` AND item_key=?`
		args = append(args, f.ItemKey)
	}
	if f.Action != "" {
		q += ` AND action=?`
		args = append(args, f.Action)
	}
	q += ` ORDER BY tick, seq`
	if f.Limit > 0 {
		q += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditRow
	for rows.Next() {
		var r AuditRow
		var tick int64
		if err := rows.Scan(&r.SessionID, &tick, &r.Seq, &r.Actor, &r.Action, &r.ItemKey, &r.Pos[0], &r.Pos[1], &r.Pos[2], &r.Reason); err != nil {
			return nil, err
		}
		r.Tick = uint64(tick)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LastHolder returns the participant of the latest grant of key that was not followed by a revoke.
func (s *SQLiteIndex) LastHolder(ctx context.Context, sessionID, key string) (string, bool, error) {
	var actor, action string
	err := s.db.QueryRowContext(ctx,
		`SELECT actor, action FROM audits
		 WHERE session_id=? AND item_key=? AND action IN ('SUPERITEM_GRANT','SUPERITEM_REVOKE')
		 ORDER BY tick DESC, seq DESC LIMIT 1`,
		sessionID, key,
	).Scan(&actor, &action)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if action != "SUPERITEM_GRANT" {
		return "", false, nil
	}
	return actor, true, nil
}

type SessionRow struct {
	SessionID     string
	StartedAt     string
	CatalogDigest string
}

func (s *SQLiteIndex) Sessions(ctx context.Context) ([]SessionRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id, started_at, catalog_digest FROM sessions ORDER BY started_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SessionRow
	for rows.Next() {
		var r SessionRow
		if err := rows.Scan(&r.SessionID, &r.StartedAt, &r.CatalogDigest); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RejectedEvents counts journal entries whose default action was not applied, per kind.
func (s *SQLiteIndex) RejectedEvents(ctx context.Context, sessionID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM journal WHERE session_id=? AND accepted=0 GROUP BY kind`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[kind] = n
	}
	return out, rows.Err()
}
