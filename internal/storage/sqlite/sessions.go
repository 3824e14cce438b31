package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/pkg/log"
)

const previewLength = 100

type Sessions struct {
	db *sql.DB
}

func NewSessions(db *sql.DB) *Sessions {
	return &Sessions{db: db}
}

func (s *Sessions) Save(ctx context.Context, sess core.Session) (int64, error) {
	history, err := json.Marshal(sess.History)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal history: %w", err)
	}
	tags, err := marshalTags(sess.Tags)
	if err != nil {
		return 0, err
	}

	query := `INSERT INTO sessions (persona, model, history, title, tags) VALUES (?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query, sess.Persona, sess.Model, string(history), nullString(sess.Title), tags)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read session id: %w", err)
	}
	log.FromCtx(ctx).Debug().Int64("id", id).Int("messages", len(sess.History)).Msg("session saved")
	return id, nil
}

// List returns all sessions newest first with a short preview of the
// serialized history.
func (s *Sessions) List(ctx context.Context) ([]core.SessionSummary, error) {
	query := `SELECT id, persona, model, title, tags, created_at, SUBSTR(history, 1, ?) AS preview
		FROM sessions ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, previewLength)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []core.SessionSummary
	for rows.Next() {
		var sum core.SessionSummary
		var title, tags, preview sql.NullString
		var created sql.NullTime

		if err := rows.Scan(&sum.ID, &sum.Persona, &sum.Model, &title, &tags, &created, &preview); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		sum.Title = title.String
		sum.Preview = preview.String
		sum.CreatedAt = created.Time
		sum.Tags = unmarshalTags(tags)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *Sessions) Get(ctx context.Context, id int64) (core.Session, error) {
	query := `SELECT id, persona, model, title, tags, created_at, history FROM sessions WHERE id = ?`

	var sess core.Session
	var title, tags sql.NullString
	var created sql.NullTime
	var history string

	err := s.db.QueryRowContext(ctx, query, id).Scan(&sess.ID, &sess.Persona, &sess.Model, &title, &tags, &created, &history)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("failed to query session: %w", err)
	}

	sess.Title = title.String
	sess.CreatedAt = created.Time
	sess.Tags = unmarshalTags(tags)
	if err := json.Unmarshal([]byte(history), &sess.History); err != nil {
		return core.Session{}, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return sess, nil
}

func (s *Sessions) History(ctx context.Context, id int64) ([]core.Message, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.History, nil
}

// Delete removes a session and reports how many rows went away.
func (s *Sessions) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session: %w", err)
	}
	return res.RowsAffected()
}

// UpdateMeta replaces title and tags. Empty values clear the column.
func (s *Sessions) UpdateMeta(ctx context.Context, id int64, title string, tags []string) error {
	tagsJSON, err := marshalTags(tags)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET title = ?, tags = ? WHERE id = ?`, nullString(title), tagsJSON, id)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func marshalTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal tags: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalTags accepts a JSON array or, for rows written by hand, a bare
// string holding a single tag.
func unmarshalTags(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw.String), &tags); err != nil {
		return []string{raw.String}
	}
	return tags
}
