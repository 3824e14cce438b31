package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/pkg/log"
)

type Personas struct {
	db *sql.DB
}

func NewPersonas(db *sql.DB) *Personas {
	return &Personas{db: db}
}

// Upsert stores a persona by name, replacing an existing one with the same
// name. Name and prompt are trimmed.
func (p *Personas) Upsert(ctx context.Context, name, prompt string) (int64, error) {
	query := `INSERT OR REPLACE INTO personas (name, prompt) VALUES (?, ?)`
	res, err := p.db.ExecContext(ctx, query, strings.TrimSpace(name), strings.TrimSpace(prompt))
	if err != nil {
		return 0, fmt.Errorf("failed to save persona: %w", err)
	}
	return res.LastInsertId()
}

// Create inserts a new persona and fails when the name is taken.
func (p *Personas) Create(ctx context.Context, name, prompt string) (int64, error) {
	res, err := p.db.ExecContext(ctx, `INSERT INTO personas (name, prompt) VALUES (?, ?)`, name, prompt)
	if err != nil {
		return 0, fmt.Errorf("failed to create persona: %w", err)
	}
	return res.LastInsertId()
}

func (p *Personas) List(ctx context.Context) ([]core.Persona, error) {
	return p.query(ctx, `SELECT id, name, prompt, created_at FROM personas ORDER BY created_at DESC, id DESC`)
}

// ExportAll returns every persona in insertion order.
func (p *Personas) ExportAll(ctx context.Context) ([]core.Persona, error) {
	return p.query(ctx, `SELECT id, name, prompt, created_at FROM personas ORDER BY id`)
}

func (p *Personas) Get(ctx context.Context, id int64) (core.Persona, error) {
	out, err := p.query(ctx, `SELECT id, name, prompt, created_at FROM personas WHERE id = ?`, id)
	if err != nil {
		return core.Persona{}, err
	}
	if len(out) == 0 {
		return core.Persona{}, fmt.Errorf("persona %d: %w", id, ErrNotFound)
	}
	return out[0], nil
}

func (p *Personas) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM personas WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete persona: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Import inserts personas in one transaction, skipping entries without a
// name or prompt and names that already exist. It returns how many rows
// were added.
func (p *Personas) Import(ctx context.Context, personas []core.Persona) (added int, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO personas (name, prompt) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	for _, it := range personas {
		if strings.TrimSpace(it.Name) == "" || strings.TrimSpace(it.Prompt) == "" {
			continue
		}
		res, err := stmt.ExecContext(ctx, it.Name, it.Prompt)
		if err != nil {
			return 0, fmt.Errorf("failed to import persona %q: %w", it.Name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	log.FromCtx(ctx).Info().Int("received", len(personas)).Int("added", added).Msg("personas imported")
	return added, nil
}

func (p *Personas) query(ctx context.Context, query string, args ...any) ([]core.Persona, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query personas: %w", err)
	}
	defer rows.Close()

	var out []core.Persona
	for rows.Next() {
		var it core.Persona
		var created sql.NullTime
		if err := rows.Scan(&it.ID, &it.Name, &it.Prompt, &created); err != nil {
			return nil, fmt.Errorf("failed to scan persona: %w", err)
		}
		it.CreatedAt = created.Time
		out = append(out, it)
	}
	return out, rows.Err()
}
