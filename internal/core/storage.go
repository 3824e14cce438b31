package core

import "context"

type SessionsRepository interface {
	Save(ctx context.Context, s Session) (int64, error)
	List(ctx context.Context) ([]SessionSummary, error)
	Get(ctx context.Context, id int64) (Session, error)
	History(ctx context.Context, id int64) ([]Message, error)
	Delete(ctx context.Context, id int64) (int64, error)
	UpdateMeta(ctx context.Context, id int64, title string, tags []string) error
}

type PersonasRepository interface {
	Upsert(ctx context.Context, name, prompt string) (int64, error)
	Create(ctx context.Context, name, prompt string) (int64, error)
	List(ctx context.Context) ([]Persona, error)
	Get(ctx context.Context, id int64) (Persona, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ExportAll(ctx context.Context) ([]Persona, error)
	Import(ctx context.Context, personas []Persona) (int, error)
}
