package main

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/sandevgo/dissonance/internal/storage/sqlite"
	"github.com/sandevgo/dissonance/pkg/srv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dbUser touches the database while shutting down.
type dbUser struct {
	db      *sql.DB
	pingErr error
}

func (d *dbUser) Start(context.Context) error { return nil }

func (d *dbUser) Shutdown(ctx context.Context) error {
	d.pingErr = d.db.PingContext(ctx)
	return nil
}

func TestApp_LifecycleClosesDatabaseLast(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.NewDB(ctx, filepath.Join(t.TempDir(), "dissonance.db"))
	require.NoError(t, err)

	a := &app{db: db}
	user := &dbUser{db: db}

	services := a.lifecycle(user)
	require.Len(t, services, 2)

	srv.ShutdownServices(ctx, services...)

	assert.NoError(t, user.pingErr, "database closed before its users shut down")
	assert.Error(t, db.PingContext(ctx))
}
