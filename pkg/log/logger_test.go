package log

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContextWithLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx, flush := NewContextWithLogger(context.Background(), false, &buf)

	FromCtx(ctx).Info().Str("persona", "logician").Msg("hello")
	FromCtx(ctx).Debug().Msg("hidden")
	flush()

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "persona=logician")
	assert.NotContains(t, out, "hidden")
}

func TestGooseLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx, flush := NewContextWithLogger(context.Background(), true, &buf)

	NewGooseLoggerFromCtx(ctx).Printf("OK   %s\n", "00001_init.sql")
	flush()

	assert.Contains(t, buf.String(), "OK   00001_init.sql")
	assert.Contains(t, buf.String(), "component=goose")
}

func TestNewFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chat.log")
	w := NewFileWriter(path)

	_, err := w.Write([]byte("line\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.FileExists(t, path)
}
