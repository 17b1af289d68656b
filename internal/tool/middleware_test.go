package tool

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestWithLogging_Success(t *testing.T) {
	var buf bytes.Buffer
	logged := WithLogging(textLogger(&buf))(newEcho(t, "listar_abas"))

	out, err := collect(t, logged, `{"text":"Entradas"}`)
	require.NoError(t, err)
	assert.Equal(t, "Entradas", out)

	logs := buf.String()
	assert.Contains(t, logs, `msg="tool start" tool=listar_abas`)
	assert.Contains(t, logs, `args="{\"text\":\"Entradas\"}"`)
	assert.Contains(t, logs, `msg="tool end" tool=listar_abas`)
	assert.Contains(t, logs, "bytes=8")
}

func TestWithLogging_ClientErrorIsWarning(t *testing.T) {
	var buf bytes.Buffer
	logged := WithLogging(textLogger(&buf))(newEcho(t, "listar_abas"))

	_, err := collect(t, logged, `not json`)
	require.Error(t, err)
	assert.Contains(t, buf.String(), `level=WARN msg="tool error"`)
}

func TestWithLogging_SystemErrorIsError(t *testing.T) {
	inner, err := New("gerar", "d", func(_ context.Context, _ echoArgs) (string, error) {
		return "", errors.New("disk full")
	})
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = collect(t, WithLogging(textLogger(&buf))(inner), `{"text":"x"}`)
	require.Error(t, err)
	assert.Contains(t, buf.String(), `level=ERROR msg="tool error" tool=gerar`)
}

func TestWithRecovery(t *testing.T) {
	inner, err := New("explodir", "d", func(_ context.Context, _ echoArgs) (string, error) {
		panic("nil store")
	})
	require.NoError(t, err)
	_, err = collect(t, WithRecovery()(inner), `{"text":"x"}`)
	var se *SystemError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Err.Error(), "panic: nil store")
}

func TestWithTimeoutMiddleware(t *testing.T) {
	inner, err := New("lento", "d", func(ctx context.Context, _ echoArgs) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}, WithTimeout(time.Hour))
	require.NoError(t, err)
	bounded := WithTimeoutMiddleware(5 * time.Millisecond)(inner)

	_, err = collect(t, bounded, `{"text":"x"}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 5*time.Millisecond, bounded.(Metadata).Timeout())
	assert.Equal(t, time.Hour, WithTimeoutMiddleware(0)(inner).(Metadata).Timeout())
}

func TestMiddleware_PreservesMetadata(t *testing.T) {
	inner, err := New("listar_periodos", "d", func(_ context.Context, _ echoArgs) (string, error) {
		return "", nil
	}, WithTitle("Listar períodos"), WithReadOnly())
	require.NoError(t, err)
	wrapped := WithRecovery()(WithLogging(nil)(inner))

	meta, ok := wrapped.(Metadata)
	require.True(t, ok)
	assert.Equal(t, "Listar períodos", meta.Title())
	assert.True(t, meta.IsReadOnly())
	assert.Equal(t, inner.Name(), wrapped.Name())
	assert.Equal(t, inner.Parameters(), wrapped.Parameters())
}

func TestRegistry_Use(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry()
	reg.Register(newEcho(t, "antes"))
	reg.Use(WithRecovery(), WithLogging(textLogger(&buf)))
	reg.Register(newEcho(t, "depois"))

	for _, name := range []string{"antes", "depois"} {
		out, err := execText(reg, context.Background(), Call{ID: name, ToolName: name, Args: []byte(`{"text":"y"}`)})
		require.NoError(t, err)
		assert.Equal(t, "y", out)
		assert.Contains(t, buf.String(), "tool="+name)
	}

	// A second Use replaces the chain.
	buf.Reset()
	reg.Use(WithRecovery())
	_, err := execText(reg, context.Background(), Call{ID: "3", ToolName: "antes", Args: []byte(`{"text":"y"}`)})
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestRegistry_Use_RecoveryInsideLogging(t *testing.T) {
	boom, err := New("explodir", "d", func(_ context.Context, _ echoArgs) (string, error) {
		panic("nil store")
	})
	require.NoError(t, err)
	var buf bytes.Buffer
	var started []string
	reg := NewRegistry(WithRecoverPanics(false), WithOnBeforeExecute(func(_ context.Context, c Call) {
		started = append(started, c.ID)
	}))
	reg.Use(WithLogging(textLogger(&buf)), WithRecovery())
	reg.Register(boom)

	_, err = execText(reg, context.Background(), Call{ID: "c1", ToolName: "explodir", Args: []byte(`{"text":"x"}`)})
	require.True(t, IsSystemError(err), err)
	assert.Contains(t, buf.String(), `level=ERROR msg="tool error" tool=explodir`)
	assert.Equal(t, []string{"c1"}, started)
}
