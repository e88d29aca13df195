package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sushant-115/bptree/core/indexmanager"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newSession(t *testing.T) (*session, *bytes.Buffer) {
	t.Helper()
	index, err := indexmanager.NewBPTreeIndexManager(2, nil, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	var out bytes.Buffer
	return &session{index: index, out: &out}, &out
}

// run executes line and returns what it printed.
func run(t *testing.T, s *session, out *bytes.Buffer, line string) string {
	t.Helper()
	out.Reset()
	require.False(t, s.exec(context.Background(), line), "%q must not end the session", line)
	return out.String()
}

func TestSession_Commands(t *testing.T) {
	s, out := newSession(t)

	require.Contains(t, run(t, s, out, "put apple red fruit"), "OK")
	require.Contains(t, run(t, s, out, "put banana yellow"), "OK")
	require.Contains(t, run(t, s, out, "put cherry dark red"), "OK")
	require.Contains(t, run(t, s, out, "get apple"), "red fruit")
	require.Contains(t, run(t, s, out, "get durian"), "(not found)")

	got := run(t, s, out, "range apple banana")
	require.Contains(t, got, "apple")
	require.Contains(t, got, "banana")
	require.NotContains(t, got, "cherry")
	require.Contains(t, got, "(2 keys)")
	require.Contains(t, run(t, s, out, "range * * 1"), "(1 keys)")

	require.Equal(t, "3\n", run(t, s, out, "len"))
	require.Equal(t, "2\n", run(t, s, out, "height"))
	require.Contains(t, run(t, s, out, "dump"), "BPTree (capacity: 2")
	require.Contains(t, run(t, s, out, "dot"), "digraph")
	require.Contains(t, run(t, s, out, "check"), "tree is valid")

	require.Contains(t, run(t, s, out, "del banana"), "OK")
	require.Contains(t, run(t, s, out, "del banana"), "(not found)")
	require.Equal(t, "2\n", run(t, s, out, "LEN"))
	require.Contains(t, run(t, s, out, "help"), "range <start> <end>")
	require.Empty(t, run(t, s, out, "   "))
}

func TestSession_Errors(t *testing.T) {
	s, out := newSession(t)

	require.Contains(t, run(t, s, out, "put onlykey"), "ERROR")
	require.Contains(t, run(t, s, out, "get"), "ERROR")
	require.Contains(t, run(t, s, out, "del a b"), "ERROR")
	require.Contains(t, run(t, s, out, "range a"), "ERROR")
	require.Contains(t, run(t, s, out, "range a b notanumber"), "invalid limit")
	require.Contains(t, run(t, s, out, "range z a"), "range start must not sort after range end")
	require.Contains(t, run(t, s, out, "frobnicate"), "unknown command")
}

func TestSession_Exit(t *testing.T) {
	s, _ := newSession(t)
	require.True(t, s.exec(context.Background(), "exit"))
	require.True(t, s.exec(context.Background(), "quit"))
}

func TestSession_LogLevel(t *testing.T) {
	s, out := newSession(t)
	require.Contains(t, run(t, s, out, "loglevel debug"), "fixed")

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	s.level = &level
	require.Equal(t, "info\n", run(t, s, out, "loglevel"))
	require.Contains(t, run(t, s, out, "loglevel DEBUG"), "OK")
	require.Equal(t, zapcore.DebugLevel, level.Level())
	require.Contains(t, run(t, s, out, "loglevel loud"), "invalid log level")
	require.Contains(t, run(t, s, out, "loglevel warn error"), "ERROR")
	require.Equal(t, zapcore.DebugLevel, level.Level())
}
