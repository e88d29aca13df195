package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sushant-115/bptree/core/indexing/bptree"
	"github.com/sushant-115/bptree/core/indexmanager"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// session executes shell commands against one index.
type session struct {
	index *indexmanager.BPTreeIndexManager
	out   io.Writer
	// level is the process log level; nil disables the loglevel command.
	level *zap.AtomicLevel
}

// exec runs one command line and reports whether the shell should exit.
func (s *session) exec(ctx context.Context, line string) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}

	switch command := strings.ToLower(args[0]); command {
	case "put":
		if len(args) < 3 {
			s.fail("put requires a key and a value")
			return false
		}
		if err := s.index.Put(ctx, args[1], []byte(strings.Join(args[2:], " "))); err != nil {
			s.fail(err.Error())
			return false
		}
		okColor.Fprintln(s.out, "OK")
	case "get":
		if len(args) != 2 {
			s.fail("get requires a key")
			return false
		}
		value, found := s.index.Get(ctx, args[1])
		if !found {
			missColor.Fprintf(s.out, "(not found) %s\n", args[1])
			return false
		}
		fmt.Fprintf(s.out, "%s = %s\n", keyColor(args[1]), value)
	case "del", "delete":
		if len(args) != 2 {
			s.fail("del requires a key")
			return false
		}
		err := s.index.Delete(ctx, args[1])
		switch {
		case errors.Is(err, bptree.ErrKeyNotFound):
			missColor.Fprintf(s.out, "(not found) %s\n", args[1])
		case err != nil:
			s.fail(err.Error())
		default:
			okColor.Fprintln(s.out, "OK")
		}
	case "range":
		s.rangeCmd(ctx, args[1:])
	case "len":
		fmt.Fprintln(s.out, s.index.Len())
	case "height":
		fmt.Fprintln(s.out, s.index.Height())
	case "dump":
		fmt.Fprint(s.out, s.index.Dump())
	case "dot":
		fmt.Fprint(s.out, s.index.DOT())
	case "check":
		if err := s.index.Validate(); err != nil {
			s.fail(err.Error())
			return false
		}
		okColor.Fprintln(s.out, "tree is valid")
	case "loglevel":
		s.logLevelCmd(args[1:])
	case "help":
		fmt.Fprintln(s.out, replHelp)
	case "exit", "quit":
		return true
	default:
		s.fail(fmt.Sprintf("unknown command %q, type 'help'", command))
	}
	return false
}

func (s *session) rangeCmd(ctx context.Context, args []string) {
	if len(args) < 2 || len(args) > 3 {
		s.fail("range requires a start, an end and an optional limit")
		return
	}
	var limit int64
	if len(args) == 3 {
		var err error
		limit, err = strconv.ParseInt(args[2], 10, 32)
		if err != nil {
			s.fail(fmt.Sprintf("invalid limit %q", args[2]))
			return
		}
	}

	pairs, err := s.index.GetRange(ctx, args[0], args[1], int32(limit))
	if err != nil {
		s.fail(err.Error())
		return
	}
	for _, p := range pairs {
		fmt.Fprintf(s.out, "%s = %s\n", keyColor(p.Key), p.Value)
	}
	missColor.Fprintf(s.out, "(%d keys)\n", len(pairs))
}

func (s *session) logLevelCmd(args []string) {
	if s.level == nil {
		s.fail("log level is fixed for this shell")
		return
	}
	switch len(args) {
	case 0:
		fmt.Fprintln(s.out, s.level.Level())
	case 1:
		lvl, err := zapcore.ParseLevel(args[0])
		if err != nil {
			s.fail(fmt.Sprintf("invalid log level %q", args[0]))
			return
		}
		s.level.SetLevel(lvl)
		okColor.Fprintln(s.out, "OK")
	default:
		s.fail("loglevel takes at most one level")
	}
}

func (s *session) fail(msg string) {
	errColor.Fprintf(s.out, "ERROR: %s\n", msg)
}
