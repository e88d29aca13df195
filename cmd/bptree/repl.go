package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/sushant-115/bptree/core/indexmanager"
)

const replHelp = `Commands:
  put <key> <value>            insert or overwrite a key
  get <key>                    look up a key
  del <key>                    delete a key
  range <start> <end> [limit]  list keys in [start, end]; "*" leaves a side open
  len                          number of keys
  height                       number of levels
  dump                         print every node
  dot                          print the tree as a Graphviz digraph
  check                        validate every structural invariant
  loglevel [level]             show or change the log level
  help                         show this text
  exit                         leave the shell`

var (
	okColor   = color.New(color.FgGreen)
	missColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
	keyColor  = color.New(color.FgCyan).SprintFunc()
)

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Open an interactive shell on a fresh tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := indexmanager.NewBPTreeIndexManager(a.cfg.Index.NodeCapacity, a.tel, a.logger)
			if err != nil {
				return err
			}
			defer index.Close()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "bptree> ",
				HistoryFile:     historyFile(),
				AutoComplete:    replCompleter(),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("failed to start shell: %w", err)
			}
			defer rl.Close()

			s := &session{index: index, out: rl.Stdout(), level: &a.level}
			fmt.Fprintf(s.out, "B+ tree with node capacity %d. Type 'help' for commands.\n", a.cfg.Index.NodeCapacity)
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						return nil
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if s.exec(cmd.Context(), line) {
					return nil
				}
			}
		},
	}
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "bptree_history")
}

func replCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("put"), readline.PcItem("get"), readline.PcItem("del"),
		readline.PcItem("range"), readline.PcItem("len"), readline.PcItem("height"),
		readline.PcItem("dump"), readline.PcItem("dot"), readline.PcItem("check"),
		readline.PcItem("help"), readline.PcItem("exit"),
	)
}
