package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/sushant-115/bptree/core/indexing/bptree"
	"github.com/sushant-115/bptree/internal/graphviz"
)

func newRenderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "render <key>...",
		Short:   "Insert integer keys in order and print the tree as Graphviz DOT",
		Example: "  bptree render --capacity 2 5 15 20 25 30 35 40 45 55 | dot -Tsvg > tree.svg",
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := bptree.NewOrdered[int64, string](a.cfg.Index.NodeCapacity, bptree.WithLogger(a.logger.Named("tree")))
			if err != nil {
				return err
			}
			for _, arg := range args {
				key, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid key %q: %w", arg, err)
				}
				tree.Insert(key, arg)
			}
			return graphviz.Write(cmd.OutOrStdout(), tree)
		},
	}
}
