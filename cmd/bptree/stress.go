package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sushant-115/bptree/core/indexing/bptree"
	"github.com/sushant-115/bptree/internal/graphviz"
	"github.com/sushant-115/bptree/internal/stress"
)

func newStressCmd(a *app) *cobra.Command {
	var (
		inserts     int
		keyMax      int64
		deleteRatio float64
		ratePerSec  float64
		seed        uint64
		dotPath     string
	)
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run a random workload against a fresh tree and validate it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Stress
			flags := cmd.Flags()
			if flags.Changed("inserts") {
				cfg.Inserts = inserts
			}
			if flags.Changed("key-max") {
				cfg.KeyMax = keyMax
			}
			if flags.Changed("delete-ratio") {
				cfg.DeleteRatio = deleteRatio
			}
			if flags.Changed("rate") {
				cfg.RatePerSecond = ratePerSec
			}
			if flags.Changed("seed") {
				cfg.Seed = seed
			}
			full := a.cfg
			full.Stress = cfg
			if err := full.Validate(); err != nil {
				return err
			}

			tree, err := bptree.NewOrdered[int64, string](a.cfg.Index.NodeCapacity, bptree.WithLogger(a.logger.Named("tree")))
			if err != nil {
				return err
			}
			report, err := stress.Run(cmd.Context(), tree, cfg, a.logger.Named("stress"))
			if err != nil {
				return fmt.Errorf("stress run stopped after %d operations: %w", report.Ops(), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report)
			fmt.Fprintf(out, "capacity=%d height=%d keys=%d\n", tree.Capacity(), tree.Height(), tree.Len())
			if err := tree.Validate(); err != nil {
				errColor.Fprintf(out, "INVALID: %v\n", err)
				return err
			}
			okColor.Fprintln(out, "tree is valid")

			if dotPath != "" {
				if err := writeDOT(dotPath, tree); err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s\n", dotPath)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&inserts, "inserts", "n", 0, "number of operations (overrides stress.inserts)")
	cmd.Flags().Int64Var(&keyMax, "key-max", 0, "keys are drawn from [0, key-max)")
	cmd.Flags().Float64Var(&deleteRatio, "delete-ratio", 0, "fraction of operations that are deletes")
	cmd.Flags().Float64Var(&ratePerSec, "rate", 0, "operations per second, 0 for unthrottled")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed, 0 picks one")
	cmd.Flags().StringVar(&dotPath, "dot", "", "write the final tree as Graphviz DOT to this file")
	return cmd
}

// writeDOT renders tree into path. A failed close is reported like a failed
// write.
func writeDOT(path string, tree *bptree.Tree[int64, string]) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := graphviz.Write(f, tree); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
