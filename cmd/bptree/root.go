package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sushant-115/bptree/internal/config"
	"github.com/sushant-115/bptree/pkg/logger"
	"github.com/sushant-115/bptree/pkg/telemetry"
	"go.uber.org/zap"
)

// app carries what every subcommand needs once the root has loaded the
// configuration.
type app struct {
	configPath string
	capacity   int

	cfg      config.Config
	logger   *zap.Logger
	level    zap.AtomicLevel
	tel      *telemetry.Telemetry
	shutdown telemetry.ShutdownFunc
}

// runRoot executes root and then releases telemetry and flushes the logger,
// whether or not the command failed.
func runRoot(root *cobra.Command, a *app) error {
	err := root.Execute()
	return errors.Join(err, a.teardown(context.Background()))
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:           "bptree",
		Short:         "In-memory B+ tree toolbox",
		Long:          "Interactive shell, stress driver and Graphviz renderer for the in-memory B+ tree.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().IntVar(&a.capacity, "capacity", 0, "maximum keys per node (overrides index.node_capacity)")

	root.AddCommand(newReplCmd(a), newStressCmd(a), newRenderCmd(a))
	return root, a
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("capacity") {
		cfg.Index.NodeCapacity = a.capacity
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	a.logger, a.level, err = logger.NewWithLevel(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.tel, a.shutdown, err = telemetry.New(cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialise telemetry: %w", err)
	}
	if cfg.Telemetry.Enabled {
		a.logger.Info("serving metrics", zap.String("addr", a.tel.MetricsAddr))
	}
	return nil
}

// teardown is safe to call when setup never ran or failed part way.
func (a *app) teardown(ctx context.Context) error {
	var err error
	if a.shutdown != nil {
		err = a.shutdown(ctx)
		a.shutdown = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}
