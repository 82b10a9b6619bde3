package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CreativeSoln/refactored-potato/internal/export"
	"github.com/CreativeSoln/refactored-potato/internal/infrastructure/config"
	"github.com/CreativeSoln/refactored-potato/internal/infrastructure/database"
	"github.com/CreativeSoln/refactored-potato/internal/infrastructure/logging"
	"github.com/CreativeSoln/refactored-potato/internal/loader"
	"github.com/CreativeSoln/refactored-potato/internal/notify"
	"github.com/CreativeSoln/refactored-potato/internal/odx"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "odxscan",
		Short:         "Parse and export vehicle diagnostic descriptions",
		Long:          "odxscan merges ODX documents and PDX archives into one\ncross-referenced diagnostic database and exports the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file path")

	root.AddCommand(newScanCmd(&configPath))
	root.AddCommand(newStoreCmd(&configPath))
	root.AddCommand(newVersionCmd())
	return root
}

func newScanCmd(configPath *string) *cobra.Command {
	var (
		out         string
		pretty      bool
		workers     int
		sharedIndex bool
	)

	cmd := &cobra.Command{
		Use:     "scan [inputs...]",
		Aliases: []string{"export"},
		Short:   "Parse inputs and write the JSON export",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("out") {
				cfg.Export.Path = out
			}
			if cmd.Flags().Changed("pretty") {
				cfg.Export.Pretty = pretty
			}
			if workers > 0 {
				cfg.Parser.Workers = workers
			}
			if sharedIndex {
				cfg.Parser.SharedIndex = true
			}

			res, err := runBatch(cmd.Context(), cfg, log, args)
			if err != nil {
				return err
			}
			if err := writeExport(cfg.Export, res); err != nil {
				return err
			}
			publishSummary(cfg, log, res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "-", "export path, - for stdout")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "indent the JSON output")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parse worker count")
	cmd.Flags().BoolVar(&sharedIndex, "shared-index", false, "resolve references across documents")
	return cmd
}

func newStoreCmd(configPath *string) *cobra.Command {
	var (
		dbPath      string
		workers     int
		sharedIndex bool
	)

	cmd := &cobra.Command{
		Use:   "store [inputs...]",
		Short: "Parse inputs and persist the batch to SQLite",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.Database.Path = dbPath
			}
			if workers > 0 {
				cfg.Parser.Workers = workers
			}
			if sharedIndex {
				cfg.Parser.SharedIndex = true
			}

			res, err := runBatch(cmd.Context(), cfg, log, args)
			if err != nil {
				return err
			}

			db, err := database.Open(database.Config{
				Path:        cfg.Database.Path,
				WALMode:     cfg.Database.WALMode,
				BusyTimeout: cfg.Database.BusyTimeout,
			})
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					log.Error("error closing database", "error", closeErr)
				}
			}()

			batchID, err := export.NewStore(db, log).Save(cmd.Context(), res)
			if err != nil {
				return fmt.Errorf("persisting batch: %w", err)
			}
			log.Info("batch stored", "batch_id", batchID, "path", cfg.Database.Path)

			publishSummary(cfg, log, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parse worker count")
	cmd.Flags().BoolVar(&sharedIndex, "shared-index", false, "resolve references across documents")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "odxscan %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// setup loads configuration and builds the configured logger.
func setup(configPath string) (*config.Config, *logging.Logger, error) {
	path := getConfigPath(configPath)
	cfg, err := config.Load(path)
	if err != nil {
		// A missing default config is not an error; explicit paths are.
		if configPath == "" && errors.Is(err, os.ErrNotExist) {
			cfg = config.Default()
		} else {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
	}

	log := logging.New(cfg.Logging, version)
	log.Info("starting odxscan", "version", version, "commit", commit, "config", path)
	return cfg, log, nil
}

func runBatch(ctx context.Context, cfg *config.Config, log *logging.Logger, inputs []string) (*loader.Result, error) {
	l := loader.New(log, loader.Options{
		Workers:     cfg.Parser.Workers,
		SharedIndex: cfg.Parser.SharedIndex,
	})
	res, err := l.Load(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("running batch: %w", err)
	}

	if dups := odx.DuplicateParamIDs(res.Database.Params); len(dups) > 0 {
		log.Warn("duplicate parameter paths in batch", "count", len(dups), "paths", dups)
	}
	return res, nil
}

func writeExport(cfg config.ExportConfig, res *loader.Result) error {
	doc := export.Build(res.Database)

	if cfg.Path == "" || cfg.Path == "-" {
		return export.WriteJSON(os.Stdout, doc, cfg.Pretty)
	}

	f, err := os.Create(cfg.Path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close() //nolint:errcheck // write errors surface below

	if err := export.WriteJSON(f, doc, cfg.Pretty); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// publishSummary sends the batch summary when notifications are enabled.
// Notification failures are logged, never fatal: the batch has already
// succeeded by the time we get here.
func publishSummary(cfg *config.Config, log *logging.Logger, res *loader.Result) {
	pub, err := notify.Connect(cfg.MQTT, log)
	if err != nil {
		if !errors.Is(err, notify.ErrDisabled) {
			log.Warn("notification connect failed", "error", err)
		}
		return
	}
	defer pub.Close()

	if err := pub.Publish(notify.Summarize(res)); err != nil {
		log.Warn("notification publish failed", "error", err)
	}
}
