package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sfgnexus/internal/core/basenumber"
	"sfgnexus/internal/domain/allocation"
	"sfgnexus/internal/domain/truthfile"
	"sfgnexus/internal/infrastructure/storage"
	"sfgnexus/pkg/logger"
)

type options struct {
	store    string
	dsn      string
	path     string
	start    int64
	rules    string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "basenumber",
		Short:         "Allocate BaseNumbers and check records against the truth-file rules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.New(logger.Config{
				Level:       opts.logLevel,
				Encoding:    "console",
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			cmd.SetContext(logger.WithLogger(cmd.Context(), log.With("command", cmd.Name())))
			return nil
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.store, "store", envOr("STORE_DRIVER", string(storage.DriverSQLite)), "sequence store: postgres, sqlite, bolt or memory")
	flags.StringVar(&opts.dsn, "dsn", os.Getenv("DATABASE_URL"), "postgres connection string")
	flags.StringVar(&opts.path, "path", os.Getenv("STORE_PATH"), "database file for sqlite and bolt")
	flags.Int64Var(&opts.start, "start", basenumber.DefaultConfig().StartValue, "value written when the sequence is first created")
	flags.StringVar(&opts.rules, "rules", os.Getenv("TRUTHFILE_RULES"), "truth-file rules YAML; empty uses the built-in rules")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	cmd.AddCommand(
		newAllocateCmd(opts),
		newCurrentCmd(opts),
		newParseCmd(),
		newFormatCmd(),
		newValidateCmd(opts),
		newPathsCmd(opts),
		newFoldersCmd(opts),
	)
	return cmd
}

// withAllocator opens the configured store for the duration of fn.
func withAllocator(cmd *cobra.Command, opts *options, fn func(*allocation.Service) error) error {
	cfg := basenumber.DefaultConfig()
	cfg.StartValue = opts.start
	if err := cfg.Validate(); err != nil {
		return err
	}

	driver, err := storage.ParseDriver(opts.store)
	if err != nil {
		return err
	}
	store, closeStore, err := storage.Open(cmd.Context(), storage.Config{
		Driver: driver,
		DSN:    opts.dsn,
		Path:   opts.path,
	})
	if err != nil {
		return err
	}
	defer closeStore()

	return fn(allocation.NewService(store, cfg))
}

func loadRules(opts *options) (*truthfile.Rules, error) {
	return truthfile.LoadRules(opts.rules)
}

// readDocument decodes a YAML or JSON file into out.
func readDocument(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func newTable(w io.Writer, headers ...any) table.Table {
	return table.New(headers...).WithWriter(w).WithPadding(2)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
