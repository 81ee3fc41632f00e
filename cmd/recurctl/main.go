package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/cyp0633/librecur/internal/config"
	"github.com/cyp0633/librecur/planner"
	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/storage"
	"github.com/cyp0633/librecur/storage/memory"
	"github.com/cyp0633/librecur/storage/sqlite"
)

var exampleUsage = strings.TrimSpace(`
  recurctl expand -f weekly --days mon,wed,fri --anchor 2024-01-01 --count 6
  recurctl conflicts -f monthly --month-days 1,15 --to 2024-06-30 --existing 2024-03-15
  recurctl tasks add --due 2024-03-15 --title "Quarterly report"
  recurctl tasks complete ID -f monthly -i 3 --anchor 2024-03-15
  recurctl --config $HOME/.recurctl/config.toml validate -f yearly -i 10
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app carries what the subcommands share once the root has resolved config
type app struct {
	cfgPath string
	flags   config.Config
	cfg     config.Config

	log     zerolog.Logger
	store   storage.Storage
	engine  *recurrence.Engine
	planner *planner.Planner

	now func() time.Time
}

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		flags: config.DefaultConfig(),
		log:   zerolog.Nop(),
		now:   func() time.Time { return time.Now().UTC() },
	}

	root := &cobra.Command{
		Use:           "recurctl",
		Short:         "Expand recurring task rules and check them against existing tasks",
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, stderr)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	fs := root.PersistentFlags()
	fs.StringVar(&a.cfgPath, "config", "", "config file (default $HOME/.recurctl/config.toml)")
	fs.StringVar(&a.flags.LogLevel, "log-level", a.flags.LogLevel, "log level")
	fs.StringVar(&a.flags.UserID, "user", a.flags.UserID, "owner of the tasks")
	fs.StringVar(&a.flags.Driver, "driver", a.flags.Driver, "task storage: memory or sqlite")
	fs.StringVar(&a.flags.SQLitePath, "db", a.flags.SQLitePath, "sqlite database path")
	fs.DurationVar(&a.flags.BusyTimeout, "busy-timeout", a.flags.BusyTimeout, "sqlite busy timeout")
	fs.StringVar(&a.flags.Preset, "preset", a.flags.Preset, "engine preset: default, high_performance, low_memory or disabled")
	fs.IntVar(&a.flags.MaxOccurrences, "max-occurrences", a.flags.MaxOccurrences, "cap on generated occurrences")
	fs.DurationVar(&a.flags.CacheTTL, "cache-ttl", a.flags.CacheTTL, "expansion cache TTL (0 keeps the preset's)")
	fs.DurationVar(&a.flags.Horizon, "horizon", a.flags.Horizon, "how far past the anchor open-ended expansions run")

	root.AddCommand(
		newExpandCommand(a),
		newNextCommand(a),
		newConflictsCommand(a),
		newValidateCommand(a),
		newRRuleCommand(a),
		newTasksCommand(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, stderr io.Writer) error {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	cfg, err := config.Load(a.cfgPath, a.flags, changed)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log = zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}).
		Level(cfg.Level()).
		With().Timestamp().Logger()
	a.log.Debug().Interface("config", cfg).Msg("configuration")

	a.store, err = openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	a.engine = recurrence.NewEngineWithConfig(cfg.EngineConfig())
	a.planner = planner.New(a.store, a.engine,
		planner.WithLogger(a.log),
		planner.WithMaxOccurrences(cfg.MaxOccurrences),
	)
	return nil
}

func (a *app) teardown() error {
	if a.engine != nil {
		stats := a.engine.Stats()
		a.log.Debug().Int("entries", stats.TotalEntries).Msg("expansion cache")
		a.engine.Close()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.SQLitePath, BusyTimeout: cfg.BusyTimeout})
		if err != nil {
			return nil, fmt.Errorf("open task store: %w", err)
		}
		return store, nil
	default:
		return memory.New(), nil
	}
}
