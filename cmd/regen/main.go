// Command regen is the Matchplay operator CLI. It rebuilds the stored ratings
// of a group or season from its match history.
//
// Usage:
//
//	matchplay-regen --group-id g1 --dry-run -v
//	matchplay-regen --group-id g1 --season-id s3
//	matchplay-regen audit --workers 8
//	matchplay-regen migrate
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/itbasis/go-clock"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/albapepper/matchplay/internal/config"
	"github.com/albapepper/matchplay/internal/db"
	"github.com/albapepper/matchplay/internal/listener"
	"github.com/albapepper/matchplay/internal/lock"
	"github.com/albapepper/matchplay/internal/logger"
	"github.com/albapepper/matchplay/internal/regen"
	"github.com/albapepper/matchplay/internal/store"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type runFlags struct {
	groupID  string
	seasonID string
	dryRun   bool
	verbose  bool
}

func newRootCmd() *cobra.Command {
	var f runFlags
	root := &cobra.Command{
		Use:   "matchplay-regen",
		Short: "Regenerate stored ratings from match history",
		Long: "Replays every match of a group (or one season of it) from the baseline and\n" +
			"rewrites player aggregates and match snapshots. With --dry-run nothing is written.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runSetup(func(ctx context.Context, e *env) error {
				log := e.log
				driver := e.driver()
				result, err := driver.Run(ctx, regen.Options{
					GroupID:  f.groupID,
					SeasonID: f.seasonID,
					DryRun:   f.dryRun,
					Verbose:  f.verbose,
					Out:      cmd.OutOrStdout(),
				})
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
				for _, msg := range result.Errors {
					log.Error().Str("run_id", result.RunID).Msg(msg)
				}
				return nil
			})
		},
	}

	root.Flags().StringVar(&f.groupID, "group-id", "", "Group to regenerate (required)")
	root.Flags().StringVar(&f.seasonID, "season-id", "", "Limit the run to one season of the group")
	root.Flags().BoolVar(&f.dryRun, "dry-run", false, "Report what would change without writing")
	root.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print every match and player as it is replayed")
	_ = root.MarkFlagRequired("group-id")

	root.AddCommand(auditCmd())
	root.AddCommand(migrateCmd())
	return root
}

// --------------------------------------------------------------------------
// audit command
// --------------------------------------------------------------------------

func auditCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Dry-run every group and report stored ratings that drifted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runSetup(func(ctx context.Context, e *env) error {
				log := e.log
				n := auditWorkers(workers, e.cfg.DBLockPoolMaxConns)
				if n != workers {
					log.Warn().Int("requested", workers).Int("workers", n).Msg("workers capped at DB_LOCK_POOL_MAX_CONNS")
				}
				report, err := regen.Audit(ctx, e.driver(), e.store(), n)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
				for _, g := range report.Drifted {
					fmt.Fprintf(cmd.OutOrStdout(), "drifted %s\n", g)
				}
				for _, msg := range report.Errors {
					log.Error().Msg(msg)
				}
				if len(report.Failed) > 0 {
					return fmt.Errorf("%d groups could not be replayed", len(report.Failed))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 4, "Groups replayed concurrently")
	return cmd
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			// The pool prepares statements against the schema, so migrations
			// run on their own connection before any pool exists.
			if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
				return err
			}
			log := logger.NewConsole(os.Stderr, cfg.LogLevel)
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// helpers
// --------------------------------------------------------------------------

// env is what every database command runs with.
type env struct {
	cfg   *config.Config
	pool  *db.Pool
	locks *db.LockPool
	log   zerolog.Logger
}

func (e *env) store() store.Store {
	return store.NewPostgresStore(e.pool.Pool, e.cfg.DBTimeout)
}

func (e *env) driver() *regen.Driver {
	locker := lock.Chain{lock.NewKeyed(), store.NewAdvisoryLocker(e.locks.Pool, e.log)}
	pub := listener.NewNotifier(e.pool.Pool, e.cfg.DBTimeout, e.log)
	return regen.NewDriver(e.store(), locker, pub, clock.New(), e.cfg.LockTimeout, e.log)
}

// auditWorkers caps the worker count at the lock pool size. Every worker holds
// a lock connection for as long as it replays its group.
func auditWorkers(requested, lockConns int) int {
	if requested > lockConns {
		return lockConns
	}
	return requested
}

func runSetup(fn func(ctx context.Context, e *env) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.NewConsole(os.Stderr, cfg.LogLevel)

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	locks, err := db.NewLockPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open lock pool: %w", err)
	}
	defer locks.Close()

	return fn(ctx, &env{cfg: cfg, pool: pool, locks: locks, log: log})
}
