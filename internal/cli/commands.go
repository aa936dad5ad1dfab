package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"wealth/internal/log"
	"wealth/internal/storage"
)

// ErrProbeFailed is returned by the probe command when the model did not
// answer.
var ErrProbeFailed = errors.New("model probe failed")

func newMigrateCommand(env *Env) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = env.Config.SQLiteDBPath
			}
			if err := storage.RunMigrations(dbPath); err != nil {
				return err
			}
			version, dirty, err := storage.MigrationVersion(dbPath)
			if err != nil {
				return err
			}
			env.Logger.Info("Migrations applied", "path", dbPath, "version", version)
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t) at %s\n", version, dirty, dbPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "database path (default SQLITE_DB_PATH)")
	return cmd
}

func newRecommendCommand(env *Env, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend",
		Short: "Generate recommendations from the stored records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := log.NewContext(cmd.Context(), env.Logger)
			p, release, err := env.Pipeline(ctx, env.Config, env.Logger)
			if err != nil {
				return err
			}
			defer release()

			result, err := p.Run(ctx)
			if err != nil {
				return err
			}
			return WriteResult(cmd.OutOrStdout(), opts.Format, result)
		},
	}
}

func newProbeCommand(env *Env, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check connectivity with the generative model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := log.NewContext(cmd.Context(), env.Logger)
			p, release, err := env.Pipeline(ctx, env.Config, env.Logger)
			if err != nil {
				return err
			}
			defer release()

			res := p.Probe(ctx)
			if err := WriteProbe(cmd.OutOrStdout(), opts.Format, res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("%w: %s", ErrProbeFailed, res.Error)
			}
			return nil
		},
	}
}
