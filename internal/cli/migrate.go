package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nsrz/intranet/internal/persistence"
)

func newMigrateCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			pg, err := rt.postgres(cmd.Context())
			if err != nil {
				return err
			}
			if err := persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), rt.logger); err != nil {
				return err
			}
			fmt.Fprintln(rt.out, "migrations applied")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the state of every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			pg, err := rt.postgres(cmd.Context())
			if err != nil {
				return err
			}
			return persistence.MigrationStatus(cmd.Context(), pg.PoolHandle(), rt.logger)
		},
	})
	return cmd
}
