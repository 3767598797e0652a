package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fkhayef/tripsplit/internal/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db := stores.DB()
			if db == nil {
				return errors.New("migrate requires STORE_DRIVER=postgres")
			}
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}
