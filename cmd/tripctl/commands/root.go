package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fkhayef/tripsplit/internal/app"
	"github.com/fkhayef/tripsplit/internal/config"
	"github.com/fkhayef/tripsplit/pkg/logging"
)

var (
	envFile    string
	storeFlag  string
	jsonOutput bool

	cfg    *config.Config
	stores *app.Stores
	svcs   *app.Services
)

// Execute runs the tripctl root command.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "tripctl",
		Short:        "Operate a tripsplit deployment",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("load %s: %w", envFile, err)
				}
			} else {
				_ = godotenv.Load()
			}

			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			if storeFlag != "" {
				cfg.StoreDriver = storeFlag
			}
			logging.Setup(cfg.LogLevel)

			stores, err = app.OpenStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			svcs, err = app.NewServices(cfg, stores, nil)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if stores == nil {
				return nil
			}
			return stores.Close()
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env when present)")
	root.PersistentFlags().StringVar(&storeFlag, "store", "", "override STORE_DRIVER (postgres or memory)")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of a table")

	root.AddCommand(migrateCmd(), tripCmd(), balancesCmd(), planCmd())
	return root
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, arg)
	}
	return id, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
