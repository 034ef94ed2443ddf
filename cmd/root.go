package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Jeomhps/coffee-api/internal/config"
	"github.com/Jeomhps/coffee-api/internal/logging"
)

var (
	configPath string

	cfg config.Config
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "coffee-api",
	Short: "Coffee catalogue REST API",
	Long: `coffee-api serves a CRUD REST endpoint for coffees backed by MySQL,
PostgreSQL, SQLite, Badger or process memory, and ships the maintenance
commands that go with it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		log = logging.New(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (environment variables override it)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
