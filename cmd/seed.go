package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Jeomhps/coffee-api/internal/seed"
)

var (
	seedFile string
	seedAPI  string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "POST the coffees listed in a YAML file to a running API",
	Long: `Reads a YAML file holding a list of coffees, or {coffees: [...]}, and
creates each one through the API. Exits non-zero if any entry failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed()
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "coffees.yml", "Seed file")
	seedCmd.Flags().StringVar(&seedAPI, "api", "http://localhost:8080", "API base URL")
	rootCmd.AddCommand(seedCmd)
}

func runSeed() error {
	entries, err := seed.LoadFile(seedFile)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		log.Info("no coffees to seed")
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := seed.NewClient(seedAPI, log).Run(ctx, entries)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"added": res.Added, "failed": res.Failed, "skipped": res.Skipped}).Info("seeding finished")
	if res.Failed > 0 {
		return errors.Errorf("%d coffee(s) could not be added", res.Failed)
	}
	return nil
}
