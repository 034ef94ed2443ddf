package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Jeomhps/coffee-api/internal/handlers/coffees"
	"github.com/Jeomhps/coffee-api/internal/purge"
	"github.com/Jeomhps/coffee-api/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves the coffees endpoint on ADDR. With PURGE_ENABLED=true the
tombstone purge loop runs alongside the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Purge.Enabled {
		stopPurge := newScheduler(b).Start(ctx)
		defer stopPurge()
	}

	gin.SetMode(gin.ReleaseMode)
	h := coffees.New(b.repo,
		coffees.WithPageSize(cfg.Pagination.DefaultLimit, cfg.Pagination.MaxLimit),
		coffees.WithLogger(log),
	)
	srv := &http.Server{Addr: cfg.Addr, Handler: server.New(log, server.Routes(h))}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "graceful shutdown")
	}
	return nil
}

func newScheduler(b *backend) purge.Scheduler {
	return purge.Scheduler{
		Purger:   purge.Purger{Repo: b.repo, Retention: cfg.Purge.Retention},
		Locker:   b.locker,
		Interval: cfg.Purge.Interval,
		Log:      log,
	}
}
