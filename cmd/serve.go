package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"xldict/config"
	"xldict/storage"
	"xldict/web"
)

var (
	servePort   int
	serveDBPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a local JSON API over imported batches",
	Long: `Start a local HTTP server exposing imported batches.

Endpoints:
- GET    /api/batches
- GET    /api/batches/{id}/records[?sheet=NAME]
- GET    /api/batches/{id}/profile
- DELETE /api/batches/{id}
- POST   /api/import (multipart field "file", optional sheet/format/fieldnames/restkey)`,
	Example: `
  # Start local server on the configured port
  xldict serve

  # Start with explicit db and port
  xldict serve --port 9090 --db ./xldict.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		port := cfg.Serve.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port %d", port)
		}

		store, err := storage.OpenSQLite(resolveDBPath(serveDBPath, cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           web.NewServer(store, *cfg),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		fmt.Printf("Listening on http://localhost:%d\n", port)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case sig := <-sigCh:
			log.WithField("signal", sig.String()).Debug("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			err := <-errCh
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP port (default: serve.port from config)")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "Path to local SQLite database (default: storage.db from config)")
}
