// Package httpd implements the httpd command, which serves the
// read-only catalog HTTP API.
package httpd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/shelfwatch/shelfwatch/cmd/common"
	"github.com/shelfwatch/shelfwatch/internal/api"
)

const (
	defaultAddress      = ":8080"
	readHeaderTimeout   = 10 * time.Second
	shutdownGracePeriod = 15 * time.Second
)

// Command returns the httpd command for use in the root command.
func Command() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "httpd",
		Short: "Serve the catalog HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			repo, db, repoErr := deps.OpenRepository()
			if repoErr != nil {
				return repoErr
			}
			defer db.Close()

			router := api.NewRouter(repo, deps.Logger)
			server := &http.Server{
				Addr:              address,
				Handler:           router,
				ReadHeaderTimeout: readHeaderTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.ListenAndServe()
			}()

			deps.Logger.Info("catalog API listening", "address", address)

			select {
			case serveErr := <-errCh:
				if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
					return serveErr
				}
				return nil
			case <-cmd.Context().Done():
				deps.Logger.Info("shutdown signal received")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&address, "address", defaultAddress, "listen address")

	return cmd
}
