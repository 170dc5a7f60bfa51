package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trustscope/trustscope/internal/api"
	"github.com/trustscope/trustscope/internal/disclosure"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve starts the HTTP API under /api/v1.

Example:
  trustscope serve --addr :8080
  TRUSTSCOPE_DB_URL=postgres://localhost/trustscope trustscope serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "HTTP listen address")
	serveCmd.Flags().String("disclosure-mode", "server", "where result gating is enforced (server, client)")
	_ = viper.BindPFlag("http_addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("disclosure_mode", serveCmd.Flags().Lookup("disclosure-mode"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var health func(context.Context) error
	if a.db != nil {
		health = a.db.Health
	}

	apiHandler := api.New(api.Options{
		Analyses:  a.analyses,
		Comments:  a.comments,
		Policy:    disclosure.New(a.cfg.DisclosureMode),
		JWTSecret: []byte(a.cfg.JWTSecret),
		RateLimit: a.cfg.APIRateLimit,
		Health:    health,
		Logger:    a.logger,
	})
	if a.cfg.JWTSecret == "" {
		a.logger.Warn("no JWT secret configured, every viewer is anonymous")
	}

	r := chi.NewRouter()
	r.Mount("/api/v1", apiHandler.Router())

	server := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           http.TimeoutHandler(r, a.cfg.RequestTimeout, "request timed out"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.cfg.HTTPAddr, "disclosure_mode", a.cfg.DisclosureMode)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutdown signal received, stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	a.logger.Info("stopped")
	return nil
}
