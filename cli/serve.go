package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reelops/auth"
	"reelops/config"
	"reelops/live"
	"reelops/middleware"
	"reelops/mq"
	"reelops/operations"
	"reelops/ratelim"
	"reelops/rdx"
	"reelops/report"
	"reelops/routes"
	"reelops/sessions"
	"reelops/store"
)

// ServeCmd runs the HTTP API until SIGINT or SIGTERM.
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionStore, closeSessions, err := sessions.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer closeSessions()

	opStore, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open operation store: %w", err)
	}
	defer opStore.Close()

	hub := live.NewHub()
	go hub.Run()

	notifier, err := liveNotifier(ctx, cfg, hub)
	if err != nil {
		return err
	}

	d := &routes.Deps{
		Auth:       auth.NewHandler(auth.NewAuthenticator(cfg.AdminPassword, cfg.TechnicianPassword), sessionStore, auth.CookiePolicy{Secure: cfg.CookieSecure, SameSite: cfg.CookieSameSite}),
		Operations: operations.NewHandler(opStore, cfg.Location, report.NewSigner(cfg.SecretKey), notifier),
		Guard:      middleware.NewGuard(sessionStore),
		Hub:        hub,
		Upgrader:   live.NewUpgrader(cfg.AllowedOrigins),
	}
	handler := routes.NewRouter(d, ratelim.NewRateLimiter(cfg.LoginRatePerMinute), cfg.AllowedOrigins)

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Println("🛑 Shutting down live hub...")
		hub.Stop()
	})

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server listening on %s (sessions=%s, store=%s)", cfg.Port, cfg.SessionBackend, cfg.OperationStore)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	log.Println("🛑 Shutdown signal received; shutting down gracefully...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Println("✅ Server stopped cleanly")
	return nil
}

// liveNotifier returns the hub itself, or a Redis relay in front of it when
// several instances share one live feed. The relay stops with ctx.
func liveNotifier(ctx context.Context, cfg *config.Config, hub *live.Hub) (operations.Notifier, error) {
	if !cfg.LiveRelay {
		return hub, nil
	}
	conn, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("live relay: %w", err)
	}
	relay := mq.NewRelay(conn, hub)
	if err := relay.Subscribe(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("live relay: %w", err)
	}
	go func() {
		defer conn.Close()
		if err := relay.Run(ctx); err != nil {
			log.Printf("live relay stopped: %v", err)
		}
	}()
	return relay, nil
}
