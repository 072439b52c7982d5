package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/opunath26/idea-arena-server/config"
	"github.com/opunath26/idea-arena-server/controllers"
	"github.com/opunath26/idea-arena-server/database"
	"github.com/opunath26/idea-arena-server/payments"
	"github.com/opunath26/idea-arena-server/routes"
	"github.com/opunath26/idea-arena-server/services"
	"github.com/opunath26/idea-arena-server/utils"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "idea-arena",
		Short:   "Idea Arena contest platform API server",
		Version: Version,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var autoMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cfg, autoMigrate)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "Run schema migration before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Connect(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)
			return database.MigrateTables(db)
		},
	}
}

// tokenCmd 签发本地调试用的 Token
func tokenCmd() *cobra.Command {
	var (
		email string
		name  string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET"))
			if secret == "" {
				return errors.New("AUTH_JWT_SECRET is empty")
			}
			verifier := utils.NewTokenVerifier(secret, strings.TrimSpace(os.Getenv("AUTH_ISSUER")))
			tok, err := verifier.GenerateToken(strings.ToLower(email), name, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVar(&name, "name", "", "Display name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func loadConfig() (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	setupLogger(cfg.LogLevel)
	return cfg, nil
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

func serve(cfg config.Config, autoMigrate bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if autoMigrate {
		if err := database.MigrateTables(db); err != nil {
			return err
		}
	}

	var locker services.Locker = services.NewLocalLocker()
	stats := services.NewStatsService(db)
	rdb, err := database.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		locker = services.NewRedisLocker(rdb)
		stats.WithCache(rdb, time.Minute)
	} else {
		slog.Warn("REDIS_ADDR not set, payment confirmation lock is process-local")
	}

	processor, err := payments.NewProcessor(cfg)
	if err != nil {
		return fmt.Errorf("payments: %w", err)
	}

	tracking := services.NewTrackingService(db)
	users := services.NewUserService(db).WithStats(stats)
	h := &controllers.Handler{
		Contests:   services.NewContestService(db, tracking).WithStats(stats),
		Candidates: services.NewCandidateService(db),
		Users:      users,
		Payments: services.NewPaymentService(db, processor, tracking, locker, services.PaymentOptions{
			Currency:   cfg.Currency,
			SiteDomain: cfg.SiteDomain,
		}).WithStats(stats),
		Tracking: tracking,
		Stats:    stats,
	}
	verifier := utils.NewTokenVerifier(cfg.AuthSecret, cfg.AuthIssuer)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupRouter(h, verifier, users),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr, "payment_provider", processor.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("bye")
	return nil
}
