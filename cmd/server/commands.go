package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/ariss/internal/config"
	"github.com/example/ariss/internal/database"
	"github.com/example/ariss/internal/logger"
	"github.com/example/ariss/internal/routes"
	"github.com/example/ariss/internal/services"
)

const (
	shutdownTimeout     = 15 * time.Second
	notificationTimeout = 20 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the discount sweep scheduler.",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database if needed and bring the schema up to date.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := setup()
		if err != nil {
			return err
		}
		defer database.Close(db)

		zap.L().Info("schema up to date")
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep-discounts",
	Short: "Delete every expired discount once and exit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := setup()
		if err != nil {
			return err
		}
		defer database.Close(db)

		deleted, err := services.NewDiscountService(db).SweepExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired discounts\n", deleted)
		return nil
	},
}

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account with password login.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := setup()
		if err != nil {
			return err
		}
		defer database.Close(db)

		admin, err := services.NewStaffService(db, nil, cfg.JWTSecret, cfg.TokenExpires).
			CreateAdmin(cmd.Context(), adminName, adminEmail, adminPassword)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", admin.Email, admin.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminName, "name", "", "display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "login email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "login password")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}

// setup loads config, installs the logger and opens the database.
func setup() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if _, err := logger.Init(cfg); err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.Connect(cfg.DatabaseURL, database.DefaultOptions)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			zap.L().Warn("close database", zap.Error(err))
		}
	}()
	defer func() { _ = zap.L().Sync() }()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	deps := buildDeps(cfg, db, rdb)
	app := routes.NewApp(deps)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := services.NewScheduler(deps.Discounts, cfg.DiscountSweepInterval)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.String("port", cfg.AppPort))
		errCh <- app.Listen(":" + cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("fiber listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func buildDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client) routes.Deps {
	notifier := services.NewNotifier(notificationTimeout,
		services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom),
		services.NewTwilioWhatsApp(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber),
	)
	telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	otp := services.NewOTPService(services.NewRedisOTPStore(rdb), notifier, cfg.OTPTTL)

	var gateway services.PaymentGateway
	if cfg.RazorpayEnabled() {
		gateway = services.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	} else {
		zap.L().Warn("razorpay is not configured, online checkout is disabled")
	}

	return routes.Deps{
		DB:        db,
		Config:    cfg,
		OTP:       otp,
		Accounts:  services.NewAccountService(db, otp, services.NewGSTClient(cfg.GSTAPIURL, cfg.GSTAPIKey), notifier, cfg.JWTSecret, cfg.TokenExpires),
		Staff:     services.NewStaffService(db, notifier, cfg.JWTSecret, cfg.TokenExpires),
		Discounts: services.NewDiscountService(db),
		Orders:    services.NewOrderService(db, gateway, telegram, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret),
		Ledgers:   services.NewLedgerService(db),
		RMAs:      services.NewRMAService(db, notifier, telegram),
		Wishlist:  services.NewWishlistService(db),
	}
}
