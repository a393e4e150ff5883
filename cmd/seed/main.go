package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"invoicer/internal/app"
	"invoicer/internal/config"
	"invoicer/internal/logger"
)

type seedOptions struct {
	name     string
	email    string
	password string
	demo     bool
}

func newRootCmd() *cobra.Command {
	opts := &seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create an administrator and optional demo data",
		Long: `seed creates an administrator account in the configured database.
With --demo it also creates demo clients, invoices and payments owned by
that administrator. Running it again leaves existing records untouched.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "Administrator", "Administrator display name")
	cmd.Flags().StringVar(&opts.email, "email", "admin@example.com", "Administrator email")
	cmd.Flags().StringVar(&opts.password, "password", os.Getenv("SEED_ADMIN_PASSWORD"), "Administrator password (default $SEED_ADMIN_PASSWORD)")
	cmd.Flags().BoolVar(&opts.demo, "demo", false, "Also create demo clients, invoices and payments")
	return cmd
}

func run(ctx context.Context, opts *seedOptions) error {
	if opts.password == "" {
		return errors.New("--password or SEED_ADMIN_PASSWORD is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.DBDriver == config.DriverMemory {
		return errors.New("seeding the in-memory store has no effect; set DB_DRIVER to a SQL driver")
	}

	zl := logger.New(&logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput})
	defer func() { _ = zl.Sync() }()

	application, err := app.New(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer application.Close()

	_, created, err := application.Seeder.Admin(ctx, opts.name, opts.email, opts.password)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	if !created {
		zl.Info("admin exists, skipping", zap.String("email", opts.email))
	}

	if opts.demo {
		res, err := application.Seeder.DemoFor(ctx, opts.email)
		if err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		fmt.Printf("demo data: %d clients, %d invoices, %d payments\n", res.Clients, res.Invoices, res.Payments)
	}
	fmt.Println("seed completed")
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
