package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-erpdocs/internal/config"
	"github.com/diewo77/go-erpdocs/internal/db"
	"github.com/diewo77/go-erpdocs/internal/document"
	"github.com/diewo77/go-erpdocs/internal/refdata"
	"github.com/diewo77/go-erpdocs/internal/rpc"
	"github.com/diewo77/go-erpdocs/internal/server"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrationsDir string

func main() {
	// Load environment variables from .env file
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "erpdocs",
		Short:         "Reference backend for ERP transactional documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(config.Load().App.LogLevel)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			logrus.SetLevel(level)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&migrationsDir, "migrations-dir", "migrations", "directory of SQL migrations")
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd(), refCmd())

	if err := root.Execute(); err != nil {
		logrus.Fatalf("[main] %v", err)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			conn, kinds, err := prepare(ctx, cfg)
			if err != nil {
				return err
			}
			if cfg.App.Migrations {
				if err := migrate(conn, cfg); err != nil {
					return err
				}
			}
			if cfg.App.Seed {
				if err := db.Seed(conn, kinds.Kinds()); err != nil {
					return fmt.Errorf("seed: %w", err)
				}
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			srv := &http.Server{
				Addr:         ":" + cfg.Server.Port,
				Handler:      server.New(conn, kinds, server.Options{Log: logrus.StandardLogger(), Registry: reg, CORSOrigins: cfg.Server.CORSOrigins}),
				ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
				WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
				IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				logrus.Infof("[main] starting server on %s (dev=%v)", srv.Addr, cfg.App.Dev)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			logrus.Info("[main] shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			logrus.Info("[main] server stopped gracefully")
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			conn, _, err := prepare(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := migrate(conn, cfg); err != nil {
				return err
			}
			logrus.Info("[main] migrations completed successfully")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed reference data and number series, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			conn, kinds, err := prepare(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := db.Seed(conn, kinds.Kinds()); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			logrus.Info("[main] seeding completed successfully")
			return nil
		},
	}
}

// refCmd prints a reference list served by a running backend.
func refCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "ref <list>",
		Short: "Print a reference list from a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			lister := refdata.NewCachedLister(rpc.RefData{Caller: rpc.NewHTTPCaller(url, 10*time.Second)}, cfg.App.CacheTTL())
			items, err := lister.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, it := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", it.Code, it.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:8080", "server base URL")
	return cmd
}

func prepare(ctx context.Context, cfg *config.Config) (*gorm.DB, *document.Registry, error) {
	kinds, err := config.LoadKinds(cfg.App.KindsFile)
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Open(ctx, cfg.Database, logrus.StandardLogger())
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return conn, kinds, nil
}

// migrate runs the SQL migrations on postgres and AutoMigrate everywhere.
func migrate(conn *gorm.DB, cfg *config.Config) error {
	if cfg.Database.Driver != "sqlite" {
		if err := db.RunSQLMigrations(cfg.Database.URL(), migrationsDir, logrus.StandardLogger()); err != nil {
			return err
		}
	}
	if err := db.Migrate(conn); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
