package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"buildtrack/config"
	"buildtrack/storage"
	"buildtrack/utils"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// openDB validates the database settings, connects and migrates.
func openDB(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	if err := cfg.ValidateDB(); err != nil {
		return nil, err
	}
	db, err := storage.InitGormDB(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	if err := storage.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg, log)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
				return fmt.Errorf("create upload dir: %w", err)
			}

			a := newApp(cfg, log, db)
			scheduler, err := startJobs(a)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:    ":" + cfg.Port,
				Handler: newRouter(a),
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			serveErr := make(chan error, 1)
			go func() {
				log.WithField("port", cfg.Port).Info("server listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				if err != nil {
					<-scheduler.Stop().Done()
					return fmt.Errorf("listen: %w", err)
				}
			case sig := <-quit:
				log.WithField("signal", sig.String()).Info("shutting down server")
			}

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown)
			defer cancel()

			select {
			case <-scheduler.Stop().Done():
			case <-ctx.Done():
				log.Warn("background jobs did not finish before shutdown deadline")
			}
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			log.Info("server exiting")
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if _, err := openDB(cfg, log); err != nil {
				return err
			}
			log.Info("schema is up to date")
			return nil
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg, log)
			if err != nil {
				return err
			}
			a := newApp(cfg, log, db)

			ctx, cancel := utils.GetDefaultQueryContext(cmd.Context())
			defer cancel()
			user, err := a.users.CreateAdmin(ctx, name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute each project's spent amount from its paid payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg, log)
			if err != nil {
				return err
			}
			a := newApp(cfg, log, db)

			ctx, cancel := utils.GetJobQueryContext(cmd.Context())
			defer cancel()
			drifts, err := a.ledger.Reconcile(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(drifts) == 0 {
				fmt.Fprintln(out, "no drift found")
				return nil
			}
			for _, d := range drifts {
				fmt.Fprintf(out, "%s: stored %.2f, actual %.2f\n", d.ProjectID, d.Stored, d.Actual)
			}
			return nil
		},
	}
}
