package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dossierdb/dossier"
	"github.com/dossierdb/dossier/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the database over REST",
	Long: `Start the REST gateway on the configured address. The gateway
answers JSON against the configured database file until SIGINT or
SIGTERM, then drains in-flight requests and syncs the file before
exiting.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: runServe,
}

func init() {
	key := "addr"
	serveCmd.Flags().String(key, ":8080", "address the gateway listens on")
	key = "shutdown-timeout"
	serveCmd.Flags().Duration(key, 30*time.Second, "deadline for draining requests on shutdown")
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	ctx := cmd.Context()

	db, err := openDatabase(ctx, dossier.OpenWriter|dossier.OpenCreate)
	if err != nil {
		return err
	}

	gw, err := server.NewServer(server.WithDB(db), server.WithLogger(logger))
	if err != nil {
		db.Close(ctx)
		return err
	}

	httpServer := &http.Server{
		Addr:    viper.GetString("addr"),
		Handler: gw.Handler(),
	}

	go func() {
		logger.Info("gateway listening", "addr", httpServer.Addr, "db", viper.GetString("db"))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("gateway failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down gateway")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("shutdown-timeout"))
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gateway did not drain", "err", err)
	}

	return db.Close(shutdownCtx)
}
