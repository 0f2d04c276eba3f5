// Command dossier drives a dossier database: a REST gateway, an
// interactive shell and a load generator over the same database file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dossierdb/dossier"
)

const version = "0.3.0"

var (
	rootCmd = &cobra.Command{
		Use:   "dossier",
		Short: "embedded document database",
		Long: fmt.Sprintf(`dossier (v%s)

An embedded document database with EJDB-style queries, served over REST
or driven interactively. Configuration comes from command line flags,
DOSSIER_* environment variables and .env files, in that order of
precedence.`, version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dossier",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dossier v%s\n", version)
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(versionCmd)

	key := "db"
	rootCmd.PersistentFlags().String(key, "dossier.db", "database file (empty for in-memory only)")
	key = "log-level"
	rootCmd.PersistentFlags().String(key, "info", "log level (debug, info, warn, error)")
}

// initConfig reads in .env files and environment variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dossier")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// newLogger builds the process logger at the configured level. The
// library packages never log; everything lands here at the edge.
func newLogger() *slog.Logger {
	var level slog.Level
	switch viper.GetString("log-level") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openDatabase builds the default database stack and opens the
// configured file. An empty --db keeps everything in memory.
func openDatabase(ctx context.Context, mode dossier.OpenMode) (dossier.DB, error) {
	db, err := dossier.NewDB()
	if err != nil {
		return nil, err
	}
	if err := db.Open(ctx, viper.GetString("db"), mode); err != nil {
		return nil, err
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
