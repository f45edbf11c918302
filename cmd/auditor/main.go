package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fintelligent/auditor/config"
	srv "github.com/fintelligent/auditor/internal/server"
)

func main() {
	var root = &cobra.Command{Use: "auditor"}

	var configPath string
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (defaults to config.json in ./ or ./config)")

	var serveAddr string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(configPath)
			if serveAddr == "" {
				serveAddr = cfg.Server.Address
			}
			if serveAddr == "" {
				serveAddr = ":8080"
			}
			return runServe(cmd.Context(), cfg, serveAddr)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")

	var migDir string
	var direction string
	var steps int
	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(configPath)
			return srv.Migrate(migDir, cfg.Storage.Postgres.DSN(), direction, steps)
		},
	}
	migrateCmd.Flags().StringVar(&migDir, "dir", "file://migrations", "migrations source (file://migrations)")
	migrateCmd.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrateCmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")

	var ingestDir string
	var ingestCmd = &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Ingest report files into the document index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(configPath)
			if ingestDir == "" {
				ingestDir = cfg.Ingest.DataDir
			}
			return runIngest(cmd.Context(), cfg, ingestDir, args)
		},
	}
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "directory to scan (defaults to ingest.data_dir)")

	var threadID string
	var ask = &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(configPath)
			return runAsk(cmd.Context(), cfg, args, threadID)
		},
	}
	ask.Flags().StringVar(&threadID, "thread", "", "thread id for the route trace store")

	var seedPath string
	var seed = &cobra.Command{
		Use:   "seed",
		Short: "Seed the invoices table from a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(configPath)
			return runSeed(cmd.Context(), cfg, seedPath)
		},
	}
	seed.Flags().StringVar(&seedPath, "csv", "data/invoices.csv", "path to the invoices CSV")

	root.AddCommand(serve, migrateCmd, ingestCmd, ask, seed)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
