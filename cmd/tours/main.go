package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alex-user-go/tours/internal/app"
	"github.com/alex-user-go/tours/internal/config"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "tours",
		Short: "Gateway for the asynchronous tour-search API",
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the REST gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := app.NewLogger(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()
			return app.RunServer(cfg, logger)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "mcp",
		Short: "Serve the search_tours tool over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := app.NewLogger(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()
			return app.RunMCP(cfg, logger)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(app.Version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
