package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
)

var (
	servePort string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the generated reports over HTTP",
		Long:  `Runs a small static file server over the reports directory for previewing the HTML reports.`,
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (default: BRCSTATS_SERVE_PORT or 3000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger := setup()

	port := servePort
	if port == "" {
		port = cfg.ServePort
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
	})
	app.Static("/", cfg.ReportsDirectory, fiber.Static{Browse: true})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + port)
	}()
	logger.Info("Serving reports",
		slog.String("dir", cfg.ReportsDirectory),
		slog.String("port", port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("Shutting down", slog.String("signal", sig.String()))
		return app.Shutdown()
	}
}
