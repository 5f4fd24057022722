package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/statusdash/statusctl/internal/dashboard"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "advanced",
	Short:   "Serve a live local dashboard of the status document",
	Long: `Start a local web server that polls the remote status document and
pushes changes to connected WebSocket clients.

Endpoints:
  /            HTML viewer
  /ws          WebSocket feed (document and stats messages)
  /status.json Last fetched document
  /healthz     Server health

Example usage:
  statusctl serve                  # Poll every 30s, serve on :8080
  statusctl serve --port 9000 --interval 10s`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		interval, _ := cmd.Flags().GetDuration("interval")

		a, err := newApp(cmd)
		if err != nil {
			fatal(err)
		}

		server, err := dashboard.NewServer(&dashboard.Config{
			Port:     port,
			Interval: interval,
			Fetcher:  a.store,
			Logger:   log.New(os.Stderr, "[dashboard] ", log.LstdFlags),
		})
		if err != nil {
			fatal(err)
		}
		if err := server.Start(); err != nil {
			fatal(err)
		}

		fmt.Printf("Dashboard on http://localhost:%d (polling every %s)\n", port, interval)
		fmt.Println("Press Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		<-ctx.Done()

		fmt.Println("\nShutting down dashboard...")
		if err := server.Stop(); err != nil {
			fatal(err)
		}
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().Duration("interval", 30*time.Second, "Remote poll interval")
	rootCmd.AddCommand(serveCmd)
}
