package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/statusdash/statusctl/internal/daemon"
	"github.com/statusdash/statusctl/internal/mutate"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "advanced",
	Short:   "Apply spooled command files to the status document",
	Long: `Watch a spool directory and apply command files as they arrive.

Local processes drop one-command JSON files into the spool:

  {"action": "update", "id": "deploy-api", "progress": 40}

Each file is applied through the normal optimistic-concurrency path.
On success the file is deleted; on a fatal error it is renamed to
<name>.failed and left in place.

The spool directory comes from --spool, the spool_dir config key, or
STATUSCTL_SPOOL_DIR.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd)
		if err != nil {
			fatal(err)
		}

		spoolDir, _ := cmd.Flags().GetString("spool")
		if spoolDir == "" {
			spoolDir = a.cfg.SpoolDir
		}
		if spoolDir == "" {
			fatal(fmt.Errorf("no spool directory configured"))
		}

		var out io.Writer = os.Stderr
		if a.cfg.LogFile != "" {
			out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
				Filename:   a.cfg.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
			})
		}
		logger := log.New(out, "[daemon] ", log.LstdFlags)

		d, err := daemon.New(spoolDir, &appRunner{app: a}, logger)
		if err != nil {
			fatal(err)
		}
		if err := d.Start(); err != nil {
			fatal(err)
		}

		fmt.Printf("Watching spool %s\n", spoolDir)
		fmt.Println("Press Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		<-ctx.Done()

		fmt.Println("\nStopping daemon...")
		if err := d.Stop(); err != nil {
			fatal(err)
		}
	},
}

// appRunner adapts the CLI plumbing to the daemon's Runner interface.
type appRunner struct {
	app *app
}

func (r *appRunner) Run(ctx context.Context, cmd mutate.Command) error {
	_, err := r.app.run(ctx, cmd)
	return err
}

func init() {
	daemonCmd.Flags().String("spool", "", "Spool directory to watch")
	rootCmd.AddCommand(daemonCmd)
}
