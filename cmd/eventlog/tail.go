package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Chichichkin/EventLogAgent/internal/daemon"
)

func newTailCmd(c *cli) *cobra.Command {
	var fromStart bool

	cmd := &cobra.Command{
		Use:   "tail [flags] FILE...",
		Short: "Follow log files and ship every new line",
		Long: `tail follows the given files and ships each new line as an EventLog event.
The event type is guessed from level keywords in the line (error, warn, info, ...)
and falls back to default_type. Queued lines are sent every flush_interval and
once more on SIGINT/SIGTERM.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			el, err := c.newEventLogger()
			if err != nil {
				return err
			}
			defaultType, err := c.cfg.EventType()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			service := daemon.NewLogShipperService(ctx, daemon.Config{
				Files:           args,
				FlushInterval:   c.cfg.FlushInterval,
				DefaultType:     defaultType,
				FromStart:       fromStart,
				ShutdownTimeout: c.cfg.ShutdownTimeout,
				ReportInterval:  c.cfg.ReportInterval,
			}, el, c.logger.Named("shipper"))

			if err := service.Start(); err != nil {
				return err
			}

			<-service.Done()
			c.logger.Info("Received shutdown signal")
			service.Stop()

			closeCtx, cancel := context.WithTimeout(context.Background(), c.cfg.ShutdownTimeout)
			defer cancel()
			if err := el.Close(closeCtx); err != nil {
				c.logger.Error("Entries left unsent", zap.Int("pending", el.Pending()), zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStart, "from-start", false, "ship existing file content, not only new lines")

	return cmd
}
