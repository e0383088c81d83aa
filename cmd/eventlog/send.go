package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Chichichkin/EventLogAgent/internal/logging"
)

func newSendCmd(c *cli) *cobra.Command {
	var (
		typeName  string
		fromStdin bool
	)

	cmd := &cobra.Command{
		Use:   "send [flags] MESSAGE...",
		Short: "Send one event per message",
		Example: `  eventlog send "Something went horribly wrong!"
  eventlog send --type warning "disk 91% full"
  tail -n 20 app.log | eventlog send --stdin --type notice`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			eventType, err := logging.ParseEventType(typeName)
			if err != nil {
				return err
			}

			messages := args
			if fromStdin {
				lines, err := readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
				messages = append(messages, lines...)
			}
			if len(messages) == 0 {
				return fmt.Errorf("nothing to send: pass messages as arguments or use --stdin")
			}

			el, err := c.newEventLogger()
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := el.Close(cmd.Context()); closeErr != nil && err == nil {
					err = closeErr
				}
				if err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "sent %d event(s)\n", len(messages))
				}
			}()

			for _, m := range messages {
				el.LogType(m, eventType)
			}
			c.logger.Debug("Queued events", zap.Int("count", len(messages)), zap.Stringer("type", eventType))
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", logging.Error.String(), "event type: error, warning, notice, success, general")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "also send every non-empty line read from stdin")

	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return lines, nil
}
