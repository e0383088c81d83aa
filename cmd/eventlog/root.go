package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Chichichkin/EventLogAgent/internal/config"
	"github.com/Chichichkin/EventLogAgent/internal/logger"
	"github.com/Chichichkin/EventLogAgent/internal/logging/eventlog"
)

// cli holds state shared by subcommands once the root command has loaded config.
type cli struct {
	v          *viper.Viper
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "eventlog",
		Short: "Ship log messages to EventLog",
		Long: `eventlog sends messages to the EventLog service (http://eventlogapp.com).

Messages are queued and sent one request each, in order, when the command
finishes (send) or periodically and on shutdown (tail).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.v, c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logger.NewLogger(cfg.Log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default ./eventlog.yaml)")
	flags.String("username", "", "EventLog username (email)")
	flags.String("password", "", "EventLog password")
	flags.String("api-key", "", "EventLog application API key")
	flags.String("endpoint", "", "EventLog log_message endpoint URL")
	flags.String("log-level", "", "agent log level (debug, info, warn, error)")

	for key, flag := range map[string]string{
		"username":     "username",
		"password":     "password",
		"api_key":      "api-key",
		"endpoint_url": "endpoint",
		"log.level":    "log-level",
	} {
		_ = c.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		newSendCmd(c),
		newTailCmd(c),
		newConfigCmd(c),
		newVersionCmd(),
	)

	return root
}

// newEventLogger validates the loaded config and builds a client from it.
func (c *cli) newEventLogger() (*eventlog.EventLogger, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}

	return eventlog.New(c.cfg.Username, c.cfg.Password, c.cfg.APIKey,
		eventlog.WithEndpointURL(c.cfg.EndpointURL),
		eventlog.WithTimeout(c.cfg.Timeout),
		eventlog.WithLogger(c.logger.Named("eventlog")),
	), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// no config needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "eventlog %s\ncommit: %s\n", version, commit)
		},
	}
}
