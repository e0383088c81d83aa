package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration (secrets masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.cfg.RenderYAML()
			if err != nil {
				return err
			}
			if c.cfg.ConfigPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", c.cfg.ConfigPath)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
