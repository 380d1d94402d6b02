package main

import (
	"fmt"

	"github.com/samvad-hq/petfriends/internal/app"
	"github.com/spf13/cobra"
)

func newSweepCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete pets recorded by earlier check runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireCredentials(); err != nil {
				return err
			}
			store, err := app.OpenStore(c.cfg, c.log)
			if err != nil {
				return err
			}
			defer store.Close()

			client, err := app.NewClient(c.cfg, c.log)
			if err != nil {
				return err
			}
			sweeper, err := app.NewSweeper(client, app.Credentials(c.cfg), store, c.log)
			if err != nil {
				return err
			}

			res, err := sweeper.Sweep(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "tracked %d, deleted %d, failed %d\n", res.Tracked, res.Deleted, res.Failed)
			return err
		},
	}
}
