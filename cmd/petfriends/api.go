package main

import (
	"fmt"
	"io"

	"github.com/samvad-hq/petfriends/internal/app"
	"github.com/samvad-hq/petfriends/pkg/petfriends"
	"github.com/spf13/cobra"
)

func newKeyCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "key",
		Short: "Request an auth key for the configured account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireCredentials(); err != nil {
				return err
			}
			client, err := app.NewClient(c.cfg, c.log)
			if err != nil {
				return err
			}
			resp, err := client.GetAPIKey(cmd.Context(), c.cfg.ValidEmail, c.cfg.ValidPassword)
			if err != nil {
				return err
			}
			printResponse(cmd.OutOrStdout(), resp)
			return nil
		},
	}
}

func newListCmd(c *cli) *cobra.Command {
	var mine bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pets, optionally only those of the configured account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireCredentials(); err != nil {
				return err
			}
			client, err := app.NewClient(c.cfg, c.log)
			if err != nil {
				return err
			}
			keyResp, err := client.GetAPIKey(cmd.Context(), c.cfg.ValidEmail, c.cfg.ValidPassword)
			if err != nil {
				return err
			}
			key, err := keyResp.AuthKey()
			if err != nil {
				printResponse(cmd.OutOrStdout(), keyResp)
				return err
			}

			filter := petfriends.FilterAll
			if mine {
				filter = petfriends.FilterMyPets
			}
			resp, err := client.ListPets(cmd.Context(), key, filter)
			if err != nil {
				return err
			}
			printResponse(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&mine, "mine", false, "list only pets owned by the configured account")
	return cmd
}

func printResponse(w io.Writer, resp *petfriends.Response) {
	fmt.Fprintf(w, "status: %d\n", resp.StatusCode)
	if resp.Body.IsJSON() {
		fmt.Fprintf(w, "%s\n", resp.Body.Raw())
		return
	}
	fmt.Fprintf(w, "%s\n", resp.Body.Message())
}
