package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/petfriends/internal/fakeapi"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newFakeCmd(c *cli) *cobra.Command {
	var (
		addr   string
		users  []string
		strict bool
		seed   int
	)
	cmd := &cobra.Command{
		Use:   "fake",
		Short: "Serve an in-memory fake of the PetFriends API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := fakeapi.Options{Strict: strict, SeedPets: seed}
			if c.cfg.HasCredentials() {
				opts.Users = append(opts.Users, fakeapi.User{Email: c.cfg.ValidEmail, Password: c.cfg.ValidPassword})
			}
			for _, u := range users {
				user, err := parseUser(u)
				if err != nil {
					return err
				}
				opts.Users = append(opts.Users, user)
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			srv := &http.Server{
				Handler:           fakeapi.New(opts),
				ReadHeaderTimeout: 10 * time.Second,
			}

			c.log.InfoObj("fake api listening", "fake_meta", map[string]any{
				"addr":   ln.Addr().String(),
				"users":  len(opts.Users),
				"strict": strict,
				"seed":   seed,
			})
			fmt.Fprintf(cmd.OutOrStdout(), "serving fake PetFriends API on http://%s\n", ln.Addr())

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Serve(ln) }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
				c.log.InfoObj("fake api shutting down", "reason", cmd.Context().Err().Error())
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:8080", "address to listen on")
	cmd.Flags().StringArrayVar(&users, "user", nil, "extra account as email:password (repeatable)")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject negative ages, overlong names and non-image photos")
	cmd.Flags().IntVar(&seed, "seed", 3, "number of catalog pets created at startup")
	return cmd
}

func parseUser(s string) (fakeapi.User, error) {
	email, password, ok := strings.Cut(s, ":")
	if !ok || strings.TrimSpace(email) == "" || password == "" {
		return fakeapi.User{}, fmt.Errorf("invalid --user %q (want email:password)", s)
	}
	return fakeapi.User{Email: strings.TrimSpace(email), Password: password}, nil
}
