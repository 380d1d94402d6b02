//go:build e2e

package suite

import (
	"context"
	"testing"

	"github.com/samvad-hq/petfriends/internal/config"
	"github.com/stretchr/testify/require"
)

// TestLiveDeployment runs every scenario against the configured base_url.
// Run with: VALID_EMAIL=... VALID_PASSWORD=... go test -tags e2e ./internal/suite
func TestLiveDeployment(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	if !cfg.HasCredentials() {
		t.Skip("VALID_EMAIL and VALID_PASSWORD are required")
	}

	env, cleanup, err := FromConfig(cfg, nil, nil)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	ctx := context.Background()
	for _, sc := range Scenarios() {
		t.Run(sc.Name, func(t *testing.T) {
			require.NoError(t, sc.Run(ctx, env))
		})
	}
}
