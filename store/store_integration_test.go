//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestConnectAgainstRealMongo spins up a disposable MongoDB container and
// exercises Connect/Resolve/ListVersions against it. Opt-in via the
// "integration" build tag since it needs a Docker daemon; skipped by the
// default test run.
func TestConnectAgainstRealMongo(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer container.Terminate(ctx)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	cfg := Config{
		URI:      "mongodb://" + host + ":" + port.Port(),
		Database: "grafo_query_it",
	}
	client, err := Connect(ctx, cfg, nil)
	require.NoError(t, err)
	defer client.Close(ctx)

	versions, err := client.ListVersions(ctx)
	require.NoError(t, err)
	require.Empty(t, versions)
}
