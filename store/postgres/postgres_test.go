package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"nodegraph/store/storetest"
)

func TestPGStore(t *testing.T) {
	url := os.Getenv("NODEGRAPH_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("NODEGRAPH_TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := New(pool)
	require.NoError(t, s.DropSchema(ctx))
	require.NoError(t, s.CreateSchema(ctx))
	t.Cleanup(func() { _ = s.DropSchema(context.Background()) })

	storetest.Run(t, s)
}
