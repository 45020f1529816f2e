package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container for testing and applies the
// intents schema. Returns a cleanup function that must be called after tests.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	ctx := context.Background()

	container, err := pgcontainer.Run(ctx, "postgres:15-alpine",
		pgcontainer.WithDatabase("testdb"),
		pgcontainer.WithUsername("test"),
		pgcontainer.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	_, err = pool.Exec(ctx, intentsSchema)
	require.NoError(t, err, "failed to apply intents schema")

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// intentsSchema mirrors internal/storage/migrations/postgres/001_intents.sql.
// Duplicated here to avoid an import cycle with the migrations package.
const intentsSchema = `
CREATE TABLE IF NOT EXISTS intents (
    intent_id           TEXT PRIMARY KEY,
    from_mint           TEXT NOT NULL,
    to_mint             TEXT NOT NULL,
    amount              TEXT NOT NULL,
    slippage_bps        INTEGER NOT NULL,
    out_amount_est      TEXT NOT NULL,
    unsigned_tx         TEXT NOT NULL,
    request_id          TEXT NOT NULL,
    created_at          TIMESTAMPTZ NOT NULL,
    expires_at          TIMESTAMPTZ NOT NULL,
    executed            BOOLEAN NOT NULL DEFAULT FALSE,
    result_signature    TEXT,
    result_landed       BOOLEAN,
    result_actual_out   TEXT,
    result_failure      TEXT,
    result_completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_intents_pending
    ON intents (expires_at)
    WHERE executed = FALSE;
`
