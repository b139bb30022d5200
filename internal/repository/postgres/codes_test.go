package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/eshop/internal/apperrors"
	"github.com/nkiryanov/eshop/internal/testutil"
)

func Test_CodeRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Insert code that expired a minute ago
	insertExpired := func(t *testing.T, tx pgx.Tx, key string, value string) {
		_, err := tx.Exec(t.Context(),
			"INSERT INTO otp_codes (key, value, expires_at) VALUES ($1, $2, now() - interval '1 minute')",
			key, value,
		)
		require.NoError(t, err)
	}

	t.Run("set and get ok", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CodeRepo{DB: tx}

			err := repo.Set(t.Context(), "ABCD2345", "buyer@example.com", 10*time.Minute)
			require.NoError(t, err)

			got, err := repo.Get(t.Context(), "ABCD2345")
			require.NoError(t, err)
			require.Equal(t, "buyer@example.com", got)

			got, err = repo.Get(t.Context(), "ABCD2345")
			require.NoError(t, err, "get must not delete the code")
			require.Equal(t, "buyer@example.com", got)
		})
	})

	t.Run("set overwrites", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CodeRepo{DB: tx}

			require.NoError(t, repo.Set(t.Context(), "ABCD2345", "first@example.com", time.Minute))
			require.NoError(t, repo.Set(t.Context(), "ABCD2345", "second@example.com", time.Minute))

			got, err := repo.Get(t.Context(), "ABCD2345")
			require.NoError(t, err)
			require.Equal(t, "second@example.com", got, "last write wins")
		})
	})

	t.Run("set refreshes expired key", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CodeRepo{DB: tx}
			insertExpired(t, tx, "ABCD2345", "first@example.com")

			require.NoError(t, repo.Set(t.Context(), "ABCD2345", "second@example.com", time.Minute))

			got, err := repo.Get(t.Context(), "ABCD2345")
			require.NoError(t, err)
			require.Equal(t, "second@example.com", got)
		})
	})

	t.Run("non positive ttl fail", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CodeRepo{DB: tx}

			err := repo.Set(t.Context(), "ABCD2345", "buyer@example.com", 0)

			require.Error(t, err)
		})
	})

	t.Run("get missing", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CodeRepo{DB: tx}

			_, err := repo.Get(t.Context(), "MISSING2")

			require.ErrorIs(t, err, apperrors.ErrCodeNotFound)
		})
	})

	t.Run("get expired", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CodeRepo{DB: tx}
			insertExpired(t, tx, "ABCD2345", "buyer@example.com")

			_, err := repo.Get(t.Context(), "ABCD2345")

			require.ErrorIs(t, err, apperrors.ErrCodeNotFound, "expired code has to be indistinguishable from missing one")
		})
	})

	t.Run("take deletes", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CodeRepo{DB: tx}
			require.NoError(t, repo.Set(t.Context(), "ABCD2345", "buyer@example.com", time.Minute))

			got, err := repo.Take(t.Context(), "ABCD2345")
			require.NoError(t, err)
			require.Equal(t, "buyer@example.com", got)

			_, err = repo.Take(t.Context(), "ABCD2345")
			require.ErrorIs(t, err, apperrors.ErrCodeNotFound, "code can be taken only once")
		})
	})

	t.Run("take expired", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CodeRepo{DB: tx}
			insertExpired(t, tx, "ABCD2345", "buyer@example.com")

			_, err := repo.Take(t.Context(), "ABCD2345")

			require.ErrorIs(t, err, apperrors.ErrCodeNotFound)
		})
	})

	t.Run("delete expired", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CodeRepo{DB: tx}
			insertExpired(t, tx, "EXPIRED2", "old@example.com")
			require.NoError(t, repo.Set(t.Context(), "ALIVE234", "buyer@example.com", time.Minute))

			deleted, err := repo.DeleteExpired(t.Context())

			require.NoError(t, err)
			require.EqualValues(t, 1, deleted)

			_, err = repo.Get(t.Context(), "ALIVE234")
			require.NoError(t, err, "alive code must stay")
		})
	})
}
