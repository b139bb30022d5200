package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/eshop/internal/apperrors"
	"github.com/nkiryanov/eshop/internal/repository"
	"github.com/nkiryanov/eshop/internal/testutil"
)

func Test_Storage(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	params := repository.CreateUserParams{Email: "buyer@example.com", HashedPassword: "hash"}

	t.Run("commit on success", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			s := NewStorage(tx)

			err := s.InTx(t.Context(), func(inner repository.Storage) error {
				_, err := inner.User().CreateUser(t.Context(), params)
				return err
			})
			require.NoError(t, err)

			_, err = s.User().GetUserByEmail(t.Context(), params.Email)
			require.NoError(t, err, "user has to be committed")
		})
	})

	t.Run("rollback on error", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			s := NewStorage(tx)
			failure := errors.New("something went wrong")

			err := s.InTx(t.Context(), func(inner repository.Storage) error {
				_, err := inner.User().CreateUser(t.Context(), params)
				require.NoError(t, err)
				return failure
			})
			require.ErrorIs(t, err, failure)

			_, err = s.User().GetUserByEmail(t.Context(), params.Email)
			require.ErrorIs(t, err, apperrors.ErrUserNotFound, "user creation has to be rolled back")
		})
	})
}
