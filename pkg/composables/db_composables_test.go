package composables_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecove/catalog/pkg/composables"
	"github.com/tradecove/catalog/pkg/repo"
)

// queryOnlyTx carries just the query surface, the way test doubles do. It must
// be enough to bind and run transactional code paths.
type queryOnlyTx struct{}

func (queryOnlyTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (queryOnlyTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (queryOnlyTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

var _ repo.Tx = queryOnlyTx{}

func TestWithTx_BindsQuerySurface(t *testing.T) {
	ctx := composables.WithTx(context.Background(), queryOnlyTx{})

	tx, err := composables.UseTx(ctx)
	require.NoError(t, err)
	assert.Equal(t, queryOnlyTx{}, tx)
}

func TestInTx_ReusesBoundTx(t *testing.T) {
	ctx := composables.WithTx(context.Background(), queryOnlyTx{})

	called := false
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		called = true
		tx, err := composables.UseTx(txCtx)
		require.NoError(t, err)
		assert.Equal(t, queryOnlyTx{}, tx)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestInTx_RequiresPoolWithoutTx(t *testing.T) {
	err := composables.InTx(context.Background(), func(context.Context) error { return nil })
	require.ErrorIs(t, err, composables.ErrNoPool)
}

func TestUseTx_FallsBackToPoolError(t *testing.T) {
	_, err := composables.UseTx(context.Background())
	require.ErrorIs(t, err, composables.ErrNoPool)
}
