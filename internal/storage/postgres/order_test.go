package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/order"
)

func TestTransitionRequiresPool(t *testing.T) {
	// A tx-bound copy has no pool to open a transaction on; Transition must
	// fail loudly instead of dereferencing the nil pool.
	repo := (&OrderRepository{}).withTx(nil)

	got, changed, err := repo.Transition(context.Background(), "ord-1", order.StatusCooking)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.False(t, changed)
	assert.Contains(t, err.Error(), "pool-bound")
}
