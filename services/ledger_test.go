package services

import (
	"context"
	"testing"

	"buildtrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_CorrectsDrift(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	clean := seedProject(t, store, 1000)
	drifted := seedProject(t, store, 1000)
	payments := NewPaymentService(store, nil)
	for _, id := range []string{clean.ID, drifted.ID} {
		_, err := payments.Create(ctx, adminCaller(), paymentInput(id, 300, models.PaymentPaid))
		require.NoError(t, err)
	}
	require.NoError(t, store.AddSpent(ctx, drifted.ID, 55))

	drifts, err := NewLedgerService(store, quietLogger()).Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, Drift{ProjectID: drifted.ID, Stored: 355, Actual: 300}, drifts[0])
	assert.Equal(t, 300.0, spentOf(t, store, drifted.ID))
	assert.Equal(t, 300.0, spentOf(t, store, clean.ID))

	drifts, err = NewLedgerService(store, quietLogger()).Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}
