package services

import (
	"testing"

	"buildtrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveBOQStatus_Precedence(t *testing.T) {
	tests := []struct {
		name                    string
		ordered, received, used float64
		want                    models.BOQStatus
	}{
		{"nothing yet", 0, 0, 0, models.BOQPending},
		{"ordered", 50, 0, 0, models.BOQOrdered},
		{"partially received", 100, 40, 0, models.BOQPartial},
		{"fully received", 100, 100, 0, models.BOQReceived},
		{"usage outranks receipt", 100, 100, 10, models.BOQInUse},
		{"used up", 100, 100, 100, models.BOQCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &models.BOQItem{Quantity: 100, OrderedQuantity: tt.ordered, ReceivedQuantity: tt.received, UsedQuantity: tt.used}
			assert.Equal(t, tt.want, DeriveBOQStatus(item))
		})
	}
}

func TestDeriveBOQStatus_ZeroQuantityIsCompleted(t *testing.T) {
	item := &models.BOQItem{}
	assert.Equal(t, models.BOQCompleted, DeriveBOQStatus(item))
	assert.False(t, IsCritical(item))
}

func TestRefreshBOQItem_RecomputesTotal(t *testing.T) {
	item := &models.BOQItem{Quantity: 12.5, RatePerUnit: 400, UsedQuantity: 2}
	RefreshBOQItem(item)
	assert.Equal(t, 5000.0, item.TotalAmount)
	assert.Equal(t, models.BOQInUse, item.Status)
}

func TestCriticalItems(t *testing.T) {
	items := []models.BOQItem{
		{ID: "cement", ItemName: "Cement", Unit: "bags", Quantity: 100, UsedQuantity: 85},
		{ID: "steel", ItemName: "Steel", Unit: "tons", Quantity: 10, UsedQuantity: 9.5},
		{ID: "sand", ItemName: "Sand", Unit: "cft", Quantity: 100, UsedQuantity: 80},
		{ID: "bricks", ItemName: "Bricks", Unit: "nos", Quantity: 100, UsedQuantity: 100},
	}
	for i := range items {
		RefreshBOQItem(&items[i])
	}
	got := CriticalItems(items)
	require.Len(t, got, 2)
	assert.Equal(t, "steel", got[0].ID)
	assert.Equal(t, "5.00", got[0].RemainingPercentage)
	assert.Equal(t, "cement", got[1].ID)
	assert.Equal(t, 15.0, got[1].RemainingQuantity)
	assert.Equal(t, "15.00", got[1].RemainingPercentage)
}

func TestSummarizeBOQ(t *testing.T) {
	items := []models.BOQItem{
		{Category: models.BOQCivil, Quantity: 10, RatePerUnit: 100, OrderedQuantity: 10, ReceivedQuantity: 5},
		{Category: models.BOQCivil, Quantity: 4, RatePerUnit: 50, OrderedQuantity: 4, ReceivedQuantity: 4, UsedQuantity: 4},
		{Category: models.BOQSteel, Quantity: 2, RatePerUnit: 1000},
	}
	for i := range items {
		RefreshBOQItem(&items[i])
	}
	s := SummarizeBOQ(items)
	assert.Equal(t, 3, s.TotalItems)
	assert.Equal(t, 3200.0, s.TotalBudget)
	assert.Equal(t, 1200.0, s.OrderedValue)
	assert.Equal(t, 700.0, s.ReceivedValue)
	assert.Equal(t, 200.0, s.UsedValue)
	assert.Equal(t, 2, s.ByCategory[models.BOQCivil].Count)
	assert.Equal(t, 1, s.ByStatus[models.BOQCompleted])
	assert.Equal(t, 1, s.ByStatus[models.BOQPartial])
}
