package services

import (
	"context"
	"testing"

	"buildtrack/models"
	"buildtrack/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cementInput(projectID string) models.BOQItemInput {
	return models.BOQItemInput{
		ProjectID:   projectID,
		Category:    ptr(models.BOQCivil),
		ItemName:    ptr("Cement"),
		Unit:        ptr("bags"),
		Quantity:    ptr(100.0),
		RatePerUnit: ptr(1250.0),
	}
}

func TestBOQCreate_ComputesTotalAndTouchesProject(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 0)
	svc := NewBOQService(store, nil)

	item, err := svc.Create(ctx, adminCaller(), cementInput(project.ID))
	require.NoError(t, err)
	assert.Equal(t, 125000.0, item.TotalAmount)
	assert.Equal(t, models.BOQPending, item.Status)

	got, err := store.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.BOQ.Data().LastUpdated)
}

func TestBOQCreate_Validation(t *testing.T) {
	store := openTestStore(t)
	project := seedProject(t, store, 0)

	_, err := NewBOQService(store, nil).Create(context.Background(), adminCaller(), models.BOQItemInput{ProjectID: project.ID})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 5)

	_, err = NewBOQService(store, nil).Create(context.Background(), callerWith(models.RoleManager), models.BOQItemInput{ProjectID: project.ID})
	assert.ErrorIs(t, err, ErrNotAssigned)
}

func TestBOQUpdateQuantities_CriticalAfterHeavyUse(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 0)
	svc := NewBOQService(store, nil)
	item, err := svc.Create(ctx, adminCaller(), cementInput(project.ID))
	require.NoError(t, err)
	supervisor := callerWith(models.RoleSupervisor, project.ID)

	item, err = svc.UpdateQuantities(ctx, supervisor, item.ID, models.BOQQuantitiesInput{
		OrderedQuantity:  ptr(100.0),
		ReceivedQuantity: ptr(100.0),
		UsedQuantity:     ptr(85.0),
	})
	require.NoError(t, err)
	assert.Equal(t, models.BOQInUse, item.Status)

	summary, err := svc.Summary(ctx, supervisor, project.ID)
	require.NoError(t, err)
	require.Len(t, summary.CriticalItems, 1)
	assert.Equal(t, "15.00", summary.CriticalItems[0].RemainingPercentage)
	assert.Equal(t, 15.0, summary.CriticalItems[0].RemainingQuantity)
}

func TestBOQQuantities_DateNeedsItsQuantity(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 0)
	svc := NewBOQService(store, nil)
	item, err := svc.Create(ctx, adminCaller(), cementInput(project.ID))
	require.NoError(t, err)

	when := reportNow
	item, err = svc.UpdateQuantities(ctx, adminCaller(), item.ID, models.BOQQuantitiesInput{DeliveryDate: &when})
	require.NoError(t, err)
	assert.Nil(t, item.DeliveryDate)
}

func TestBOQList_FilterAndTotals(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 0)
	svc := NewBOQService(store, nil)
	_, err := svc.Create(ctx, adminCaller(), cementInput(project.ID))
	require.NoError(t, err)
	steel := cementInput(project.ID)
	steel.Category = ptr(models.BOQSteel)
	steel.ItemName = ptr("Steel")
	steel.Quantity = ptr(2.0)
	steel.RatePerUnit = ptr(250000.0)
	_, err = svc.Create(ctx, adminCaller(), steel)
	require.NoError(t, err)

	items, totals, err := svc.List(ctx, adminCaller(), project.ID, repository.BOQFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 625000.0, totals.TotalAmount)

	items, _, err = svc.List(ctx, adminCaller(), project.ID, repository.BOQFilter{Category: models.BOQSteel})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Steel", items[0].ItemName)
}

func TestBOQDelete_AdminOnly(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 0)
	svc := NewBOQService(store, nil)
	item, err := svc.Create(ctx, adminCaller(), cementInput(project.ID))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, callerWith(models.RoleManager, project.ID), item.ID), ErrInsufficientRole)
	require.NoError(t, svc.Delete(ctx, adminCaller(), item.ID))
	_, err = svc.Get(ctx, adminCaller(), item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
