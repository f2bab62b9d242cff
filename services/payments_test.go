package services

import (
	"context"
	"sync"
	"testing"

	"buildtrack/models"
	"buildtrack/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spentOf(t *testing.T, store *repository.Store, projectID string) float64 {
	t.Helper()
	p, err := store.GetProject(context.Background(), projectID)
	require.NoError(t, err)
	return p.SpentAmount
}

func TestPaymentWorkflow_SpentFollowsPaidPayments(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 1000000)
	svc := NewPaymentService(store, NewActivityService(store, quietLogger()))
	admin := adminCaller()

	p, err := svc.Create(ctx, admin, paymentInput(project.ID, 200000, models.PaymentPending))
	require.NoError(t, err)
	assert.Equal(t, 0.0, spentOf(t, store, project.ID))

	_, err = svc.MarkPaid(ctx, admin, p.ID, models.MarkPaidInput{})
	var rule *RuleError
	require.ErrorAs(t, err, &rule)
	assert.Equal(t, "Payment must be approved first", rule.Message)

	p, err = svc.Approve(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentApproved, p.Status)
	require.NotNil(t, p.ApprovedBy)
	assert.Equal(t, admin.UserID, *p.ApprovedBy)

	_, err = svc.Approve(ctx, admin, p.ID)
	require.ErrorAs(t, err, &rule)
	assert.Equal(t, "Only pending payments can be approved", rule.Message)

	p, err = svc.MarkPaid(ctx, admin, p.ID, models.MarkPaidInput{ReferenceNumber: "TRX-42"})
	require.NoError(t, err)
	assert.Equal(t, "TRX-42", p.ReferenceNumber)
	assert.Equal(t, 200000.0, spentOf(t, store, project.ID))

	_, err = svc.MarkPaid(ctx, admin, p.ID, models.MarkPaidInput{})
	require.ErrorAs(t, err, &rule)
	assert.Equal(t, "Payment is already marked as paid", rule.Message)

	amount := 250000.0
	_, err = svc.Update(ctx, admin, p.ID, models.PaymentInput{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 250000.0, spentOf(t, store, project.ID))

	cancelled := models.PaymentCancelled
	_, err = svc.Update(ctx, admin, p.ID, models.PaymentInput{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, 0.0, spentOf(t, store, project.ID))

	_, err = svc.MarkPaid(ctx, admin, p.ID, models.MarkPaidInput{})
	require.NoError(t, err)
	assert.Equal(t, 250000.0, spentOf(t, store, project.ID))

	require.NoError(t, svc.Delete(ctx, admin, p.ID))
	assert.Equal(t, 0.0, spentOf(t, store, project.ID))

	logs, total, err := NewActivityService(store, quietLogger()).List(ctx, admin, project.ID, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(len(logs)), total)
	assert.NotZero(t, total)
}

func TestPaymentMarkPaid_ConcurrentCallsPayOnce(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 1000000)
	svc := NewPaymentService(store, nil)
	admin := adminCaller()

	p, err := svc.Create(ctx, admin, paymentInput(project.ID, 100, models.PaymentApproved))
	require.NoError(t, err)

	const callers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		paid int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.MarkPaid(ctx, admin, p.ID, models.MarkPaidInput{})
			var rule *RuleError
			if err != nil && !assert.ErrorAs(t, err, &rule) {
				return
			}
			if err == nil {
				mu.Lock()
				paid++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, paid)
	assert.Equal(t, 100.0, spentOf(t, store, project.ID))
	sum, err := store.SumPaid(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, sum, spentOf(t, store, project.ID))
}

func TestPaymentCreate_Validation(t *testing.T) {
	store := openTestStore(t)
	project := seedProject(t, store, 0)
	svc := NewPaymentService(store, nil)

	_, err := svc.Create(context.Background(), adminCaller(), models.PaymentInput{ProjectID: project.ID})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "Payment type is required", fields["type"])
	assert.Equal(t, "Payee is required", fields["paymentTo"])
	assert.Equal(t, "Valid payment date is required", fields["paymentDate"])
}

func TestPaymentCreate_Gates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 0)
	svc := NewPaymentService(store, nil)

	_, err := svc.Create(ctx, callerWith(models.RoleSupervisor, project.ID), paymentInput(project.ID, 10, models.PaymentPending))
	assert.ErrorIs(t, err, ErrInsufficientRole)

	_, err = svc.Create(ctx, callerWith(models.RoleManager), paymentInput(project.ID, 10, models.PaymentPending))
	assert.ErrorIs(t, err, ErrNotAssigned)

	_, err = svc.Create(ctx, callerWith(models.RoleManager), models.PaymentInput{ProjectID: project.ID})
	assert.ErrorIs(t, err, ErrNotAssigned, "gates run before the payload is validated")

	_, err = svc.Create(ctx, adminCaller(), paymentInput("missing", 10, models.PaymentPending))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Create(ctx, callerWith(models.RoleManager, project.ID), paymentInput(project.ID, 10, models.PaymentPending))
	assert.NoError(t, err)
}

func TestPaymentDelete_AdminOnly(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 0)
	svc := NewPaymentService(store, nil)
	p, err := svc.Create(ctx, adminCaller(), paymentInput(project.ID, 10, models.PaymentPaid))
	require.NoError(t, err)

	err = svc.Delete(ctx, callerWith(models.RoleManager, project.ID), p.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 10.0, spentOf(t, store, project.ID))
}

func TestPaymentSummary(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 1000)
	svc := NewPaymentService(store, nil)
	for _, in := range []models.PaymentInput{
		paymentInput(project.ID, 300, models.PaymentPaid),
		paymentInput(project.ID, 100, models.PaymentPaid),
		paymentInput(project.ID, 500, models.PaymentApproved),
	} {
		_, err := svc.Create(ctx, adminCaller(), in)
		require.NoError(t, err)
	}

	s, err := svc.Summary(ctx, adminCaller(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, 400.0, s.TotalSpent)
	assert.Equal(t, 600.0, s.RemainingBudget)
	assert.Equal(t, "40.00", s.Utilization)
	assert.Equal(t, "100.00", s.ByType[models.PaymentContractor].Percentage)
	assert.Len(t, s.RecentPayments, 3)
}
