package services

import (
	"context"
	"testing"
	"time"

	"buildtrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var reportNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestComposeOverview_Finance(t *testing.T) {
	start := reportNow.AddDate(0, 0, -30)
	end := reportNow.AddDate(0, 0, 60)
	project := &models.Project{
		Name:             "Gulshan Residence",
		TotalBudget:      1000000,
		StartDate:        &start,
		EstimatedEndDate: &end,
		LandDetails:      datatypes.NewJSONType(models.LandDetails{PurchaseAmount: 50000}),
	}
	payments := []models.Payment{
		{Status: models.PaymentPaid, Type: models.PaymentContractor, Amount: 150000},
		{Status: models.PaymentPaid, Type: models.PaymentConsultant, Amount: 50000},
		{Status: models.PaymentApproved, Type: models.PaymentMaterial, Amount: 75000},
	}
	phases := []models.ConstructionPhase{
		{Phase: models.PhasePiling, Status: models.PhaseCompleted, Progress: 100},
		{Phase: models.PhaseRaft, Status: models.PhaseInProgress, Progress: 40, StartDate: &start},
		{Phase: models.PhasePlinth, Status: models.PhasePending},
	}

	r := ComposeOverview(project, "Admin", phases, payments, nil, reportNow)

	assert.Equal(t, 200000.0, r.FinancialSummary.TotalSpent)
	assert.Equal(t, 800000.0, r.FinancialSummary.RemainingBudget)
	assert.Equal(t, "20.00", r.FinancialSummary.BudgetUtilization)
	assert.Equal(t, 50000.0, r.FinancialSummary.LandCosts)
	assert.Equal(t, 150000.0, r.FinancialSummary.ConstructionCosts)
	assert.Equal(t, 50000.0, r.FinancialSummary.ConsultantCosts)
	assert.Equal(t, models.PhaseHistogram{Total: 3, Completed: 1, InProgress: 1, Pending: 1}, r.PhaseProgress)
	require.Len(t, r.CurrentPhases, 1)
	assert.Equal(t, models.PhaseRaft, r.CurrentPhases[0].Phase)
	assert.Equal(t, 30, r.Timeline.ElapsedDays)
	assert.Equal(t, 60, r.Timeline.RemainingDays)
}

func TestComposeProgress_FloorsAndDelays(t *testing.T) {
	started := reportNow.AddDate(0, 0, -20)
	est := 10
	phases := []models.ConstructionPhase{
		{Phase: models.PhasePiling, Floor: 0, Status: models.PhaseCompleted, Progress: 100, UpdatedAt: reportNow.AddDate(0, 0, -30)},
		{Phase: models.PhaseRaft, Floor: 0, Status: models.PhaseCompleted, Progress: 100, UpdatedAt: reportNow.AddDate(0, 0, -1)},
		{Phase: models.PhaseGreyStructure, Floor: 1, Status: models.PhaseInProgress, Progress: 50, StartDate: &started, EstimatedDuration: &est, UpdatedAt: reportNow.Add(-time.Hour)},
	}

	r := ComposeProgress(phases, reportNow)

	assert.Equal(t, 2, r.TotalFloors)
	assert.Equal(t, 1, r.CompletedFloors)
	assert.Equal(t, 100.0, r.ProgressByFloor[0].OverallProgress)
	assert.Equal(t, 50.0, r.ProgressByFloor[1].OverallProgress)
	require.Len(t, r.RecentActivities, 2)
	assert.Equal(t, models.PhaseGreyStructure, r.RecentActivities[0].Phase)
	require.Len(t, r.CriticalPhases, 1)
	assert.Equal(t, 10, r.CriticalPhases[0].DelayDays)
}

func TestDelayDays_OnlyInProgressWithEstimate(t *testing.T) {
	started := reportNow.AddDate(0, 0, -5)
	est := 10
	p := &models.ConstructionPhase{Status: models.PhaseInProgress, StartDate: &started, EstimatedDuration: &est}
	_, late := DelayDays(p, reportNow)
	assert.False(t, late)

	p.Status = models.PhaseOnHold
	p.EstimatedDuration = ptr(1)
	_, late = DelayDays(p, reportNow)
	assert.False(t, late)
}

func TestComposeFinancial_UpcomingAndPending(t *testing.T) {
	project := &models.Project{TotalBudget: 0}
	all := []models.Payment{
		{ID: "paid", Status: models.PaymentPaid, Amount: 100, PaymentDate: reportNow.AddDate(0, -1, 0)},
		{ID: "later", Status: models.PaymentApproved, Amount: 10, PaymentDate: reportNow.AddDate(0, 0, 5)},
		{ID: "today", Status: models.PaymentApproved, Amount: 10, PaymentDate: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
		{ID: "overdue", Status: models.PaymentApproved, Amount: 10, PaymentDate: reportNow.AddDate(0, 0, -2)},
		{ID: "pending", Status: models.PaymentPending, Amount: 10, PaymentDate: reportNow.AddDate(0, 0, 1)},
	}

	r := ComposeFinancial(project, PaidOnly(all), all, nil, reportNow)

	assert.Equal(t, 100.0, r.TotalSpent)
	assert.Equal(t, "0.00", r.BudgetUtilization)
	assert.Equal(t, 4, r.PendingPayments)
	require.Len(t, r.UpcomingPayments, 2)
	assert.Equal(t, "today", r.UpcomingPayments[0].ID)
	assert.Equal(t, "later", r.UpcomingPayments[1].ID)
	assert.Equal(t, map[string]float64{"2024-05": 100}, r.CashFlow)
}

func TestComposeQuality(t *testing.T) {
	phases := []models.ConstructionPhase{
		{
			Phase: models.PhaseRaft,
			CubeTests: []models.CubeTest{
				{TestDate: reportNow.AddDate(0, 0, -2), Result: models.CubeTestPass, Strength: 30},
				{TestDate: reportNow.AddDate(0, 0, -60), Result: models.CubeTestFail, Strength: 18},
			},
			EngineerInspections: []models.EngineerInspection{
				{InspectionDate: reportNow.AddDate(0, 0, -1), EngineerType: "structural", Approved: true},
			},
			Issues: []models.PhaseIssue{
				{Description: "Honeycombing at C3", Date: reportNow.AddDate(0, 0, -3)},
				{Description: "Shuttering gap", Date: reportNow.AddDate(0, 0, -9), Resolved: true},
			},
		},
	}

	r := ComposeQuality(phases, reportNow)

	assert.Equal(t, "50.00", r.QualityData.CubeTests.PassRate)
	assert.Equal(t, models.PassFail{Passed: 1, Failed: 1}, *r.QualityData.CubeTests.ByPhase["raft-Floor0"])
	assert.Equal(t, "100.00", r.QualityData.Inspections.ApprovalRate)
	assert.Equal(t, "50.00", r.QualityData.Issues.ResolutionRate)
	assert.Len(t, r.RecentEvents, 2)
	require.Len(t, r.CriticalIssues, 1)
	assert.Equal(t, "Honeycombing at C3", r.CriticalIssues[0].Description)
}

func TestComposeQuality_EmptyRatesAreZero(t *testing.T) {
	r := ComposeQuality(nil, reportNow)
	assert.Equal(t, "0.00", r.QualityData.CubeTests.PassRate)
	assert.Empty(t, r.RecentEvents)
	assert.NotNil(t, r.CriticalIssues)
}

func TestReportService_FinancialDerivesSpentFromPayments(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 1000000)
	payments := NewPaymentService(store, nil)

	_, err := payments.Create(ctx, adminCaller(), paymentInput(project.ID, 200000, models.PaymentPaid))
	require.NoError(t, err)
	_, err = payments.Create(ctx, adminCaller(), paymentInput(project.ID, 50000, models.PaymentPending))
	require.NoError(t, err)

	r, err := NewReportService(store).Financial(ctx, adminCaller(), project.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 200000.0, r.TotalSpent)
	assert.Equal(t, 800000.0, r.RemainingBudget)
	assert.Equal(t, "20.00", r.BudgetUtilization)
	assert.Equal(t, 1, r.PendingPayments)
}

func TestReportService_ExportRejectsUnknownFormat(t *testing.T) {
	store := openTestStore(t)
	project := seedProject(t, store, 0)

	_, err := NewReportService(store).Export(context.Background(), adminCaller(), project.ID, "csv")
	var rule *RuleError
	require.ErrorAs(t, err, &rule)
	assert.Equal(t, "Unsupported export format", rule.Message)
}

func TestReportService_UnassignedCallerIsForbidden(t *testing.T) {
	store := openTestStore(t)
	project := seedProject(t, store, 0)

	_, err := NewReportService(store).Overview(context.Background(), callerWith(models.RoleManager), project.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, err, ErrNotAssigned)
}
