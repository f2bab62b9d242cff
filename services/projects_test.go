package services

import (
	"context"
	"testing"

	"buildtrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func projectInput(name string) models.ProjectInput {
	return models.ProjectInput{
		Name:        &name,
		Location:    &models.Location{Address: "Plot 14, Block 7"},
		TotalBudget: ptr(1000000.0),
	}
}

func TestProjectCreate_StubsPhasesAndDefaultsCity(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	svc := NewProjectService(store, nil)

	p, err := svc.Create(ctx, adminCaller(), projectInput("Gulshan Residence"))
	require.NoError(t, err)
	assert.Equal(t, "Karachi", p.Location.Data().City)
	assert.Equal(t, models.ProjectLandSearch, p.Status)

	phases, err := store.ListPhases(ctx, p.ID, false)
	require.NoError(t, err)
	require.Len(t, phases, 3)
	got := []models.PhaseType{phases[0].Phase, phases[1].Phase, phases[2].Phase}
	assert.ElementsMatch(t, []models.PhaseType{models.PhasePiling, models.PhaseRaft, models.PhasePlinth}, got)
	for _, ph := range phases {
		assert.Equal(t, 0, ph.Floor)
		assert.Equal(t, models.PhasePending, ph.Status)
	}
}

func TestProjectCreate_AssignsManagerCreator(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	users := NewUserService(store, nil, "secret", 0)
	manager, err := users.create(ctx, models.RegisterInput{Name: "Sana", Email: "sana@example.com", Password: "secret1", Role: models.RoleManager})
	require.NoError(t, err)

	p, err := NewProjectService(store, nil).Create(ctx, NewCaller(manager), projectInput("Tower"))
	require.NoError(t, err)

	caller, err := users.CallerFor(ctx, manager.ID)
	require.NoError(t, err)
	assert.True(t, caller.AssignedProjects[p.ID])
}

func TestProjectCreate_Validation(t *testing.T) {
	store := openTestStore(t)
	_, err := NewProjectService(store, nil).Create(context.Background(), adminCaller(), models.ProjectInput{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []FieldError{
		{Field: "name", Message: "Project name is required"},
		{Field: "location.address", Message: "Location is required"},
	}, verr.Fields)
}

func TestProjectCreate_SupervisorForbidden(t *testing.T) {
	store := openTestStore(t)
	_, err := NewProjectService(store, nil).Create(context.Background(), callerWith(models.RoleSupervisor), projectInput("X"))
	assert.ErrorIs(t, err, ErrInsufficientRole)
}

func TestProjectList_ScopedToAssignments(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	a := seedProject(t, store, 0)
	seedProject(t, store, 0)
	svc := NewProjectService(store, nil)

	all, err := svc.List(ctx, adminCaller(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.List(ctx, callerWith(models.RoleViewer, a.ID), "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	none, err := svc.List(ctx, callerWith(models.RoleViewer), "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProjectUpdate_KeepsSpentAmount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 1000)
	require.NoError(t, store.AddSpent(ctx, project.ID, 250))

	got, err := NewProjectService(store, nil).Update(ctx, adminCaller(), project.ID, models.ProjectInput{TotalBudget: ptr(5000.0)})
	require.NoError(t, err)
	assert.Equal(t, 5000.0, got.TotalBudget)
	assert.Equal(t, 250.0, got.SpentAmount)
}

func TestProjectAttachDocument(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 0)
	svc := NewProjectService(store, nil)

	err := svc.CheckUpload(ctx, adminCaller(), project.ID, "selfie")
	var rule *RuleError
	require.ErrorAs(t, err, &rule)
	assert.Equal(t, "Invalid document type", rule.Message)

	got, err := svc.AttachDocument(ctx, adminCaller(), project.ID, "soil-test", "uploads/documents/1-soil.pdf")
	require.NoError(t, err)
	assert.Equal(t, "uploads/documents/1-soil.pdf", got.SoilTest.Data().Report)
}
