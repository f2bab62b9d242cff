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

func newGreyStructure(t *testing.T, svc *PhaseService, projectID string) *models.ConstructionPhase {
	t.Helper()
	p, err := svc.Create(context.Background(), adminCaller(), models.PhaseCreateInput{
		ProjectID: projectID,
		Phase:     models.PhaseGreyStructure,
		Floor:     1,
		Details:   datatypes.JSON(`{"columns":{"total":10,"completed":5},"beams":{"total":10,"completed":5}}`),
	})
	require.NoError(t, err)
	return p
}

func TestPhaseCreate_DerivesProgress(t *testing.T) {
	store := openTestStore(t)
	project := seedProject(t, store, 0)
	p := newGreyStructure(t, NewPhaseService(store, nil), project.ID)

	assert.Equal(t, models.PhasePending, p.Status)
	assert.Equal(t, 50.0, p.Progress)
}

func TestPhaseUpdate_MergesDetails(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 0)
	svc := NewPhaseService(store, nil)
	p := newGreyStructure(t, svc, project.ID)
	supervisor := callerWith(models.RoleSupervisor, project.ID)

	got, err := svc.Update(ctx, supervisor, p.ID, models.PhaseUpdateInput{
		Details: datatypes.JSON(`{"columns":{"total":10,"completed":10}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 75.0, got.Progress, "beams keep their stored counts")

	got, err = svc.Update(ctx, supervisor, p.ID, models.PhaseUpdateInput{
		Details: datatypes.JSON(`{"slabs":{"chhatBarhai":{"status":"completed"}}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Progress)
}

func TestPhaseUpdate_RejectsMalformedDetails(t *testing.T) {
	store := openTestStore(t)
	project := seedProject(t, store, 0)
	svc := NewPhaseService(store, nil)
	p := newGreyStructure(t, svc, project.ID)

	_, err := svc.Update(context.Background(), adminCaller(), p.ID, models.PhaseUpdateInput{
		Details: datatypes.JSON(`{"columns":"many"}`),
	})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestPhaseSetStatus_Completion(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 0)
	svc := NewPhaseService(store, nil)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	p := newGreyStructure(t, svc, project.ID)

	_, err := svc.SetStatus(ctx, adminCaller(), p.ID, models.PhaseInProgress)
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(5*24*time.Hour + time.Minute) }
	done, err := svc.SetStatus(ctx, adminCaller(), p.ID, models.PhaseCompleted)
	require.NoError(t, err)
	assert.Equal(t, 100.0, done.Progress)
	require.NotNil(t, done.ActualDuration)
	assert.Equal(t, 6, *done.ActualDuration)

	got, err := svc.Update(ctx, adminCaller(), p.ID, models.PhaseUpdateInput{
		Details: datatypes.JSON(`{"columns":{"total":10,"completed":1}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Progress, "completed phases stay at 100")
}

func TestPhaseWrites_UnassignedSupervisorIsForbidden(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 0)
	svc := NewPhaseService(store, nil)
	p := newGreyStructure(t, svc, project.ID)
	outsider := callerWith(models.RoleSupervisor, "another-project")

	_, err := svc.SetStatus(ctx, outsider, p.ID, models.PhaseInProgress)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.AddIssue(ctx, outsider, p.ID, models.IssueInput{Description: "crack"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.SetStatus(ctx, outsider, "missing", models.PhaseInProgress)
	assert.ErrorIs(t, err, ErrNotFound, "lookup runs before the project gate")
}

func TestPhaseInspection_ManagersOnly(t *testing.T) {
	store := openTestStore(t)
	project := seedProject(t, store, 0)
	svc := NewPhaseService(store, nil)
	p := newGreyStructure(t, svc, project.ID)

	err := svc.CheckInspection(context.Background(), callerWith(models.RoleSupervisor, project.ID), p.ID)
	assert.ErrorIs(t, err, ErrInsufficientRole)
}

func TestPhaseIssues_AddAndResolve(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project := seedProject(t, store, 0)
	svc := NewPhaseService(store, nil)
	p := newGreyStructure(t, svc, project.ID)
	supervisor := callerWith(models.RoleSupervisor, project.ID)

	issue, err := svc.AddIssue(ctx, supervisor, p.ID, models.IssueInput{Description: "Honeycombing at C3"})
	require.NoError(t, err)
	assert.False(t, issue.Resolved)

	resolved, err := svc.ResolveIssue(ctx, supervisor, p.ID, issue.ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.NotNil(t, resolved.ResolutionDate)
}

func TestPhasePhotos_Limit(t *testing.T) {
	store := openTestStore(t)
	project := seedProject(t, store, 0)
	svc := NewPhaseService(store, nil)
	p := newGreyStructure(t, svc, project.ID)

	paths := make([]string, MaxPhotosPerUpload+1)
	for i := range paths {
		paths[i] = "uploads/photos/x.jpg"
	}
	_, err := svc.AddPhotos(context.Background(), adminCaller(), p.ID, paths, "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	photos, err := svc.AddPhotos(context.Background(), adminCaller(), p.ID, paths[:2], "slab pour")
	require.NoError(t, err)
	assert.Len(t, photos, 2)
}
