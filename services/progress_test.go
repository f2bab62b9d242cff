package services

import (
	"testing"
	"time"

	"buildtrack/models"

	"github.com/stretchr/testify/assert"
)

func TestComputeProgress_GreyStructure(t *testing.T) {
	g := &models.GreyStructureDetails{
		Columns: models.Counter{Total: 10, Completed: 5},
		Beams:   models.Counter{Total: 10, Completed: 5},
	}
	assert.Equal(t, 50.0, ComputeProgress(g, 0))

	g.Slabs.ChhatBarhai.Status = models.WorkCompleted
	assert.Equal(t, 100.0, ComputeProgress(g, 0))
}

func TestComputeProgress_GreyStructureWithoutMembersKeepsCurrent(t *testing.T) {
	assert.Equal(t, 35.0, ComputeProgress(&models.GreyStructureDetails{}, 35))
}

func TestComputeProgress_FinishingAveragesEightComponents(t *testing.T) {
	f := &models.FinishingDetails{
		Walls:      models.Counter{Total: 4, Completed: 4},
		Electrical: models.Electrical{WiringStatus: models.WorkCompleted},
		Plumbing:   models.Plumbing{Status: models.WorkInProgress},
	}
	// 100 + 100 + 50 over 8 components
	assert.Equal(t, 31.25, ComputeProgress(f, 90))
}

func TestComputeProgress_OtherPhasesClampCurrent(t *testing.T) {
	assert.Equal(t, 40.0, ComputeProgress(&models.RaftDetails{}, 40))
	assert.Equal(t, 100.0, ComputeProgress(&models.PilingDetails{}, 140))
	assert.Equal(t, 0.0, ComputeProgress(&models.PlinthDetails{}, -3))
}

func TestApplyPhaseStatus(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	p := &models.ConstructionPhase{Phase: models.PhaseRaft, Status: models.PhasePending, Progress: 20}

	ApplyPhaseStatus(p, models.PhaseInProgress, start)
	assert.Equal(t, start, *p.StartDate)

	ApplyPhaseStatus(p, models.PhaseInProgress, start.Add(48*time.Hour))
	assert.Equal(t, start, *p.StartDate, "start date is set only once")

	ApplyPhaseStatus(p, models.PhaseCompleted, start.Add(10*24*time.Hour+time.Hour))
	assert.Equal(t, models.PhaseCompleted, p.Status)
	assert.Equal(t, 100.0, p.Progress)
	if assert.NotNil(t, p.ActualDuration) {
		assert.Equal(t, 11, *p.ActualDuration)
	}
	assert.NotNil(t, p.CompletionDate)
}

func TestApplyPhaseStatus_CompletedWithoutStart(t *testing.T) {
	p := &models.ConstructionPhase{Phase: models.PhasePiling}
	ApplyPhaseStatus(p, models.PhaseCompleted, time.Now())
	assert.Equal(t, 100.0, p.Progress)
	assert.Nil(t, p.ActualDuration)
}

func TestPhaseLabel(t *testing.T) {
	p := &models.ConstructionPhase{Phase: models.PhaseGreyStructure, Floor: 2}
	assert.Equal(t, "grey-structure - Floor 2", PhaseLabel(p))
	assert.Equal(t, "grey-structure-Floor2", PhaseKey(p))
}
