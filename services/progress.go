package services

import (
	"math"
	"strconv"
	"time"

	"buildtrack/models"
)

// finishingComponents is the fixed divisor of the finishing average.
const finishingComponents = 8

// ComputeProgress derives a phase's progress from its details. current is the
// stored (or explicitly supplied) progress, used by phase types without a
// derived formula and by grey-structure when no members are counted yet.
func ComputeProgress(d models.PhaseDetails, current float64) float64 {
	switch v := d.(type) {
	case *models.GreyStructureDetails:
		return greyStructureProgress(v, current)
	case *models.FinishingDetails:
		return finishingProgress(v)
	case *models.PilingDetails, *models.RaftDetails, *models.PlinthDetails,
		*models.ElevationDetails, *models.FinalChecksDetails:
		return clampProgress(current)
	default:
		return clampProgress(current)
	}
}

func greyStructureProgress(g *models.GreyStructureDetails, current float64) float64 {
	if g.Slabs.ChhatBarhai.Status == models.WorkCompleted {
		return 100
	}
	total := g.Columns.Total + g.Beams.Total
	if total <= 0 {
		return clampProgress(current)
	}
	done := g.Columns.Completed + g.Beams.Completed
	return clampProgress(100 * float64(done) / float64(total))
}

func finishingProgress(f *models.FinishingDetails) float64 {
	sum := ratioScore(f.Walls.Completed, f.Walls.Total) +
		statusScore(f.Electrical.WiringStatus) +
		statusScore(f.Plumbing.Status) +
		statusScore(f.GasLines.Status) +
		ratioScore(f.DoorFrames.Installed, f.DoorFrames.Total) +
		statusScore(f.Plastering.Status) +
		statusScore(f.Painting.Status) +
		statusScore(f.Tiling.Status)
	return clampProgress(sum / finishingComponents)
}

func statusScore(s models.WorkStatus) float64 {
	switch s {
	case models.WorkCompleted:
		return 100
	case models.WorkInProgress:
		return 50
	default:
		return 0
	}
}

func ratioScore(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return clampProgress(100 * float64(done) / float64(total))
}

func clampProgress(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// ApplyPhaseStatus moves a phase to status at time now and fills in the derived
// fields: the start date on the first move to in-progress, and completion
// date, full progress and actual duration on completion.
func ApplyPhaseStatus(p *models.ConstructionPhase, status models.PhaseStatus, now time.Time) {
	p.Status = status
	switch status {
	case models.PhaseInProgress:
		if p.StartDate == nil {
			start := now
			p.StartDate = &start
		}
	case models.PhaseCompleted:
		done := now
		p.CompletionDate = &done
		p.Progress = 100
		if p.StartDate != nil {
			days := CeilDays(done.Sub(*p.StartDate))
			p.ActualDuration = &days
		}
	}
}

// CeilDays rounds a duration up to whole days.
func CeilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}

// PhaseLabel renders the display label used by timelines and site tags.
func PhaseLabel(p *models.ConstructionPhase) string {
	return string(p.Phase) + " - Floor " + strconv.Itoa(p.Floor)
}
