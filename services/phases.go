package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"buildtrack/metrics"
	"buildtrack/models"
	"buildtrack/repository"
)

// MaxPhotosPerUpload caps one photo upload request.
const MaxPhotosPerUpload = 10

type PhaseService struct {
	store    *repository.Store
	activity *ActivityService
	now      func() time.Time
}

func NewPhaseService(store *repository.Store, activity *ActivityService) *PhaseService {
	return &PhaseService{store: store, activity: activity, now: time.Now}
}

// List returns a project's phases ordered by floor then creation.
func (s *PhaseService) List(ctx context.Context, c Caller, projectID string) ([]models.ConstructionPhase, error) {
	if err := CheckProjectAccess(c, projectID); err != nil {
		return nil, err
	}
	phases, err := s.store.ListPhases(ctx, projectID, false)
	if err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	return phases, nil
}

func (s *PhaseService) Timeline(ctx context.Context, c Caller, projectID string) ([]models.TimelineEntry, error) {
	phases, err := s.List(ctx, c, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]models.TimelineEntry, len(phases))
	for i := range phases {
		p := &phases[i]
		out[i] = models.TimelineEntry{
			ID:                p.ID,
			Label:             PhaseLabel(p),
			Phase:             p.Phase,
			Floor:             p.Floor,
			Status:            p.Status,
			Progress:          p.Progress,
			StartDate:         p.StartDate,
			CompletionDate:    p.CompletionDate,
			EstimatedDuration: p.EstimatedDuration,
			ActualDuration:    p.ActualDuration,
		}
	}
	return out, nil
}

// Get returns one phase with its cube tests, inspections, issues and photos.
func (s *PhaseService) Get(ctx context.Context, c Caller, phaseID string) (*models.ConstructionPhase, error) {
	p, err := s.store.GetPhase(ctx, phaseID)
	if err != nil {
		return nil, lookupErr(err, "Phase")
	}
	if err := CheckProjectAccess(c, p.ProjectID); err != nil {
		return nil, err
	}
	return p, nil
}

// writable runs the role gate, loads the phase and runs the project gate.
func (s *PhaseService) writable(ctx context.Context, c Caller, phaseID string, roles []models.Role) (*models.ConstructionPhase, error) {
	if err := Authorize(c, roles...); err != nil {
		return nil, err
	}
	p, err := s.store.GetPhase(ctx, phaseID)
	if err != nil {
		return nil, lookupErr(err, "Phase")
	}
	if err := CheckProjectAccess(c, p.ProjectID); err != nil {
		return nil, err
	}
	return p, nil
}

// CheckCreate runs the gates of Create for a phase of projectID.
func (s *PhaseService) CheckCreate(c Caller, projectID string) error {
	if err := Authorize(c, Managers...); err != nil {
		return err
	}
	return CheckProjectAccess(c, projectID)
}

// CheckWrite runs the gates shared by Update, SetStatus and the issue log.
func (s *PhaseService) CheckWrite(ctx context.Context, c Caller, phaseID string) error {
	_, err := s.writable(ctx, c, phaseID, SiteStaff)
	return err
}

// CheckCubeTest, CheckInspection and CheckPhotos run the gates of the
// multipart endpoints before any file is written.
func (s *PhaseService) CheckCubeTest(ctx context.Context, c Caller, phaseID string) error {
	_, err := s.writable(ctx, c, phaseID, SiteStaff)
	return err
}

func (s *PhaseService) CheckInspection(ctx context.Context, c Caller, phaseID string) error {
	_, err := s.writable(ctx, c, phaseID, Managers)
	return err
}

func (s *PhaseService) CheckPhotos(ctx context.Context, c Caller, phaseID string) error {
	_, err := s.writable(ctx, c, phaseID, SiteStaff)
	return err
}

func (s *PhaseService) Create(ctx context.Context, c Caller, in models.PhaseCreateInput) (*models.ConstructionPhase, error) {
	if err := s.CheckCreate(c, in.ProjectID); err != nil {
		return nil, err
	}
	if in.ProjectID == "" {
		return nil, Invalid("projectId", "Project ID is required")
	}
	if _, err := s.store.GetProject(ctx, in.ProjectID); err != nil {
		return nil, lookupErr(err, "Project")
	}

	details, err := models.DecodePhaseDetails(in.Phase, in.Details)
	if err != nil {
		return nil, Invalid("details", err.Error())
	}
	var current float64
	if in.Progress != nil {
		current = *in.Progress
	}
	p := &models.ConstructionPhase{
		ProjectID:         in.ProjectID,
		Phase:             in.Phase,
		Floor:             in.Floor,
		Status:            models.PhasePending,
		StartDate:         in.StartDate,
		EstimatedDuration: in.EstimatedDuration,
		Notes:             in.Notes,
		Progress:          ComputeProgress(details, current),
	}
	if len(in.Details) > 0 {
		if p.Details, err = models.EncodePhaseDetails(details); err != nil {
			return nil, fmt.Errorf("encode details: %w", err)
		}
	}
	if err := s.store.CreatePhase(ctx, p); err != nil {
		return nil, fmt.Errorf("create phase: %w", err)
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "phase",
		Name:        "phase.created",
		Description: "Phase " + PhaseLabel(p) + " created",
		ProjectID:   p.ProjectID,
		EntityID:    p.ID,
	})
	return p, nil
}

// mergeDetails overlays patch onto the stored details of p and returns the result.
func mergeDetails(p *models.ConstructionPhase, patch []byte) (models.PhaseDetails, error) {
	d, err := models.DecodePhaseDetails(p.Phase, p.Details)
	if err != nil {
		return nil, err
	}
	if len(patch) > 0 && string(patch) != "null" {
		if err := json.Unmarshal(patch, d); err != nil {
			return nil, fmt.Errorf("decode %s details: %w", p.Phase, err)
		}
	}
	return d, nil
}

// Update applies the content changes and recomputes progress from the merged details.
func (s *PhaseService) Update(ctx context.Context, c Caller, phaseID string, in models.PhaseUpdateInput) (*models.ConstructionPhase, error) {
	p, err := s.writable(ctx, c, phaseID, SiteStaff)
	if err != nil {
		return nil, err
	}

	details, err := mergeDetails(p, in.Details)
	if err != nil {
		return nil, Invalid("details", err.Error())
	}
	if in.Floor != nil {
		p.Floor = *in.Floor
	}
	if in.EstimatedDuration != nil {
		p.EstimatedDuration = in.EstimatedDuration
	}
	if in.StartDate != nil {
		p.StartDate = in.StartDate
	}
	if in.Notes != nil {
		p.Notes = *in.Notes
	}
	current := p.Progress
	if in.Progress != nil {
		current = *in.Progress
	}
	if len(in.Details) > 0 {
		if p.Details, err = models.EncodePhaseDetails(details); err != nil {
			return nil, fmt.Errorf("encode details: %w", err)
		}
	}
	if p.Status == models.PhaseCompleted {
		p.Progress = 100
	} else {
		p.Progress = ComputeProgress(details, current)
	}

	if err := s.store.SavePhase(ctx, p); err != nil {
		return nil, lookupErr(err, "Phase")
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "phase",
		Name:        "phase.updated",
		Description: fmt.Sprintf("Phase %s updated, progress %.2f", PhaseLabel(p), p.Progress),
		ProjectID:   p.ProjectID,
		EntityID:    p.ID,
	})
	return p, nil
}

// SetStatus transitions the phase; see ApplyPhaseStatus for the derived fields.
func (s *PhaseService) SetStatus(ctx context.Context, c Caller, phaseID string, status models.PhaseStatus) (*models.ConstructionPhase, error) {
	p, err := s.writable(ctx, c, phaseID, SiteStaff)
	if err != nil {
		return nil, err
	}
	from := p.Status
	ApplyPhaseStatus(p, status, s.now())
	if err := s.store.SavePhase(ctx, p); err != nil {
		return nil, lookupErr(err, "Phase")
	}
	metrics.RecordPhaseTransition(string(status))
	s.activity.Record(ctx, c, Activity{
		Context:     "phase",
		Name:        "phase.status",
		Description: fmt.Sprintf("Phase %s moved from %s to %s", PhaseLabel(p), from, status),
		ProjectID:   p.ProjectID,
		EntityID:    p.ID,
	})
	return p, nil
}

// AddCubeTest appends a cube test. reportPath is empty when no report was uploaded.
func (s *PhaseService) AddCubeTest(ctx context.Context, c Caller, phaseID string, in models.CubeTestInput, reportPath string) (*models.CubeTest, error) {
	p, err := s.writable(ctx, c, phaseID, SiteStaff)
	if err != nil {
		return nil, err
	}
	t := &models.CubeTest{
		PhaseID:        p.ID,
		TestDate:       s.now(),
		SampleLocation: in.SampleLocation,
		Strength:       in.Strength,
		Result:         in.Result,
		Report:         reportPath,
	}
	if in.TestDate != nil {
		t.TestDate = *in.TestDate
	}
	if err := s.store.AddCubeTest(ctx, t); err != nil {
		return nil, fmt.Errorf("add cube test: %w", err)
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "phase",
		Name:        "phase.cube_test",
		Description: fmt.Sprintf("Cube test (%s) recorded on %s", t.Result, PhaseLabel(p)),
		ProjectID:   p.ProjectID,
		EntityID:    p.ID,
	})
	return t, nil
}

func (s *PhaseService) AddInspection(ctx context.Context, c Caller, phaseID string, in models.InspectionInput, reportPath string) (*models.EngineerInspection, error) {
	p, err := s.writable(ctx, c, phaseID, Managers)
	if err != nil {
		return nil, err
	}
	insp := &models.EngineerInspection{
		PhaseID:        p.ID,
		InspectionDate: s.now(),
		EngineerType:   in.EngineerType,
		EngineerName:   in.EngineerName,
		Findings:       in.Findings,
		Approved:       in.Approved == "true",
		Report:         reportPath,
	}
	if in.Date != nil {
		insp.InspectionDate = *in.Date
	}
	if err := s.store.AddInspection(ctx, insp); err != nil {
		return nil, fmt.Errorf("add inspection: %w", err)
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "phase",
		Name:        "phase.inspection",
		Description: fmt.Sprintf("%s inspection recorded on %s", insp.EngineerType, PhaseLabel(p)),
		ProjectID:   p.ProjectID,
		EntityID:    p.ID,
	})
	return insp, nil
}

// AddPhotos appends up to MaxPhotosPerUpload photos sharing one caption.
func (s *PhaseService) AddPhotos(ctx context.Context, c Caller, phaseID string, paths []string, caption string) ([]models.PhasePhoto, error) {
	p, err := s.writable(ctx, c, phaseID, SiteStaff)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, Invalid("photos", "At least one photo is required")
	}
	if len(paths) > MaxPhotosPerUpload {
		return nil, Invalid("photos", fmt.Sprintf("At most %d photos per upload", MaxPhotosPerUpload))
	}
	now := s.now()
	photos := make([]models.PhasePhoto, len(paths))
	for i, path := range paths {
		photos[i] = models.PhasePhoto{PhaseID: p.ID, URL: path, Caption: caption, UploadDate: now}
	}
	if err := s.store.AddPhotos(ctx, p.ID, photos); err != nil {
		return nil, fmt.Errorf("add photos: %w", err)
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "phase",
		Name:        "phase.photos",
		Description: fmt.Sprintf("%d photo(s) added to %s", len(photos), PhaseLabel(p)),
		ProjectID:   p.ProjectID,
		EntityID:    p.ID,
	})
	return photos, nil
}

func (s *PhaseService) AddIssue(ctx context.Context, c Caller, phaseID string, in models.IssueInput) (*models.PhaseIssue, error) {
	p, err := s.writable(ctx, c, phaseID, SiteStaff)
	if err != nil {
		return nil, err
	}
	issue := &models.PhaseIssue{PhaseID: p.ID, Date: s.now(), Description: in.Description}
	if in.Date != nil {
		issue.Date = *in.Date
	}
	if err := s.store.AddIssue(ctx, issue); err != nil {
		return nil, fmt.Errorf("add issue: %w", err)
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "phase",
		Name:        "phase.issue",
		Description: "Issue raised on " + PhaseLabel(p),
		ProjectID:   p.ProjectID,
		EntityID:    issue.ID,
	})
	return issue, nil
}

func (s *PhaseService) ResolveIssue(ctx context.Context, c Caller, phaseID, issueID string) (*models.PhaseIssue, error) {
	p, err := s.writable(ctx, c, phaseID, SiteStaff)
	if err != nil {
		return nil, err
	}
	issue, err := s.store.ResolveIssue(ctx, p.ID, issueID, s.now())
	if err != nil {
		return nil, lookupErr(err, "Issue")
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "phase",
		Name:        "phase.issue_resolved",
		Description: "Issue resolved on " + PhaseLabel(p),
		ProjectID:   p.ProjectID,
		EntityID:    issue.ID,
	})
	return issue, nil
}
