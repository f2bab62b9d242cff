package repository

import (
	"context"
	"fmt"
	"time"

	"buildtrack/models"
)

func (s *Store) CreatePhases(ctx context.Context, phases []models.ConstructionPhase) error {
	if len(phases) == 0 {
		return nil
	}
	if err := s.conn(ctx).Omit("CubeTests", "EngineerInspections", "Issues", "Photos").Create(&phases).Error; err != nil {
		return fmt.Errorf("create phases: %w", err)
	}
	return nil
}

func (s *Store) CreatePhase(ctx context.Context, p *models.ConstructionPhase) error {
	if err := s.conn(ctx).Omit("CubeTests", "EngineerInspections", "Issues", "Photos").Create(p).Error; err != nil {
		return fmt.Errorf("create phase: %w", err)
	}
	return nil
}

// GetPhase loads a phase with its append-only child lists.
func (s *Store) GetPhase(ctx context.Context, id string) (*models.ConstructionPhase, error) {
	var p models.ConstructionPhase
	err := s.conn(ctx).
		Preload("CubeTests", orderBy("test_date")).
		Preload("EngineerInspections", orderBy("inspection_date")).
		Preload("Issues", orderBy("date")).
		Preload("Photos", orderBy("upload_date")).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListPhases returns a project's phases ordered by floor, then creation time.
// Child lists are loaded when withChildren is set.
func (s *Store) ListPhases(ctx context.Context, projectID string, withChildren bool) ([]models.ConstructionPhase, error) {
	q := s.conn(ctx).Where("project_id = ?", projectID)
	if withChildren {
		q = q.Preload("CubeTests", orderBy("test_date")).
			Preload("EngineerInspections", orderBy("inspection_date")).
			Preload("Issues", orderBy("date")).
			Preload("Photos", orderBy("upload_date"))
	}
	var out []models.ConstructionPhase
	if err := q.Order("floor ASC").Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	return out, nil
}

// SavePhase writes the phase's own columns. Child lists are never rewritten.
func (s *Store) SavePhase(ctx context.Context, p *models.ConstructionPhase) error {
	res := s.conn(ctx).Model(p).Select("*").
		Omit("project_id", "created_at", "CubeTests", "EngineerInspections", "Issues", "Photos").
		Updates(p)
	if res.Error != nil {
		return fmt.Errorf("save phase: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AddCubeTest(ctx context.Context, t *models.CubeTest) error {
	if err := s.conn(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("add cube test: %w", err)
	}
	return s.touchPhase(ctx, t.PhaseID)
}

func (s *Store) AddInspection(ctx context.Context, i *models.EngineerInspection) error {
	if err := s.conn(ctx).Create(i).Error; err != nil {
		return fmt.Errorf("add inspection: %w", err)
	}
	return s.touchPhase(ctx, i.PhaseID)
}

func (s *Store) AddIssue(ctx context.Context, i *models.PhaseIssue) error {
	if err := s.conn(ctx).Create(i).Error; err != nil {
		return fmt.Errorf("add issue: %w", err)
	}
	return s.touchPhase(ctx, i.PhaseID)
}

func (s *Store) AddPhotos(ctx context.Context, phaseID string, photos []models.PhasePhoto) error {
	if len(photos) == 0 {
		return nil
	}
	if err := s.conn(ctx).Create(&photos).Error; err != nil {
		return fmt.Errorf("add photos: %w", err)
	}
	return s.touchPhase(ctx, phaseID)
}

// ResolveIssue marks an issue of the given phase resolved.
func (s *Store) ResolveIssue(ctx context.Context, phaseID, issueID string, at time.Time) (*models.PhaseIssue, error) {
	var issue models.PhaseIssue
	if err := s.conn(ctx).First(&issue, "id = ? AND phase_id = ?", issueID, phaseID).Error; err != nil {
		return nil, notFound(err)
	}
	if issue.Resolved {
		return &issue, nil
	}
	issue.Resolved = true
	issue.ResolutionDate = &at
	if err := s.conn(ctx).Model(&issue).Updates(map[string]interface{}{
		"resolved":        true,
		"resolution_date": at,
	}).Error; err != nil {
		return nil, fmt.Errorf("resolve issue: %w", err)
	}
	return &issue, s.touchPhase(ctx, phaseID)
}

// touchPhase bumps updated_at so appended records count as recent activity.
func (s *Store) touchPhase(ctx context.Context, phaseID string) error {
	if err := s.conn(ctx).Model(&models.ConstructionPhase{}).Where("id = ?", phaseID).
		UpdateColumn("updated_at", time.Now()).Error; err != nil {
		return fmt.Errorf("touch phase: %w", err)
	}
	return nil
}
