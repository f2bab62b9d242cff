package repository

import (
	"context"
	"fmt"
	"time"

	"buildtrack/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProjectFilter narrows ListProjects. A nil IDs slice means no id restriction;
// an empty non-nil slice matches nothing.
type ProjectFilter struct {
	Status models.ProjectStatus
	IDs    []string
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	if err := s.conn(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := s.conn(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListProjects returns projects newest first.
func (s *Store) ListProjects(ctx context.Context, f ProjectFilter) ([]models.Project, error) {
	if f.IDs != nil && len(f.IDs) == 0 {
		return []models.Project{}, nil
	}
	q := s.conn(ctx).Model(&models.Project{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.IDs != nil {
		q = q.Where("id IN ?", f.IDs)
	}
	var out []models.Project
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

// SaveProject writes every column except spent_amount, which only moves through
// AddSpent and SetSpent.
func (s *Store) SaveProject(ctx context.Context, p *models.Project) error {
	res := s.conn(ctx).Model(p).Select("*").Omit("spent_amount", "created_at", "created_by").Updates(p)
	if res.Error != nil {
		return fmt.Errorf("save project: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateProjectStatus(ctx context.Context, id string, status models.ProjectStatus) error {
	res := s.conn(ctx).Model(&models.Project{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("update project status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddSpent adjusts spent_amount by delta in a single UPDATE.
func (s *Store) AddSpent(ctx context.Context, projectID string, delta float64) error {
	if delta == 0 {
		return nil
	}
	res := s.conn(ctx).Model(&models.Project{}).Where("id = ?", projectID).
		UpdateColumn("spent_amount", gorm.Expr("spent_amount + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("adjust spent amount: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSpent overwrites spent_amount. Used by reconciliation only.
func (s *Store) SetSpent(ctx context.Context, projectID string, amount float64) error {
	res := s.conn(ctx).Model(&models.Project{}).Where("id = ?", projectID).
		UpdateColumn("spent_amount", amount)
	if res.Error != nil {
		return fmt.Errorf("set spent amount: %w", res.Error)
	}
	return nil
}

// TouchBOQ sets boq.lastUpdated on the project's BOQ metadata.
func (s *Store) TouchBOQ(ctx context.Context, projectID string, at time.Time) error {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	meta := p.BOQ.Data()
	if meta.CreatedDate == nil {
		meta.CreatedDate = &at
	}
	meta.LastUpdated = &at
	p.BOQ = datatypes.NewJSONType(meta)
	if err := s.conn(ctx).Model(&models.Project{}).Where("id = ?", projectID).
		UpdateColumn("boq", p.BOQ).Error; err != nil {
		return fmt.Errorf("touch boq: %w", err)
	}
	return nil
}

// ProjectIDs returns the id of every project.
func (s *Store) ProjectIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.conn(ctx).Model(&models.Project{}).Order("created_at").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list project ids: %w", err)
	}
	return ids, nil
}
