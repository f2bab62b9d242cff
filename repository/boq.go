package repository

import (
	"context"
	"fmt"

	"buildtrack/models"
)

type BOQFilter struct {
	Category models.BOQCategory
	Status   models.BOQStatus
	Phase    models.PhaseType
}

func (s *Store) CreateBOQItem(ctx context.Context, item *models.BOQItem) error {
	if err := s.conn(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create boq item: %w", err)
	}
	return nil
}

func (s *Store) GetBOQItem(ctx context.Context, id string) (*models.BOQItem, error) {
	var item models.BOQItem
	if err := s.conn(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

// ListBOQItems returns a project's items ordered by category, then name.
func (s *Store) ListBOQItems(ctx context.Context, projectID string, f BOQFilter) ([]models.BOQItem, error) {
	q := s.conn(ctx).Where("project_id = ?", projectID)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Phase != "" {
		q = q.Where("phase = ?", f.Phase)
	}
	var out []models.BOQItem
	if err := q.Order("category ASC").Order("item_name ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list boq items: %w", err)
	}
	return out, nil
}

func (s *Store) SaveBOQItem(ctx context.Context, item *models.BOQItem) error {
	res := s.conn(ctx).Model(item).Select("*").Omit("project_id", "created_at").Updates(item)
	if res.Error != nil {
		return fmt.Errorf("save boq item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteBOQItem(ctx context.Context, id string) error {
	res := s.conn(ctx).Delete(&models.BOQItem{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete boq item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
