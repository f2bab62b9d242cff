package repository

import (
	"context"
	"fmt"

	"buildtrack/models"

	"gorm.io/gorm"
)

func (s *Store) SaveActivityLog(ctx context.Context, entry *models.ActivityLog) error {
	if err := s.conn(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("save activity log: %w", err)
	}
	return nil
}

// ListActivityLogs pages through a project's audit trail, newest first.
func (s *Store) ListActivityLogs(ctx context.Context, projectID string, page, limit int) ([]models.ActivityLog, int64, error) {
	scope := func() *gorm.DB {
		return s.conn(ctx).Model(&models.ActivityLog{}).Where("project_id = ?", projectID)
	}
	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count activity logs: %w", err)
	}
	var out []models.ActivityLog
	if err := scope().Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list activity logs: %w", err)
	}
	return out, total, nil
}
