package services

import (
	"context"
	"fmt"
	"time"

	"buildtrack/models"
	"buildtrack/repository"

	"github.com/sirupsen/logrus"
)

// Activity is one audit-trail entry before it is stamped with the caller.
type Activity struct {
	Context     string
	Name        string
	Description string
	ProjectID   string
	EntityID    string
}

// ActivityService writes and pages the per-project audit trail.
type ActivityService struct {
	store *repository.Store
	log   *logrus.Logger
	now   func() time.Time
}

func NewActivityService(store *repository.Store, log *logrus.Logger) *ActivityService {
	return &ActivityService{store: store, log: log, now: time.Now}
}

// Record saves an entry for c. A failed write is logged and otherwise ignored so
// that the audit trail never fails the operation it describes.
func (s *ActivityService) Record(ctx context.Context, c Caller, a Activity) {
	if s == nil {
		return
	}
	entry := &models.ActivityLog{
		CreatedAt:    s.now(),
		UserID:       c.UserID,
		UserName:     c.Name,
		EventContext: a.Context,
		EventName:    a.Name,
		Description:  a.Description,
		IPAddress:    c.IPAddress,
		ProjectID:    a.ProjectID,
		EntityID:     a.EntityID,
	}
	if err := s.store.SaveActivityLog(ctx, entry); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":   a.Name,
			"project": a.ProjectID,
		}).Warn("activity log not saved")
	}
}

// List pages a project's trail, newest first. page and limit fall back to 1 and 20.
func (s *ActivityService) List(ctx context.Context, c Caller, projectID string, page, limit int) ([]models.ActivityLog, int64, error) {
	if err := CheckProjectAccess(c, projectID); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	logs, total, err := s.store.ListActivityLogs(ctx, projectID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}
	return logs, total, nil
}
