package repository

import (
	"context"
	"fmt"
	"time"

	"buildtrack/models"

	"gorm.io/gorm/clause"
)

// PaymentFilter narrows ListPayments. From and To bound payment_date inclusively.
type PaymentFilter struct {
	Type     models.PaymentType
	Status   models.PaymentStatus
	From     *time.Time
	To       *time.Time
	Upcoming *time.Time
	Limit    int
}

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	if err := s.conn(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	if err := s.conn(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// LockPayment reads a payment and holds its row lock until the surrounding
// transaction ends. SQLite has no row locks and serializes writers instead.
func (s *Store) LockPayment(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	err := s.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListPayments returns a project's payments, most recent payment date first.
// When Upcoming is set the order is reversed so the nearest dates come first.
func (s *Store) ListPayments(ctx context.Context, projectID string, f PaymentFilter) ([]models.Payment, error) {
	q := s.conn(ctx).Where("project_id = ?", projectID)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("payment_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("payment_date <= ?", *f.To)
	}
	if f.Upcoming != nil {
		q = q.Where("payment_date >= ?", *f.Upcoming).Order("payment_date ASC")
	} else {
		q = q.Order("payment_date DESC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []models.Payment
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}

func (s *Store) SavePayment(ctx context.Context, p *models.Payment) error {
	res := s.conn(ctx).Model(p).Select("*").Omit("project_id", "created_at").Updates(p)
	if res.Error != nil {
		return fmt.Errorf("save payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeletePayment(ctx context.Context, id string) error {
	res := s.conn(ctx).Delete(&models.Payment{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SumPaid totals the amount of a project's paid payments.
func (s *Store) SumPaid(ctx context.Context, projectID string) (float64, error) {
	var total float64
	err := s.conn(ctx).Model(&models.Payment{}).
		Where("project_id = ? AND status = ?", projectID, models.PaymentPaid).
		Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum paid payments: %w", err)
	}
	return total, nil
}
