package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"buildtrack/metrics"
	"buildtrack/models"
	"buildtrack/repository"
)

const recentPaymentsLimit = 10

type PaymentService struct {
	store    *repository.Store
	activity *ActivityService
	now      func() time.Time
}

func NewPaymentService(store *repository.Store, activity *ActivityService) *PaymentService {
	return &PaymentService{store: store, activity: activity, now: time.Now}
}

// List returns the filtered payments of a project, latest first, with totals.
func (s *PaymentService) List(ctx context.Context, c Caller, projectID string, f repository.PaymentFilter) ([]models.Payment, models.PaymentTotals, error) {
	if err := CheckProjectAccess(c, projectID); err != nil {
		return nil, models.PaymentTotals{}, err
	}
	payments, err := s.store.ListPayments(ctx, projectID, f)
	if err != nil {
		return nil, models.PaymentTotals{}, fmt.Errorf("list payments: %w", err)
	}
	totals := models.PaymentTotals{
		TotalAmount: SumAmounts(payments),
		ByType:      make(map[models.PaymentType]float64),
		ByStatus:    make(map[models.PaymentStatus]float64),
	}
	for _, p := range payments {
		totals.ByType[p.Type] += p.Amount
		totals.ByStatus[p.Status] += p.Amount
	}
	return payments, totals, nil
}

// Summary reports the budget position from paid payments plus the ten most
// recent payments of any status.
func (s *PaymentService) Summary(ctx context.Context, c Caller, projectID string) (*models.PaymentSummary, error) {
	if err := CheckProjectAccess(c, projectID); err != nil {
		return nil, err
	}
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, lookupErr(err, "Project")
	}
	all, err := s.store.ListPayments(ctx, projectID, repository.PaymentFilter{})
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	paid := PaidOnly(all)
	return &models.PaymentSummary{
		BudgetSummary:  SummarizeBudget(project.TotalBudget, paid),
		ByType:         TypeShares(paid),
		ByStatus:       TotalsByStatus(all),
		ByMonth:        TotalsByMonth(paid),
		RecentPayments: RecentPayments(all, recentPaymentsLimit),
	}, nil
}

func (s *PaymentService) Get(ctx context.Context, c Caller, paymentID string) (*models.Payment, error) {
	p, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, lookupErr(err, "Payment")
	}
	if err := CheckProjectAccess(c, p.ProjectID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PaymentService) writable(ctx context.Context, c Caller, paymentID string, roles []models.Role) (*models.Payment, error) {
	if err := Authorize(c, roles...); err != nil {
		return nil, err
	}
	p, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, lookupErr(err, "Payment")
	}
	if err := CheckProjectAccess(c, p.ProjectID); err != nil {
		return nil, err
	}
	return p, nil
}

func validateNewPayment(in models.PaymentInput) *ValidationError {
	var fields []FieldError
	if in.ProjectID == "" {
		fields = append(fields, FieldError{Field: "projectId", Message: "Project ID is required"})
	}
	if in.Type == nil || *in.Type == "" {
		fields = append(fields, FieldError{Field: "type", Message: "Payment type is required"})
	}
	if in.PaymentTo == nil || strings.TrimSpace(*in.PaymentTo) == "" {
		fields = append(fields, FieldError{Field: "paymentTo", Message: "Payee is required"})
	}
	if in.Amount == nil {
		fields = append(fields, FieldError{Field: "amount", Message: "Amount must be a number"})
	}
	if in.PaymentDate == nil || in.PaymentDate.IsZero() {
		fields = append(fields, FieldError{Field: "paymentDate", Message: "Valid payment date is required"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func applyPaymentInput(p *models.Payment, in models.PaymentInput) {
	if in.Type != nil {
		p.Type = *in.Type
	}
	if in.PaymentTo != nil {
		p.PaymentTo = strings.TrimSpace(*in.PaymentTo)
	}
	if in.Amount != nil {
		p.Amount = *in.Amount
	}
	if in.PaymentDate != nil {
		p.PaymentDate = *in.PaymentDate
	}
	if in.PaymentMethod != nil {
		p.PaymentMethod = *in.PaymentMethod
	}
	if in.ReferenceNumber != nil {
		p.ReferenceNumber = *in.ReferenceNumber
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.RelatedPhaseID != nil {
		p.RelatedPhaseID = nonEmpty(*in.RelatedPhaseID)
	}
	if in.RelatedBOQItemID != nil {
		p.RelatedBOQItemID = nonEmpty(*in.RelatedBOQItemID)
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Notes != nil {
		p.Notes = *in.Notes
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// commit writes a new payment and moves the project's spent amount by delta in one transaction.
func (s *PaymentService) commit(ctx context.Context, projectID string, delta float64, write func(tx *repository.Store) error) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := write(tx); err != nil {
			return err
		}
		return tx.AddSpent(ctx, projectID, delta)
	})
}

// transition locks the stored payment, lets change edit it, saves it and
// moves the spent amount by the ledger delta between the locked row and the
// result. It returns the saved payment and its status before the change.
func (s *PaymentService) transition(ctx context.Context, paymentID string, change func(p *models.Payment) error) (*models.Payment, models.PaymentStatus, error) {
	var (
		out  *models.Payment
		from models.PaymentStatus
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		p, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		oldStatus, oldAmount := p.Status, p.Amount
		if err := change(p); err != nil {
			return err
		}
		if err := tx.SavePayment(ctx, p); err != nil {
			return err
		}
		if err := tx.AddSpent(ctx, p.ProjectID, SpentDelta(oldStatus, oldAmount, p.Status, p.Amount)); err != nil {
			return err
		}
		out, from = p, oldStatus
		return nil
	})
	if err != nil {
		return nil, "", lookupErr(err, "Payment")
	}
	return out, from, nil
}

// CheckCreate runs the gates of Create for a payment against projectID.
func (s *PaymentService) CheckCreate(c Caller, projectID string) error {
	if err := Authorize(c, Managers...); err != nil {
		return err
	}
	return CheckProjectAccess(c, projectID)
}

// CheckWrite runs the gates shared by Update, Approve and MarkPaid.
func (s *PaymentService) CheckWrite(ctx context.Context, c Caller, paymentID string) error {
	_, err := s.writable(ctx, c, paymentID, Managers)
	return err
}

func (s *PaymentService) Create(ctx context.Context, c Caller, in models.PaymentInput) (*models.Payment, error) {
	if err := s.CheckCreate(c, in.ProjectID); err != nil {
		return nil, err
	}
	if verr := validateNewPayment(in); verr != nil {
		return nil, verr
	}
	if _, err := s.store.GetProject(ctx, in.ProjectID); err != nil {
		return nil, lookupErr(err, "Project")
	}

	p := &models.Payment{ProjectID: in.ProjectID, Status: models.PaymentPending, PaymentMethod: models.MethodBankTransfer}
	applyPaymentInput(p, in)
	err := s.commit(ctx, p.ProjectID, CreateDelta(p), func(tx *repository.Store) error {
		return tx.CreatePayment(ctx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	metrics.RecordPaymentTransition(string(p.Status), p.Amount)
	s.activity.Record(ctx, c, Activity{
		Context:     "payment",
		Name:        "payment.created",
		Description: fmt.Sprintf("Payment of %.2f to %s recorded (%s)", p.Amount, p.PaymentTo, p.Status),
		ProjectID:   p.ProjectID,
		EntityID:    p.ID,
	})
	return p, nil
}

// Update applies in and moves the spent amount by the ledger delta of the change.
func (s *PaymentService) Update(ctx context.Context, c Caller, paymentID string, in models.PaymentInput) (*models.Payment, error) {
	if err := s.CheckWrite(ctx, c, paymentID); err != nil {
		return nil, err
	}
	if in.PaymentTo != nil && strings.TrimSpace(*in.PaymentTo) == "" {
		return nil, Invalid("paymentTo", "Payee is required")
	}
	p, from, err := s.transition(ctx, paymentID, func(p *models.Payment) error {
		applyPaymentInput(p, in)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if from != p.Status {
		metrics.RecordPaymentTransition(string(p.Status), p.Amount)
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "payment",
		Name:        "payment.updated",
		Description: fmt.Sprintf("Payment to %s updated (%s)", p.PaymentTo, p.Status),
		ProjectID:   p.ProjectID,
		EntityID:    p.ID,
	})
	return p, nil
}

// AttachReceipt records a stored receipt file against the payment.
func (s *PaymentService) AttachReceipt(ctx context.Context, c Caller, paymentID, path string) (*models.Payment, error) {
	if err := s.CheckWrite(ctx, c, paymentID); err != nil {
		return nil, err
	}
	p, _, err := s.transition(ctx, paymentID, func(p *models.Payment) error {
		p.Receipt = path
		return nil
	})
	return p, err
}

// Approve moves a pending payment to approved and records the approver.
func (s *PaymentService) Approve(ctx context.Context, c Caller, paymentID string) (*models.Payment, error) {
	if err := s.CheckWrite(ctx, c, paymentID); err != nil {
		return nil, err
	}
	p, _, err := s.transition(ctx, paymentID, func(p *models.Payment) error {
		if p.Status != models.PaymentPending {
			return ruleErr("Only pending payments can be approved")
		}
		approver := c.UserID
		p.Status = models.PaymentApproved
		p.ApprovedBy = &approver
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordPaymentTransition(string(p.Status), p.Amount)
	s.activity.Record(ctx, c, Activity{
		Context:     "payment",
		Name:        "payment.approved",
		Description: fmt.Sprintf("Payment of %.2f to %s approved", p.Amount, p.PaymentTo),
		ProjectID:   p.ProjectID,
		EntityID:    p.ID,
	})
	return p, nil
}

// MarkPaid settles an approved (or cancelled) payment and adds it to the spent amount.
// The status check runs against the locked row, so of two concurrent calls only one pays.
func (s *PaymentService) MarkPaid(ctx context.Context, c Caller, paymentID string, in models.MarkPaidInput) (*models.Payment, error) {
	if err := s.CheckWrite(ctx, c, paymentID); err != nil {
		return nil, err
	}
	p, _, err := s.transition(ctx, paymentID, func(p *models.Payment) error {
		switch p.Status {
		case models.PaymentPending:
			return ruleErr("Payment must be approved first")
		case models.PaymentPaid:
			return ruleErr("Payment is already marked as paid")
		}
		p.Status = models.PaymentPaid
		if in.ReferenceNumber != "" {
			p.ReferenceNumber = in.ReferenceNumber
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordPaymentTransition(string(p.Status), p.Amount)
	s.activity.Record(ctx, c, Activity{
		Context:     "payment",
		Name:        "payment.paid",
		Description: fmt.Sprintf("Payment of %.2f to %s marked as paid", p.Amount, p.PaymentTo),
		ProjectID:   p.ProjectID,
		EntityID:    p.ID,
	})
	return p, nil
}

// Delete removes the payment, taking it back out of the spent amount if it was paid.
func (s *PaymentService) Delete(ctx context.Context, c Caller, paymentID string) error {
	if _, err := s.writable(ctx, c, paymentID, AdminOnly); err != nil {
		return err
	}
	var p *models.Payment
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		locked, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := tx.DeletePayment(ctx, locked.ID); err != nil {
			return err
		}
		p = locked
		return tx.AddSpent(ctx, locked.ProjectID, DeleteDelta(locked))
	})
	if err != nil {
		return lookupErr(err, "Payment")
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "payment",
		Name:        "payment.deleted",
		Description: fmt.Sprintf("Payment of %.2f to %s deleted", p.Amount, p.PaymentTo),
		ProjectID:   p.ProjectID,
		EntityID:    p.ID,
	})
	return nil
}
