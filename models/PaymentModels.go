package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment represents the payments table
type Payment struct {
	ID               string          `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	ProjectID        string          `gorm:"column:project_id;type:varchar(36);not null;index" json:"projectId"`
	Type             PaymentType     `gorm:"column:type;not null;index" json:"type" example:"contractor"`
	PaymentTo        string          `gorm:"column:payment_to;not null" json:"paymentTo" example:"Al-Noor Builders"`
	Amount           float64         `gorm:"column:amount;not null" json:"amount" example:"200000"`
	PaymentDate      time.Time       `gorm:"column:payment_date;not null;index" json:"paymentDate"`
	PaymentMethod    PaymentMethod   `gorm:"column:payment_method;not null;default:bank-transfer" json:"paymentMethod" example:"bank-transfer"`
	ReferenceNumber  string          `gorm:"column:reference_number" json:"referenceNumber,omitempty"`
	Description      string          `gorm:"column:description" json:"description,omitempty"`
	Category         PaymentCategory `gorm:"column:category" json:"category,omitempty" example:"capital"`
	RelatedPhaseID   *string         `gorm:"column:related_phase_id;type:varchar(36)" json:"relatedPhase,omitempty"`
	RelatedBOQItemID *string         `gorm:"column:related_boq_item_id;type:varchar(36)" json:"relatedBOQItem,omitempty"`
	Receipt          string          `gorm:"column:receipt" json:"receipt,omitempty"`
	ApprovedBy       *string         `gorm:"column:approved_by;type:varchar(36)" json:"approvedBy,omitempty"`
	Status           PaymentStatus   `gorm:"column:status;not null;default:pending;index" json:"status" example:"pending"`
	Notes            string          `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt        time.Time       `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;not null" json:"updatedAt"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = PaymentPending
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = MethodBankTransfer
	}
	return nil
}

// PaymentInput is the create/update payload. On update nil fields are left unchanged.
type PaymentInput struct {
	ProjectID        string           `json:"projectId"`
	Type             *PaymentType     `json:"type" binding:"omitempty,oneof=land-purchase transfer-fee legal-fee contractor material labor consultant approval-fee other"`
	PaymentTo        *string          `json:"paymentTo" binding:"omitempty,min=1"`
	Amount           *float64         `json:"amount" binding:"omitempty,gte=0"`
	PaymentDate      *time.Time       `json:"paymentDate"`
	PaymentMethod    *PaymentMethod   `json:"paymentMethod" binding:"omitempty,oneof=cash cheque bank-transfer online"`
	ReferenceNumber  *string          `json:"referenceNumber"`
	Description      *string          `json:"description"`
	Category         *PaymentCategory `json:"category" binding:"omitempty,oneof=capital operational material service"`
	RelatedPhaseID   *string          `json:"relatedPhase"`
	RelatedBOQItemID *string          `json:"relatedBOQItem"`
	Status           *PaymentStatus   `json:"status" binding:"omitempty,oneof=pending approved paid cancelled"`
	Notes            *string          `json:"notes"`
}

type MarkPaidInput struct {
	ReferenceNumber string `json:"referenceNumber"`
}

// AmountCount is a count and summed amount for one grouping key.
type AmountCount struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// TypeShare is a per-type rollup with its share of the total.
type TypeShare struct {
	Count      int     `json:"count"`
	Amount     float64 `json:"amount"`
	Percentage string  `json:"percentage" example:"42.50"`
}

// BudgetSummary is the spend position of a project.
type BudgetSummary struct {
	TotalBudget     float64 `json:"totalBudget" example:"1000000"`
	TotalSpent      float64 `json:"totalSpent" example:"200000"`
	RemainingBudget float64 `json:"remainingBudget" example:"800000"`
	Utilization     string  `json:"utilization" example:"20.00"`
}

// CostBreakdown buckets paid amounts by cost head. Total is the sum of the buckets.
type CostBreakdown struct {
	LandAcquisition float64 `json:"landAcquisition"`
	Construction    float64 `json:"construction"`
	Consultants     float64 `json:"consultants"`
	Approvals       float64 `json:"approvals"`
	Others          float64 `json:"others"`
	Total           float64 `json:"total"`
}

// PaymentTotals accompanies a payment listing. Amounts cover every listed payment.
type PaymentTotals struct {
	TotalAmount float64                   `json:"totalAmount"`
	ByType      map[PaymentType]float64   `json:"byType"`
	ByStatus    map[PaymentStatus]float64 `json:"byStatus"`
}

// PaymentSummary is the payload of GET /api/payments/project/:projectId/summary.
type PaymentSummary struct {
	BudgetSummary
	ByType         map[PaymentType]TypeShare     `json:"byType"`
	ByStatus       map[PaymentStatus]AmountCount `json:"byStatus"`
	ByMonth        map[string]float64            `json:"byMonth"`
	RecentPayments []Payment                     `json:"recentPayments"`
}
