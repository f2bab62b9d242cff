package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Supplier struct {
	Name    string `json:"name,omitempty" example:"Lucky Cement"`
	Contact string `json:"contact,omitempty"`
}

// BOQItem represents the boq_items table
type BOQItem struct {
	ID               string                       `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	ProjectID        string                       `gorm:"column:project_id;type:varchar(36);not null;index" json:"projectId"`
	Category         BOQCategory                  `gorm:"column:category;not null;index" json:"category" example:"civil"`
	ItemName         string                       `gorm:"column:item_name;not null" json:"itemName" example:"Cement bags"`
	Description      string                       `gorm:"column:description" json:"description,omitempty"`
	Unit             string                       `gorm:"column:unit;not null" json:"unit" example:"bag"`
	Quantity         float64                      `gorm:"column:quantity;not null" json:"quantity" example:"100"`
	RatePerUnit      float64                      `gorm:"column:rate_per_unit;not null" json:"ratePerUnit" example:"1450"`
	TotalAmount      float64                      `gorm:"column:total_amount;not null" json:"totalAmount" example:"145000"`
	Supplier         datatypes.JSONType[Supplier] `gorm:"column:supplier" json:"supplier"`
	OrderedQuantity  float64                      `gorm:"column:ordered_quantity;not null;default:0" json:"orderedQuantity"`
	ReceivedQuantity float64                      `gorm:"column:received_quantity;not null;default:0" json:"receivedQuantity"`
	UsedQuantity     float64                      `gorm:"column:used_quantity;not null;default:0" json:"usedQuantity"`
	Phase            *PhaseType                   `gorm:"column:phase;index" json:"phase,omitempty"`
	Floor            *int                         `gorm:"column:floor" json:"floor,omitempty"`
	Status           BOQStatus                    `gorm:"column:status;not null;default:pending;index" json:"status" example:"pending"`
	OrderDate        *time.Time                   `gorm:"column:order_date" json:"orderDate,omitempty"`
	DeliveryDate     *time.Time                   `gorm:"column:delivery_date" json:"deliveryDate,omitempty"`
	Notes            string                       `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt        time.Time                    `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt        time.Time                    `gorm:"column:updated_at;not null" json:"updatedAt"`
}

// TableName specifies the table name for BOQItem
func (BOQItem) TableName() string {
	return "boq_items"
}

func (b *BOQItem) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// BOQItemInput is the create/update payload. On update nil fields are left unchanged.
type BOQItemInput struct {
	ProjectID        string       `json:"projectId"`
	Category         *BOQCategory `json:"category" binding:"omitempty,oneof=civil electrical plumbing finishing steel concrete labor other"`
	ItemName         *string      `json:"itemName" binding:"omitempty,min=1"`
	Description      *string      `json:"description"`
	Unit             *string      `json:"unit" binding:"omitempty,min=1"`
	Quantity         *float64     `json:"quantity" binding:"omitempty,gte=0"`
	RatePerUnit      *float64     `json:"ratePerUnit" binding:"omitempty,gte=0"`
	Supplier         *Supplier    `json:"supplier"`
	OrderedQuantity  *float64     `json:"orderedQuantity" binding:"omitempty,gte=0"`
	ReceivedQuantity *float64     `json:"receivedQuantity" binding:"omitempty,gte=0"`
	UsedQuantity     *float64     `json:"usedQuantity" binding:"omitempty,gte=0"`
	Phase            *PhaseType   `json:"phase" binding:"omitempty,oneof=piling raft plinth grey-structure finishing elevation final-checks"`
	Floor            *int         `json:"floor" binding:"omitempty,gte=0"`
	OrderDate        *time.Time   `json:"orderDate"`
	DeliveryDate     *time.Time   `json:"deliveryDate"`
	Notes            *string      `json:"notes"`
}

// BOQQuantitiesInput is the payload for PATCH /api/boq/:itemId/quantities.
type BOQQuantitiesInput struct {
	OrderedQuantity  *float64   `json:"orderedQuantity" binding:"omitempty,gte=0"`
	ReceivedQuantity *float64   `json:"receivedQuantity" binding:"omitempty,gte=0"`
	UsedQuantity     *float64   `json:"usedQuantity" binding:"omitempty,gte=0"`
	OrderDate        *time.Time `json:"orderDate"`
	DeliveryDate     *time.Time `json:"deliveryDate"`
}

// CategoryTotal is the per-category rollup returned with BOQ listings.
type CategoryTotal struct {
	Count         int     `json:"count"`
	TotalAmount   float64 `json:"totalAmount"`
	OrderedAmount float64 `json:"orderedAmount"`
}

// CriticalItem is a BOQ line that is running low on remaining quantity.
type CriticalItem struct {
	ID                  string      `json:"id"`
	ItemName            string      `json:"itemName"`
	Category            BOQCategory `json:"category"`
	Unit                string      `json:"unit"`
	RemainingQuantity   float64     `json:"remainingQuantity" example:"15"`
	RemainingPercentage string      `json:"remainingPercentage" example:"15.00"`
}

// BOQCategorySummary is the quantity-stage valuation of one category.
type BOQCategorySummary struct {
	Count    int     `json:"count"`
	Budget   float64 `json:"budget"`
	Ordered  float64 `json:"ordered"`
	Received float64 `json:"received"`
	Used     float64 `json:"used"`
}

type BOQSummary struct {
	TotalItems    int                                `json:"totalItems"`
	TotalBudget   float64                            `json:"totalBudget"`
	OrderedValue  float64                            `json:"orderedValue"`
	ReceivedValue float64                            `json:"receivedValue"`
	UsedValue     float64                            `json:"usedValue"`
	ByCategory    map[BOQCategory]BOQCategorySummary `json:"byCategory"`
	ByStatus      map[BOQStatus]int                  `json:"byStatus"`
	CriticalItems []CriticalItem                     `json:"criticalItems"`
}

// BOQTotals accompanies a BOQ listing.
type BOQTotals struct {
	TotalAmount  float64                       `json:"totalAmount"`
	TotalOrdered float64                       `json:"totalOrdered"`
	Categories   map[BOQCategory]CategoryTotal `json:"categories"`
}
