package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	Address     string       `json:"address" example:"Plot 14, Block 7"`
	City        string       `json:"city" example:"Karachi"`
	Area        string       `json:"area,omitempty" example:"Gulshan-e-Iqbal"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Dimensions struct {
	Length              float64 `json:"length,omitempty"`
	Width               float64 `json:"width,omitempty"`
	IrregularDimensions string  `json:"irregularDimensions,omitempty"`
}

type LandDetails struct {
	Area           float64    `json:"area,omitempty"`
	Dimensions     Dimensions `json:"dimensions"`
	PurchaseAmount float64    `json:"purchaseAmount,omitempty"`
	TransferFees   float64    `json:"transferFees,omitempty"`
	LegalFees      float64    `json:"legalFees,omitempty"`
}

// AcquisitionCost is the land purchase amount plus transfer and legal fees.
func (l LandDetails) AcquisitionCost() float64 {
	return l.PurchaseAmount + l.TransferFees + l.LegalFees
}

type Feasibility struct {
	Status           string     `json:"status,omitempty" example:"pending"`
	CalculatedDate   *time.Time `json:"calculatedDate,omitempty"`
	EstimatedCost    float64    `json:"estimatedCost,omitempty"`
	EstimatedRevenue float64    `json:"estimatedRevenue,omitempty"`
	ROI              float64    `json:"roi,omitempty"`
	Documents        []string   `json:"documents,omitempty"`
}

type LandSurvey struct {
	Status           string     `json:"status,omitempty" example:"pending"`
	SurveyDate       *time.Time `json:"surveyDate,omitempty"`
	SurveyorName     string     `json:"surveyorName,omitempty"`
	SitePlan         string     `json:"sitePlan,omitempty"`
	ActualDimensions string     `json:"actualDimensions,omitempty"`
}

type SoilTest struct {
	Status          string     `json:"status,omitempty" example:"pending"`
	TestDate        *time.Time `json:"testDate,omitempty"`
	PilingRequired  bool       `json:"pilingRequired"`
	Report          string     `json:"report,omitempty"`
	Recommendations string     `json:"recommendations,omitempty"`
}

// Approval is one regulatory step such as plan approval or the sale NOC.
type Approval struct {
	Status        string     `json:"status,omitempty" example:"pending"`
	SubmittedDate *time.Time `json:"submittedDate,omitempty"`
	ApprovedDate  *time.Time `json:"approvedDate,omitempty"`
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
	ReferenceNo   string     `json:"referenceNumber,omitempty"`
	Document      string     `json:"document,omitempty"`
	ProposedPlan  string     `json:"proposedPlan,omitempty"`
	Remarks       string     `json:"remarks,omitempty"`
}

type Approvals struct {
	PlanApproval       Approval `json:"planApproval"`
	SaleNOC            Approval `json:"saleNOC"`
	PlinthVerification Approval `json:"plinthVerification"`
}

// Person is a named consultant or contractor attached to a project.
type Person struct {
	Name           string  `json:"name,omitempty"`
	Company        string  `json:"company,omitempty"`
	Contact        string  `json:"contact,omitempty"`
	Email          string  `json:"email,omitempty"`
	LicenseNumber  string  `json:"licenseNumber,omitempty"`
	ContractAmount float64 `json:"contractAmount,omitempty"`
	ProposedPlan   string  `json:"proposedPlan,omitempty"`
	ContractFile   string  `json:"contractDocument,omitempty"`
}

type Engineer struct {
	Type    string `json:"type" example:"structural"`
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
	Email   string `json:"email,omitempty"`
}

type Supervisor struct {
	Name           string `json:"name"`
	Contact        string `json:"contact,omitempty"`
	AssignedFloors []int  `json:"assignedFloors,omitempty"`
}

// BOQMeta tracks the bill-of-quantities document attached to a project.
type BOQMeta struct {
	CreatedDate   *time.Time `json:"createdDate,omitempty"`
	LastUpdated   *time.Time `json:"lastUpdated,omitempty"`
	Document      string     `json:"document,omitempty"`
	TotalEstimate float64    `json:"totalEstimate,omitempty"`
}

// Project represents the projects table. Nested groups are stored as JSON columns.
type Project struct {
	ID               string                           `gorm:"primaryKey;column:id;type:varchar(36)" json:"id" example:"7b0d2c2e-5f6a-4c55-9a55-3f7a6f1f2b11"`
	Name             string                           `gorm:"column:name;not null" json:"name" example:"Gulshan Residence"`
	Location         datatypes.JSONType[Location]     `gorm:"column:location" json:"location"`
	LandDetails      datatypes.JSONType[LandDetails]  `gorm:"column:land_details" json:"landDetails"`
	Feasibility      datatypes.JSONType[Feasibility]  `gorm:"column:feasibility" json:"feasibility"`
	LandSurvey       datatypes.JSONType[LandSurvey]   `gorm:"column:land_survey" json:"landSurvey"`
	SoilTest         datatypes.JSONType[SoilTest]     `gorm:"column:soil_test" json:"soilTest"`
	Approvals        datatypes.JSONType[Approvals]    `gorm:"column:approvals" json:"approvals"`
	Architect        datatypes.JSONType[Person]       `gorm:"column:architect" json:"architect"`
	Engineers        datatypes.JSONType[[]Engineer]   `gorm:"column:engineers" json:"engineers"`
	BOQ              datatypes.JSONType[BOQMeta]      `gorm:"column:boq" json:"boq"`
	Contractor       datatypes.JSONType[Person]       `gorm:"column:contractor" json:"contractor"`
	Supervisors      datatypes.JSONType[[]Supervisor] `gorm:"column:supervisors" json:"supervisors"`
	Status           ProjectStatus                    `gorm:"column:status;index;not null;default:land-search" json:"status" example:"land-search"`
	StartDate        *time.Time                       `gorm:"column:start_date" json:"startDate,omitempty"`
	EstimatedEndDate *time.Time                       `gorm:"column:estimated_end_date" json:"estimatedEndDate,omitempty"`
	ActualEndDate    *time.Time                       `gorm:"column:actual_end_date" json:"actualEndDate,omitempty"`
	TotalBudget      float64                          `gorm:"column:total_budget;not null;default:0" json:"totalBudget" example:"1000000"`
	SpentAmount      float64                          `gorm:"column:spent_amount;not null;default:0" json:"spentAmount" example:"200000"`
	CreatedBy        string                           `gorm:"column:created_by;type:varchar(36)" json:"createdBy"`
	CreatedAt        time.Time                        `gorm:"column:created_at;not null;index" json:"createdAt"`
	UpdatedAt        time.Time                        `gorm:"column:updated_at;not null" json:"updatedAt"`
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = ProjectLandSearch
	}
	return nil
}

// ProjectInput is the create/update payload. Nil fields are left unchanged on update.
// Spent amount is not accepted here; it is owned by the payment ledger.
type ProjectInput struct {
	Name             *string        `json:"name" binding:"omitempty,min=1,max=200" example:"Gulshan Residence"`
	Location         *Location      `json:"location"`
	LandDetails      *LandDetails   `json:"landDetails"`
	Feasibility      *Feasibility   `json:"feasibility"`
	LandSurvey       *LandSurvey    `json:"landSurvey"`
	SoilTest         *SoilTest      `json:"soilTest"`
	Approvals        *Approvals     `json:"approvals"`
	Architect        *Person        `json:"architect"`
	Engineers        *[]Engineer    `json:"engineers"`
	BOQ              *BOQMeta       `json:"boq"`
	Contractor       *Person        `json:"contractor"`
	Supervisors      *[]Supervisor  `json:"supervisors"`
	Status           *ProjectStatus `json:"status" binding:"omitempty,oneof=land-search feasibility land-survey land-purchase soil-test planning approval-pending construction finishing completed"`
	StartDate        *time.Time     `json:"startDate"`
	EstimatedEndDate *time.Time     `json:"estimatedEndDate"`
	ActualEndDate    *time.Time     `json:"actualEndDate"`
	TotalBudget      *float64       `json:"totalBudget" binding:"omitempty,gte=0" example:"1000000"`
}

type ProjectStatusInput struct {
	Status ProjectStatus `json:"status" binding:"required,oneof=land-search feasibility land-survey land-purchase soil-test planning approval-pending construction finishing completed"`
}
