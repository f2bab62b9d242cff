package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ConstructionPhase represents the construction_phases table. Details holds the
// phase-specific document; see PhaseDetails for the variant stored per phase type.
type ConstructionPhase struct {
	ID                  string               `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	ProjectID           string               `gorm:"column:project_id;type:varchar(36);not null;index" json:"projectId"`
	Phase               PhaseType            `gorm:"column:phase;not null" json:"phase" example:"grey-structure"`
	Floor               int                  `gorm:"column:floor;not null;default:0" json:"floor" example:"1"`
	Status              PhaseStatus          `gorm:"column:status;not null;default:pending;index" json:"status" example:"pending"`
	Progress            float64              `gorm:"column:progress;not null;default:0" json:"progress" example:"50"`
	StartDate           *time.Time           `gorm:"column:start_date" json:"startDate,omitempty"`
	CompletionDate      *time.Time           `gorm:"column:completion_date" json:"completionDate,omitempty"`
	EstimatedDuration   *int                 `gorm:"column:estimated_duration" json:"estimatedDuration,omitempty" example:"30"`
	ActualDuration      *int                 `gorm:"column:actual_duration" json:"actualDuration,omitempty"`
	Notes               string               `gorm:"column:notes" json:"notes,omitempty"`
	Details             datatypes.JSON       `gorm:"column:details" json:"details,omitempty" swaggertype:"object"`
	CubeTests           []CubeTest           `gorm:"foreignKey:PhaseID" json:"cubeTests"`
	EngineerInspections []EngineerInspection `gorm:"foreignKey:PhaseID" json:"engineerInspections"`
	Issues              []PhaseIssue         `gorm:"foreignKey:PhaseID" json:"issues"`
	Photos              []PhasePhoto         `gorm:"foreignKey:PhaseID" json:"photos"`
	CreatedAt           time.Time            `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt           time.Time            `gorm:"column:updated_at;not null;index" json:"updatedAt"`
}

// TableName specifies the table name for ConstructionPhase
func (ConstructionPhase) TableName() string {
	return "construction_phases"
}

func (p *ConstructionPhase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = PhasePending
	}
	return nil
}

type CubeTestResult string

const (
	CubeTestPass CubeTestResult = "pass"
	CubeTestFail CubeTestResult = "fail"
)

// CubeTest is a concrete cube-strength test recorded against a phase.
type CubeTest struct {
	ID             string         `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	PhaseID        string         `gorm:"column:phase_id;type:varchar(36);not null;index" json:"phaseId"`
	TestDate       time.Time      `gorm:"column:test_date;not null" json:"testDate"`
	SampleLocation string         `gorm:"column:sample_location" json:"sampleLocation" example:"Column C3"`
	Strength       float64        `gorm:"column:strength" json:"strength" example:"28.5"`
	Result         CubeTestResult `gorm:"column:result;not null" json:"result" example:"pass"`
	Report         string         `gorm:"column:report" json:"report,omitempty"`
	CreatedAt      time.Time      `gorm:"column:created_at;not null" json:"createdAt"`
}

func (CubeTest) TableName() string {
	return "phase_cube_tests"
}

func (t *CubeTest) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type EngineerInspection struct {
	ID             string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	PhaseID        string    `gorm:"column:phase_id;type:varchar(36);not null;index" json:"phaseId"`
	InspectionDate time.Time `gorm:"column:inspection_date;not null" json:"date"`
	EngineerType   string    `gorm:"column:engineer_type;not null" json:"engineerType" example:"structural"`
	EngineerName   string    `gorm:"column:engineer_name" json:"engineerName"`
	Findings       string    `gorm:"column:findings" json:"findings"`
	Approved       bool      `gorm:"column:approved;not null;default:false" json:"approved"`
	Report         string    `gorm:"column:report" json:"report,omitempty"`
	CreatedAt      time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

func (EngineerInspection) TableName() string {
	return "phase_inspections"
}

func (i *EngineerInspection) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

type PhaseIssue struct {
	ID             string     `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	PhaseID        string     `gorm:"column:phase_id;type:varchar(36);not null;index" json:"phaseId"`
	Date           time.Time  `gorm:"column:date;not null" json:"date"`
	Description    string     `gorm:"column:description;not null" json:"description"`
	Resolved       bool       `gorm:"column:resolved;not null;default:false" json:"resolved"`
	ResolutionDate *time.Time `gorm:"column:resolution_date" json:"resolutionDate,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null" json:"createdAt"`
}

func (PhaseIssue) TableName() string {
	return "phase_issues"
}

func (i *PhaseIssue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

type PhasePhoto struct {
	ID         string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	PhaseID    string    `gorm:"column:phase_id;type:varchar(36);not null;index" json:"phaseId"`
	URL        string    `gorm:"column:url;not null" json:"url"`
	Caption    string    `gorm:"column:caption" json:"caption,omitempty"`
	UploadDate time.Time `gorm:"column:upload_date;not null" json:"uploadDate"`
}

func (PhasePhoto) TableName() string {
	return "phase_photos"
}

func (p *PhasePhoto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PhaseCreateInput is the payload for POST /api/phases.
type PhaseCreateInput struct {
	ProjectID         string         `json:"projectId" binding:"required"`
	Phase             PhaseType      `json:"phase" binding:"required,oneof=piling raft plinth grey-structure finishing elevation final-checks"`
	Floor             int            `json:"floor" binding:"gte=0"`
	EstimatedDuration *int           `json:"estimatedDuration" binding:"omitempty,gte=0"`
	StartDate         *time.Time     `json:"startDate"`
	Notes             string         `json:"notes"`
	Progress          *float64       `json:"progress" binding:"omitempty,gte=0,lte=100"`
	Details           datatypes.JSON `json:"details" swaggertype:"object"`
}

// PhaseUpdateInput is the payload for PUT /api/phases/:phaseId. Nil fields are left unchanged.
type PhaseUpdateInput struct {
	Floor             *int           `json:"floor" binding:"omitempty,gte=0"`
	EstimatedDuration *int           `json:"estimatedDuration" binding:"omitempty,gte=0"`
	StartDate         *time.Time     `json:"startDate"`
	Notes             *string        `json:"notes"`
	Progress          *float64       `json:"progress" binding:"omitempty,gte=0,lte=100"`
	Details           datatypes.JSON `json:"details" swaggertype:"object"`
}

type PhaseStatusInput struct {
	Status PhaseStatus `json:"status" binding:"required,oneof=pending in-progress completed on-hold"`
}

type CubeTestInput struct {
	TestDate       *time.Time     `form:"testDate" json:"testDate"`
	SampleLocation string         `form:"sampleLocation" json:"sampleLocation"`
	Strength       float64        `form:"strength" json:"strength" binding:"gte=0"`
	Result         CubeTestResult `form:"result" json:"result" binding:"required,oneof=pass fail"`
}

type InspectionInput struct {
	Date         *time.Time `form:"date" json:"date"`
	EngineerType string     `form:"engineerType" json:"engineerType" binding:"required,oneof=structural electrical plumbing hvac"`
	EngineerName string     `form:"engineerName" json:"engineerName"`
	Findings     string     `form:"findings" json:"findings"`
	Approved     string     `form:"approved" json:"approved"`
}

type IssueInput struct {
	Date        *time.Time `json:"date"`
	Description string     `json:"description" binding:"required"`
}

// TimelineEntry is one row of the phase timeline.
type TimelineEntry struct {
	ID                string      `json:"id"`
	Label             string      `json:"label" example:"grey-structure - Floor 1"`
	Phase             PhaseType   `json:"phase"`
	Floor             int         `json:"floor"`
	Status            PhaseStatus `json:"status"`
	Progress          float64     `json:"progress"`
	StartDate         *time.Time  `json:"startDate,omitempty"`
	CompletionDate    *time.Time  `json:"completionDate,omitempty"`
	EstimatedDuration *int        `json:"estimatedDuration,omitempty"`
	ActualDuration    *int        `json:"actualDuration,omitempty"`
}
