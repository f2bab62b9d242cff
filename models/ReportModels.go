package models

import "time"

// PhaseHistogram counts phases by status.
type PhaseHistogram struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	Pending    int `json:"pending"`
	OnHold     int `json:"onHold"`
}

type OverviewHeader struct {
	Name      string        `json:"name"`
	Location  Location      `json:"location"`
	Status    ProjectStatus `json:"status"`
	CreatedBy string        `json:"createdBy,omitempty"`
}

type OverviewFinance struct {
	TotalBudget       float64 `json:"totalBudget"`
	TotalSpent        float64 `json:"totalSpent"`
	RemainingBudget   float64 `json:"remainingBudget"`
	BudgetUtilization string  `json:"budgetUtilization" example:"20.00"`
	LandCosts         float64 `json:"landCosts"`
	ConstructionCosts float64 `json:"constructionCosts"`
	ConsultantCosts   float64 `json:"consultantCosts"`
}

// BOQValuation values a project's BOQ at each quantity stage.
type BOQValuation struct {
	TotalItems    int     `json:"totalItems"`
	TotalValue    float64 `json:"totalValue"`
	OrderedValue  float64 `json:"orderedValue"`
	ReceivedValue float64 `json:"receivedValue"`
	UsedValue     float64 `json:"usedValue"`
}

// ProjectTimeline reports elapsed and remaining whole days, 0 when a date is unset.
type ProjectTimeline struct {
	ProjectStartDate *time.Time `json:"projectStartDate,omitempty"`
	EstimatedEndDate *time.Time `json:"estimatedEndDate,omitempty"`
	ActualEndDate    *time.Time `json:"actualEndDate,omitempty"`
	ElapsedDays      int        `json:"elapsedDays"`
	RemainingDays    int        `json:"remainingDays"`
}

type CurrentPhase struct {
	Phase     PhaseType  `json:"phase"`
	Floor     int        `json:"floor"`
	Progress  float64    `json:"progress"`
	StartDate *time.Time `json:"startDate,omitempty"`
}

type TeamSummary struct {
	Architect   string     `json:"architect,omitempty"`
	Contractor  string     `json:"contractor,omitempty"`
	Engineers   []Engineer `json:"engineers"`
	Supervisors int        `json:"supervisors"`
}

// OverviewReport is the payload of GET /api/reports/project/:projectId/overview.
type OverviewReport struct {
	Project          OverviewHeader  `json:"project"`
	PhaseProgress    PhaseHistogram  `json:"phaseProgress"`
	FinancialSummary OverviewFinance `json:"financialSummary"`
	BOQSummary       BOQValuation    `json:"boqSummary"`
	Timeline         ProjectTimeline `json:"timeline"`
	CurrentPhases    []CurrentPhase  `json:"currentPhases"`
	Approvals        Approvals       `json:"approvals"`
	Team             TeamSummary     `json:"team"`
}

type FloorPhase struct {
	Phase             PhaseType   `json:"phase"`
	Status            PhaseStatus `json:"status"`
	Progress          float64     `json:"progress"`
	StartDate         *time.Time  `json:"startDate,omitempty"`
	CompletionDate    *time.Time  `json:"completionDate,omitempty"`
	EstimatedDuration *int        `json:"estimatedDuration,omitempty"`
	ActualDuration    *int        `json:"actualDuration,omitempty"`
	CubeTests         int         `json:"cubeTests"`
	Inspections       int         `json:"inspections"`
	Issues            int         `json:"issues"`
}

// FloorProgress groups the phases of one floor with their mean progress.
type FloorProgress struct {
	Floor           int          `json:"floor"`
	Phases          []FloorPhase `json:"phases"`
	OverallProgress float64      `json:"overallProgress"`
}

type PhaseActivity struct {
	Phase     PhaseType   `json:"phase"`
	Floor     int         `json:"floor"`
	Activity  string      `json:"activity" example:"raft - Floor 0"`
	Status    PhaseStatus `json:"status"`
	Progress  float64     `json:"progress"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// DelayedPhase is an in-progress phase running past its estimated duration.
type DelayedPhase struct {
	Phase     PhaseType `json:"phase"`
	Floor     int       `json:"floor"`
	DelayDays int       `json:"delayDays"`
	Progress  float64   `json:"progress"`
}

// ProgressReport is the payload of GET /api/reports/project/:projectId/progress.
type ProgressReport struct {
	ProgressByFloor  map[int]*FloorProgress `json:"progressByFloor"`
	TotalFloors      int                    `json:"totalFloors"`
	CompletedFloors  int                    `json:"completedFloors"`
	RecentActivities []PhaseActivity        `json:"recentActivities"`
	CriticalPhases   []DelayedPhase         `json:"criticalPhases"`
}

type PaymentAnalysis struct {
	TotalPayments int                         `json:"totalPayments"`
	TotalAmount   float64                     `json:"totalAmount"`
	ByType        map[PaymentType]AmountCount `json:"byType"`
	ByMonth       map[string]float64          `json:"byMonth"`
	ByCategory    map[string]float64          `json:"byCategory"`
}

// FinancialReport is the payload of GET /api/reports/project/:projectId/financial.
type FinancialReport struct {
	ProjectBudget     float64            `json:"projectBudget"`
	TotalSpent        float64            `json:"totalSpent"`
	RemainingBudget   float64            `json:"remainingBudget"`
	BudgetUtilization string             `json:"budgetUtilization" example:"20.00"`
	PaymentAnalysis   PaymentAnalysis    `json:"paymentAnalysis"`
	BOQAnalysis       BOQSummary         `json:"boqAnalysis"`
	CostBreakdown     CostBreakdown      `json:"costBreakdown"`
	CashFlow          map[string]float64 `json:"cashFlow"`
	PendingPayments   int                `json:"pendingPayments"`
	UpcomingPayments  []Payment          `json:"upcomingPayments"`
}

type PassFail struct {
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

type ApprovedRejected struct {
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

type ResolvedPending struct {
	Resolved int `json:"resolved"`
	Pending  int `json:"pending"`
}

type CubeTestStats struct {
	Total    int                  `json:"total"`
	Passed   int                  `json:"passed"`
	Failed   int                  `json:"failed"`
	PassRate string               `json:"passRate" example:"75.00"`
	ByPhase  map[string]*PassFail `json:"byPhase"`
}

type InspectionStats struct {
	Total        int                          `json:"total"`
	Approved     int                          `json:"approved"`
	Rejected     int                          `json:"rejected"`
	ApprovalRate string                       `json:"approvalRate"`
	ByType       map[string]*ApprovedRejected `json:"byType"`
}

type IssueStats struct {
	Total          int                         `json:"total"`
	Resolved       int                         `json:"resolved"`
	Pending        int                         `json:"pending"`
	ResolutionRate string                      `json:"resolutionRate"`
	ByPhase        map[string]*ResolvedPending `json:"byPhase"`
}

type QualityData struct {
	CubeTests   CubeTestStats   `json:"cubeTests"`
	Inspections InspectionStats `json:"inspections"`
	Issues      IssueStats      `json:"issues"`
}

// QualityEvent is a cube test or inspection in the recent-events feed.
type QualityEvent struct {
	Type    string    `json:"type" example:"cube-test"`
	Date    time.Time `json:"date"`
	Phase   string    `json:"phase"`
	Result  string    `json:"result"`
	Details string    `json:"details"`
}

type OpenIssue struct {
	Phase       string    `json:"phase"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// QualityReport is the payload of GET /api/reports/project/:projectId/quality.
type QualityReport struct {
	QualityData    QualityData    `json:"qualityData"`
	RecentEvents   []QualityEvent `json:"recentEvents"`
	CriticalIssues []OpenIssue    `json:"criticalIssues"`
}

// ExportData is the full dump of one project.
type ExportData struct {
	Project    *Project            `json:"project"`
	Phases     []ConstructionPhase `json:"phases"`
	Payments   []Payment           `json:"payments"`
	BOQItems   []BOQItem           `json:"boqItems"`
	ExportDate time.Time           `json:"exportDate"`
	ExportedBy string              `json:"exportedBy"`
}

type StatsProgress struct {
	Percentage      string `json:"percentage" example:"33.33"`
	CompletedPhases int    `json:"completedPhases"`
	TotalPhases     int    `json:"totalPhases"`
}

type StatsFinancial struct {
	TotalBudget           float64 `json:"totalBudget"`
	TotalSpent            float64 `json:"totalSpent"`
	Remaining             float64 `json:"remaining"`
	UtilizationPercentage string  `json:"utilizationPercentage"`
}

// ProjectStats is the payload of GET /api/projects/:projectId/stats.
type ProjectStats struct {
	ProjectName string         `json:"projectName"`
	Status      ProjectStatus  `json:"status"`
	Progress    StatsProgress  `json:"progress"`
	Financial   StatsFinancial `json:"financial"`
	Phases      PhaseHistogram `json:"phases"`
}

type DashboardProject struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Status      ProjectStatus `json:"status"`
	TotalBudget float64       `json:"totalBudget"`
	TotalSpent  float64       `json:"totalSpent"`
	Progress    string        `json:"progress"`
}

// Dashboard summarises every project visible to the caller.
type Dashboard struct {
	TotalProjects    int                   `json:"totalProjects"`
	ProjectsByStatus map[ProjectStatus]int `json:"projectsByStatus"`
	TotalBudget      float64               `json:"totalBudget"`
	TotalSpent       float64               `json:"totalSpent"`
	RemainingBudget  float64               `json:"remainingBudget"`
	Utilization      string                `json:"utilization"`
	Projects         []DashboardProject    `json:"projects"`
}
