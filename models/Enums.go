package models

// Role is a user's access level.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleSupervisor Role = "supervisor"
	RoleViewer     Role = "viewer"
)

// ProjectStatus is the lifecycle stage of a project, in order.
type ProjectStatus string

const (
	ProjectLandSearch      ProjectStatus = "land-search"
	ProjectFeasibility     ProjectStatus = "feasibility"
	ProjectLandSurvey      ProjectStatus = "land-survey"
	ProjectLandPurchase    ProjectStatus = "land-purchase"
	ProjectSoilTest        ProjectStatus = "soil-test"
	ProjectPlanning        ProjectStatus = "planning"
	ProjectApprovalPending ProjectStatus = "approval-pending"
	ProjectConstruction    ProjectStatus = "construction"
	ProjectFinishing       ProjectStatus = "finishing"
	ProjectCompleted       ProjectStatus = "completed"
)

// ProjectStatuses lists every lifecycle stage in order.
var ProjectStatuses = []ProjectStatus{
	ProjectLandSearch, ProjectFeasibility, ProjectLandSurvey, ProjectLandPurchase, ProjectSoilTest,
	ProjectPlanning, ProjectApprovalPending, ProjectConstruction, ProjectFinishing, ProjectCompleted,
}

type PhaseType string

const (
	PhasePiling        PhaseType = "piling"
	PhaseRaft          PhaseType = "raft"
	PhasePlinth        PhaseType = "plinth"
	PhaseGreyStructure PhaseType = "grey-structure"
	PhaseFinishing     PhaseType = "finishing"
	PhaseElevation     PhaseType = "elevation"
	PhaseFinalChecks   PhaseType = "final-checks"
)

type PhaseStatus string

const (
	PhasePending    PhaseStatus = "pending"
	PhaseInProgress PhaseStatus = "in-progress"
	PhaseCompleted  PhaseStatus = "completed"
	PhaseOnHold     PhaseStatus = "on-hold"
)

// PhaseStatuses in display order.
var PhaseStatuses = []PhaseStatus{PhasePending, PhaseInProgress, PhaseCompleted, PhaseOnHold}

// WorkStatus is the three-state status of a finishing trade or slab pour.
type WorkStatus string

const (
	WorkPending    WorkStatus = "pending"
	WorkInProgress WorkStatus = "in-progress"
	WorkCompleted  WorkStatus = "completed"
)

type BOQCategory string

const (
	BOQCivil      BOQCategory = "civil"
	BOQElectrical BOQCategory = "electrical"
	BOQPlumbing   BOQCategory = "plumbing"
	BOQFinishing  BOQCategory = "finishing"
	BOQSteel      BOQCategory = "steel"
	BOQConcrete   BOQCategory = "concrete"
	BOQLabor      BOQCategory = "labor"
	BOQOther      BOQCategory = "other"
)

type BOQStatus string

const (
	BOQPending   BOQStatus = "pending"
	BOQOrdered   BOQStatus = "ordered"
	BOQPartial   BOQStatus = "partial"
	BOQReceived  BOQStatus = "received"
	BOQInUse     BOQStatus = "in-use"
	BOQCompleted BOQStatus = "completed"
)

type PaymentType string

const (
	PaymentLandPurchase PaymentType = "land-purchase"
	PaymentTransferFee  PaymentType = "transfer-fee"
	PaymentLegalFee     PaymentType = "legal-fee"
	PaymentContractor   PaymentType = "contractor"
	PaymentMaterial     PaymentType = "material"
	PaymentLabor        PaymentType = "labor"
	PaymentConsultant   PaymentType = "consultant"
	PaymentApprovalFee  PaymentType = "approval-fee"
	PaymentOther        PaymentType = "other"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentApproved  PaymentStatus = "approved"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
)

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCheque       PaymentMethod = "cheque"
	MethodBankTransfer PaymentMethod = "bank-transfer"
	MethodOnline       PaymentMethod = "online"
)

type PaymentCategory string

const (
	CategoryCapital     PaymentCategory = "capital"
	CategoryOperational PaymentCategory = "operational"
	CategoryMaterial    PaymentCategory = "material"
	CategoryService     PaymentCategory = "service"
)
