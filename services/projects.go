package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"buildtrack/models"
	"buildtrack/repository"

	"gorm.io/datatypes"
)

const defaultCity = "Karachi"

// stubPhases are created with every project.
var stubPhases = []models.PhaseType{models.PhasePiling, models.PhaseRaft, models.PhasePlinth}

// DocumentTypes lists the accepted upload kinds for a project.
var DocumentTypes = []string{"site-plan", "soil-test", "proposed-plan", "boq", "contract"}

// ValidDocumentType reports whether docType is one of DocumentTypes.
func ValidDocumentType(docType string) bool {
	for _, t := range DocumentTypes {
		if t == docType {
			return true
		}
	}
	return false
}

type ProjectService struct {
	store    *repository.Store
	activity *ActivityService
	now      func() time.Time
}

func NewProjectService(store *repository.Store, activity *ActivityService) *ProjectService {
	return &ProjectService{store: store, activity: activity, now: time.Now}
}

// List returns the projects visible to c, newest first.
func (s *ProjectService) List(ctx context.Context, c Caller, status models.ProjectStatus) ([]models.Project, error) {
	projects, err := s.store.ListProjects(ctx, repository.ProjectFilter{Status: status, IDs: c.ProjectScope()})
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectService) Get(ctx context.Context, c Caller, projectID string) (*models.Project, error) {
	if err := CheckProjectAccess(c, projectID); err != nil {
		return nil, err
	}
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, lookupErr(err, "Project")
	}
	return p, nil
}

// CheckCreate runs the role gate of Create.
func (s *ProjectService) CheckCreate(c Caller) error {
	return Authorize(c, Managers...)
}

// CheckWrite runs the gates shared by Update and SetStatus.
func (s *ProjectService) CheckWrite(ctx context.Context, c Caller, projectID string) error {
	_, err := s.writable(ctx, c, projectID)
	return err
}

func (s *ProjectService) writable(ctx context.Context, c Caller, projectID string) (*models.Project, error) {
	if err := Authorize(c, Managers...); err != nil {
		return nil, err
	}
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, lookupErr(err, "Project")
	}
	if err := CheckProjectAccess(c, projectID); err != nil {
		return nil, err
	}
	return p, nil
}

// Create stores the project with its three foundation phases and assigns it to
// a non-admin creator, all in one transaction.
func (s *ProjectService) Create(ctx context.Context, c Caller, in models.ProjectInput) (*models.Project, error) {
	if err := s.CheckCreate(c); err != nil {
		return nil, err
	}
	if verr := validateNewProject(in); verr != nil {
		return nil, verr
	}

	p := &models.Project{CreatedBy: c.UserID}
	applyProjectInput(p, in)
	loc := p.Location.Data()
	if loc.City == "" {
		loc.City = defaultCity
		p.Location = datatypes.NewJSONType(loc)
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.CreateProject(ctx, p); err != nil {
			return err
		}
		phases := make([]models.ConstructionPhase, len(stubPhases))
		for i, t := range stubPhases {
			phases[i] = models.ConstructionPhase{ProjectID: p.ID, Phase: t, Floor: 0, Status: models.PhasePending}
		}
		if err := tx.CreatePhases(ctx, phases); err != nil {
			return err
		}
		if !c.IsAdmin() {
			return tx.AssignProject(ctx, c.UserID, p.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.activity.Record(ctx, c, Activity{
		Context:     "project",
		Name:        "project.created",
		Description: fmt.Sprintf("Project %q created", p.Name),
		ProjectID:   p.ID,
		EntityID:    p.ID,
	})
	return p, nil
}

func validateNewProject(in models.ProjectInput) *ValidationError {
	var fields []FieldError
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		fields = append(fields, FieldError{Field: "name", Message: "Project name is required"})
	}
	if in.Location == nil || strings.TrimSpace(in.Location.Address) == "" {
		fields = append(fields, FieldError{Field: "location.address", Message: "Location is required"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// applyProjectInput copies the supplied fields onto p.
func applyProjectInput(p *models.Project, in models.ProjectInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Location != nil {
		p.Location = datatypes.NewJSONType(*in.Location)
	}
	if in.LandDetails != nil {
		p.LandDetails = datatypes.NewJSONType(*in.LandDetails)
	}
	if in.Feasibility != nil {
		p.Feasibility = datatypes.NewJSONType(*in.Feasibility)
	}
	if in.LandSurvey != nil {
		p.LandSurvey = datatypes.NewJSONType(*in.LandSurvey)
	}
	if in.SoilTest != nil {
		p.SoilTest = datatypes.NewJSONType(*in.SoilTest)
	}
	if in.Approvals != nil {
		p.Approvals = datatypes.NewJSONType(*in.Approvals)
	}
	if in.Architect != nil {
		p.Architect = datatypes.NewJSONType(*in.Architect)
	}
	if in.Engineers != nil {
		p.Engineers = datatypes.NewJSONType(*in.Engineers)
	}
	if in.BOQ != nil {
		p.BOQ = datatypes.NewJSONType(*in.BOQ)
	}
	if in.Contractor != nil {
		p.Contractor = datatypes.NewJSONType(*in.Contractor)
	}
	if in.Supervisors != nil {
		p.Supervisors = datatypes.NewJSONType(*in.Supervisors)
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.StartDate != nil {
		p.StartDate = in.StartDate
	}
	if in.EstimatedEndDate != nil {
		p.EstimatedEndDate = in.EstimatedEndDate
	}
	if in.ActualEndDate != nil {
		p.ActualEndDate = in.ActualEndDate
	}
	if in.TotalBudget != nil {
		p.TotalBudget = *in.TotalBudget
	}
}

// Update applies in to the project. The spent amount is never touched here.
func (s *ProjectService) Update(ctx context.Context, c Caller, projectID string, in models.ProjectInput) (*models.Project, error) {
	p, err := s.writable(ctx, c, projectID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, Invalid("name", "Project name is required")
	}

	applyProjectInput(p, in)
	if err := s.store.SaveProject(ctx, p); err != nil {
		return nil, lookupErr(err, "Project")
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "project",
		Name:        "project.updated",
		Description: fmt.Sprintf("Project %q updated", p.Name),
		ProjectID:   p.ID,
		EntityID:    p.ID,
	})
	return s.store.GetProject(ctx, projectID)
}

// SetStatus moves the project to another lifecycle stage. Any stage may follow any other.
func (s *ProjectService) SetStatus(ctx context.Context, c Caller, projectID string, status models.ProjectStatus) (*models.Project, error) {
	p, err := s.writable(ctx, c, projectID)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return nil, Invalid("status", "Status is required")
	}
	if err := s.store.UpdateProjectStatus(ctx, projectID, status); err != nil {
		return nil, lookupErr(err, "Project")
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "project",
		Name:        "project.status",
		Description: fmt.Sprintf("Project %q moved from %s to %s", p.Name, p.Status, status),
		ProjectID:   projectID,
		EntityID:    projectID,
	})
	p.Status = status
	return p, nil
}

// CheckUpload runs the gates for a document upload before the file is stored.
func (s *ProjectService) CheckUpload(ctx context.Context, c Caller, projectID, docType string) error {
	if err := s.CheckWrite(ctx, c, projectID); err != nil {
		return err
	}
	if !ValidDocumentType(docType) {
		return ruleErr("Invalid document type")
	}
	return nil
}

// AttachDocument records a stored upload against the field docType maps to.
func (s *ProjectService) AttachDocument(ctx context.Context, c Caller, projectID, docType, path string) (*models.Project, error) {
	if err := s.CheckUpload(ctx, c, projectID, docType); err != nil {
		return nil, err
	}
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, lookupErr(err, "Project")
	}

	switch docType {
	case "site-plan":
		v := p.LandSurvey.Data()
		v.SitePlan = path
		p.LandSurvey = datatypes.NewJSONType(v)
	case "soil-test":
		v := p.SoilTest.Data()
		v.Report = path
		p.SoilTest = datatypes.NewJSONType(v)
	case "proposed-plan":
		v := p.Architect.Data()
		v.ProposedPlan = path
		p.Architect = datatypes.NewJSONType(v)
	case "boq":
		v := p.BOQ.Data()
		v.Document = path
		p.BOQ = datatypes.NewJSONType(v)
	case "contract":
		v := p.Contractor.Data()
		v.ContractFile = path
		p.Contractor = datatypes.NewJSONType(v)
	}

	if err := s.store.SaveProject(ctx, p); err != nil {
		return nil, lookupErr(err, "Project")
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "project",
		Name:        "project.document",
		Description: fmt.Sprintf("Uploaded %s document", docType),
		ProjectID:   projectID,
		EntityID:    projectID,
	})
	return p, nil
}
