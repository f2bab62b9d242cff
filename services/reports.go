package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"buildtrack/models"
	"buildtrack/repository"
)

const (
	recentActivityWindow = 7 * 24 * time.Hour
	recentQualityWindow  = 30 * 24 * time.Hour
	maxRecentEntries     = 20
	maxUpcomingPayments  = 10
)

// PhaseKey is the quality breakdown key of a phase, e.g. "raft-Floor0".
func PhaseKey(p *models.ConstructionPhase) string {
	return fmt.Sprintf("%s-Floor%d", p.Phase, p.Floor)
}

// CountPhases builds the status histogram of phases.
func CountPhases(phases []models.ConstructionPhase) models.PhaseHistogram {
	h := models.PhaseHistogram{Total: len(phases)}
	for _, p := range phases {
		switch p.Status {
		case models.PhaseCompleted:
			h.Completed++
		case models.PhaseInProgress:
			h.InProgress++
		case models.PhasePending:
			h.Pending++
		case models.PhaseOnHold:
			h.OnHold++
		}
	}
	return h
}

// ValueBOQ values items at each quantity stage.
func ValueBOQ(items []models.BOQItem) models.BOQValuation {
	s := SummarizeBOQ(items)
	return models.BOQValuation{
		TotalItems:    s.TotalItems,
		TotalValue:    s.TotalBudget,
		OrderedValue:  s.OrderedValue,
		ReceivedValue: s.ReceivedValue,
		UsedValue:     s.UsedValue,
	}
}

// daysBetween is the whole-day span from a to b, rounded up.
func daysBetween(a, b time.Time) int {
	return CeilDays(b.Sub(a))
}

// ComposeOverview builds the overview report. payments may hold any status;
// only paid payments count towards spend.
func ComposeOverview(project *models.Project, createdBy string, phases []models.ConstructionPhase,
	payments []models.Payment, items []models.BOQItem, now time.Time) *models.OverviewReport {
	paid := PaidOnly(payments)
	budget := SummarizeBudget(project.TotalBudget, paid)
	costs := BuildCostBreakdown(project.LandDetails.Data(), paid)

	r := &models.OverviewReport{
		Project: models.OverviewHeader{
			Name:      project.Name,
			Location:  project.Location.Data(),
			Status:    project.Status,
			CreatedBy: createdBy,
		},
		PhaseProgress: CountPhases(phases),
		FinancialSummary: models.OverviewFinance{
			TotalBudget:       budget.TotalBudget,
			TotalSpent:        budget.TotalSpent,
			RemainingBudget:   budget.RemainingBudget,
			BudgetUtilization: budget.Utilization,
			LandCosts:         costs.LandAcquisition,
			ConstructionCosts: costs.Construction,
			ConsultantCosts:   costs.Consultants,
		},
		BOQSummary: ValueBOQ(items),
		Timeline: models.ProjectTimeline{
			ProjectStartDate: project.StartDate,
			EstimatedEndDate: project.EstimatedEndDate,
			ActualEndDate:    project.ActualEndDate,
		},
		CurrentPhases: []models.CurrentPhase{},
		Approvals:     project.Approvals.Data(),
	}
	if project.StartDate != nil {
		r.Timeline.ElapsedDays = daysBetween(*project.StartDate, now)
	}
	if project.EstimatedEndDate != nil {
		r.Timeline.RemainingDays = daysBetween(now, *project.EstimatedEndDate)
	}

	for _, p := range phases {
		if p.Status == models.PhaseInProgress {
			r.CurrentPhases = append(r.CurrentPhases, models.CurrentPhase{
				Phase:     p.Phase,
				Floor:     p.Floor,
				Progress:  p.Progress,
				StartDate: p.StartDate,
			})
		}
	}

	engineers := project.Engineers.Data()
	team := models.TeamSummary{
		Architect:   project.Architect.Data().Name,
		Contractor:  project.Contractor.Data().Name,
		Engineers:   make([]models.Engineer, 0, len(engineers)),
		Supervisors: len(project.Supervisors.Data()),
	}
	for _, e := range engineers {
		team.Engineers = append(team.Engineers, models.Engineer{Type: e.Type, Name: e.Name})
	}
	r.Team = team
	return r
}

// ComposeProgress builds the progress report from phases ordered by floor then creation.
func ComposeProgress(phases []models.ConstructionPhase, now time.Time) *models.ProgressReport {
	r := &models.ProgressReport{
		ProgressByFloor:  make(map[int]*models.FloorProgress),
		RecentActivities: []models.PhaseActivity{},
		CriticalPhases:   []models.DelayedPhase{},
	}
	for i := range phases {
		p := &phases[i]
		floor, ok := r.ProgressByFloor[p.Floor]
		if !ok {
			floor = &models.FloorProgress{Floor: p.Floor, Phases: []models.FloorPhase{}}
			r.ProgressByFloor[p.Floor] = floor
		}
		open := 0
		for _, issue := range p.Issues {
			if !issue.Resolved {
				open++
			}
		}
		floor.Phases = append(floor.Phases, models.FloorPhase{
			Phase:             p.Phase,
			Status:            p.Status,
			Progress:          p.Progress,
			StartDate:         p.StartDate,
			CompletionDate:    p.CompletionDate,
			EstimatedDuration: p.EstimatedDuration,
			ActualDuration:    p.ActualDuration,
			CubeTests:         len(p.CubeTests),
			Inspections:       len(p.EngineerInspections),
			Issues:            open,
		})

		if now.Sub(p.UpdatedAt) < recentActivityWindow {
			r.RecentActivities = append(r.RecentActivities, models.PhaseActivity{
				Phase:     p.Phase,
				Floor:     p.Floor,
				Activity:  PhaseLabel(p),
				Status:    p.Status,
				Progress:  p.Progress,
				UpdatedAt: p.UpdatedAt,
			})
		}

		if delay, late := DelayDays(p, now); late {
			r.CriticalPhases = append(r.CriticalPhases, models.DelayedPhase{
				Phase:     p.Phase,
				Floor:     p.Floor,
				DelayDays: delay,
				Progress:  p.Progress,
			})
		}
	}

	for _, floor := range r.ProgressByFloor {
		var sum float64
		allDone := true
		for _, fp := range floor.Phases {
			sum += fp.Progress
			if fp.Status != models.PhaseCompleted {
				allDone = false
			}
		}
		if len(floor.Phases) > 0 {
			floor.OverallProgress = sum / float64(len(floor.Phases))
		}
		if allDone {
			r.CompletedFloors++
		}
	}
	r.TotalFloors = len(r.ProgressByFloor)

	sort.SliceStable(r.RecentActivities, func(i, j int) bool {
		return r.RecentActivities[i].UpdatedAt.After(r.RecentActivities[j].UpdatedAt)
	})
	if len(r.RecentActivities) > maxRecentEntries {
		r.RecentActivities = r.RecentActivities[:maxRecentEntries]
	}
	return r
}

// DelayDays reports how many days an in-progress phase has overrun its
// estimated duration. The second result is false when it is on schedule or
// has no start date or estimate.
func DelayDays(p *models.ConstructionPhase, now time.Time) (int, bool) {
	if p.Status != models.PhaseInProgress || p.StartDate == nil || p.EstimatedDuration == nil || *p.EstimatedDuration <= 0 {
		return 0, false
	}
	elapsed := daysBetween(*p.StartDate, now)
	if elapsed <= *p.EstimatedDuration {
		return 0, false
	}
	return elapsed - *p.EstimatedDuration, true
}

// ComposeFinancial builds the financial report. paid holds the paid payments
// in the report window; all holds every payment of the project.
func ComposeFinancial(project *models.Project, paid, all []models.Payment, items []models.BOQItem, now time.Time) *models.FinancialReport {
	budget := SummarizeBudget(project.TotalBudget, paid)
	byMonth := TotalsByMonth(paid)
	r := &models.FinancialReport{
		ProjectBudget:     budget.TotalBudget,
		TotalSpent:        budget.TotalSpent,
		RemainingBudget:   budget.RemainingBudget,
		BudgetUtilization: budget.Utilization,
		PaymentAnalysis: models.PaymentAnalysis{
			TotalPayments: len(paid),
			TotalAmount:   budget.TotalSpent,
			ByType:        TotalsByType(paid),
			ByMonth:       byMonth,
			ByCategory:    TotalsByCategory(paid),
		},
		BOQAnalysis:      SummarizeBOQ(items),
		CostBreakdown:    BuildCostBreakdown(project.LandDetails.Data(), paid),
		CashFlow:         byMonth,
		UpcomingPayments: []models.Payment{},
	}

	today := startOfDay(now)
	for _, p := range all {
		if p.Status != models.PaymentPaid {
			r.PendingPayments++
		}
		if p.Status == models.PaymentApproved && !p.PaymentDate.Before(today) {
			r.UpcomingPayments = append(r.UpcomingPayments, p)
		}
	}
	sort.SliceStable(r.UpcomingPayments, func(i, j int) bool {
		return r.UpcomingPayments[i].PaymentDate.Before(r.UpcomingPayments[j].PaymentDate)
	})
	if len(r.UpcomingPayments) > maxUpcomingPayments {
		r.UpcomingPayments = r.UpcomingPayments[:maxUpcomingPayments]
	}
	return r
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ComposeQuality builds the quality report from phases with their child lists loaded.
func ComposeQuality(phases []models.ConstructionPhase, now time.Time) *models.QualityReport {
	q := models.QualityData{
		CubeTests:   models.CubeTestStats{ByPhase: make(map[string]*models.PassFail)},
		Inspections: models.InspectionStats{ByType: make(map[string]*models.ApprovedRejected)},
		Issues:      models.IssueStats{ByPhase: make(map[string]*models.ResolvedPending)},
	}
	events := []models.QualityEvent{}
	open := []models.OpenIssue{}
	cutoff := now.Add(-recentQualityWindow)

	for i := range phases {
		p := &phases[i]
		key := PhaseKey(p)
		label := PhaseLabel(p)

		for _, t := range p.CubeTests {
			q.CubeTests.Total++
			pf := q.CubeTests.ByPhase[key]
			if pf == nil {
				pf = &models.PassFail{}
				q.CubeTests.ByPhase[key] = pf
			}
			if t.Result == models.CubeTestPass {
				q.CubeTests.Passed++
				pf.Passed++
			} else {
				q.CubeTests.Failed++
				pf.Failed++
			}
			if t.TestDate.After(cutoff) {
				events = append(events, models.QualityEvent{
					Type:    "cube-test",
					Date:    t.TestDate,
					Phase:   label,
					Result:  string(t.Result),
					Details: fmt.Sprintf("Strength: %g", t.Strength),
				})
			}
		}

		for _, in := range p.EngineerInspections {
			q.Inspections.Total++
			ar := q.Inspections.ByType[in.EngineerType]
			if ar == nil {
				ar = &models.ApprovedRejected{}
				q.Inspections.ByType[in.EngineerType] = ar
			}
			result := "rejected"
			if in.Approved {
				result = "approved"
				q.Inspections.Approved++
				ar.Approved++
			} else {
				q.Inspections.Rejected++
				ar.Rejected++
			}
			if in.InspectionDate.After(cutoff) {
				events = append(events, models.QualityEvent{
					Type:    "inspection",
					Date:    in.InspectionDate,
					Phase:   label,
					Result:  result,
					Details: in.EngineerType + " - " + in.EngineerName,
				})
			}
		}

		for _, issue := range p.Issues {
			q.Issues.Total++
			rp := q.Issues.ByPhase[key]
			if rp == nil {
				rp = &models.ResolvedPending{}
				q.Issues.ByPhase[key] = rp
			}
			if issue.Resolved {
				q.Issues.Resolved++
				rp.Resolved++
				continue
			}
			q.Issues.Pending++
			rp.Pending++
			open = append(open, models.OpenIssue{Phase: label, Description: issue.Description, Date: issue.Date})
		}
	}

	q.CubeTests.PassRate = Percentage(float64(q.CubeTests.Passed), float64(q.CubeTests.Total))
	q.Inspections.ApprovalRate = Percentage(float64(q.Inspections.Approved), float64(q.Inspections.Total))
	q.Issues.ResolutionRate = Percentage(float64(q.Issues.Resolved), float64(q.Issues.Total))

	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.After(events[j].Date) })
	if len(events) > maxRecentEntries {
		events = events[:maxRecentEntries]
	}
	sort.SliceStable(open, func(i, j int) bool { return open[i].Date.After(open[j].Date) })

	return &models.QualityReport{QualityData: q, RecentEvents: events, CriticalIssues: open}
}

// ComposeStats builds the compact project statistics.
func ComposeStats(project *models.Project, phases []models.ConstructionPhase, payments []models.Payment) *models.ProjectStats {
	h := CountPhases(phases)
	budget := SummarizeBudget(project.TotalBudget, payments)
	return &models.ProjectStats{
		ProjectName: project.Name,
		Status:      project.Status,
		Progress: models.StatsProgress{
			Percentage:      Percentage(float64(h.Completed), float64(h.Total)),
			CompletedPhases: h.Completed,
			TotalPhases:     h.Total,
		},
		Financial: models.StatsFinancial{
			TotalBudget:           budget.TotalBudget,
			TotalSpent:            budget.TotalSpent,
			Remaining:             budget.RemainingBudget,
			UtilizationPercentage: budget.Utilization,
		},
		Phases: h,
	}
}

// ReportService loads project data and hands it to the composers.
type ReportService struct {
	store *repository.Store
	now   func() time.Time
}

func NewReportService(store *repository.Store) *ReportService {
	return &ReportService{store: store, now: time.Now}
}

// projectFor runs the access gate and loads the project.
func (s *ReportService) projectFor(ctx context.Context, c Caller, projectID string) (*models.Project, error) {
	if err := CheckProjectAccess(c, projectID); err != nil {
		return nil, err
	}
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, lookupErr(err, "Project")
	}
	return project, nil
}

func (s *ReportService) Overview(ctx context.Context, c Caller, projectID string) (*models.OverviewReport, error) {
	project, err := s.projectFor(ctx, c, projectID)
	if err != nil {
		return nil, err
	}
	phases, err := s.store.ListPhases(ctx, projectID, false)
	if err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	payments, err := s.store.ListPayments(ctx, projectID, repository.PaymentFilter{Status: models.PaymentPaid})
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	items, err := s.store.ListBOQItems(ctx, projectID, repository.BOQFilter{})
	if err != nil {
		return nil, fmt.Errorf("list boq items: %w", err)
	}

	createdBy := ""
	if project.CreatedBy != "" {
		if u, err := s.store.GetUser(ctx, project.CreatedBy); err == nil {
			createdBy = u.Name
		}
	}
	return ComposeOverview(project, createdBy, phases, payments, items, s.now()), nil
}

// Progress builds the progress report. from/to, when set, bound the phases' last update.
func (s *ReportService) Progress(ctx context.Context, c Caller, projectID string, from, to *time.Time) (*models.ProgressReport, error) {
	if _, err := s.projectFor(ctx, c, projectID); err != nil {
		return nil, err
	}
	phases, err := s.store.ListPhases(ctx, projectID, true)
	if err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	if from != nil || to != nil {
		kept := phases[:0]
		for _, p := range phases {
			if from != nil && p.UpdatedAt.Before(*from) {
				continue
			}
			if to != nil && p.UpdatedAt.After(*to) {
				continue
			}
			kept = append(kept, p)
		}
		phases = kept
	}
	return ComposeProgress(phases, s.now()), nil
}

// Financial builds the financial report. from/to, when set, window the paid payments.
func (s *ReportService) Financial(ctx context.Context, c Caller, projectID string, from, to *time.Time) (*models.FinancialReport, error) {
	project, err := s.projectFor(ctx, c, projectID)
	if err != nil {
		return nil, err
	}
	paid, err := s.store.ListPayments(ctx, projectID, repository.PaymentFilter{Status: models.PaymentPaid, From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("list paid payments: %w", err)
	}
	all, err := s.store.ListPayments(ctx, projectID, repository.PaymentFilter{})
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	items, err := s.store.ListBOQItems(ctx, projectID, repository.BOQFilter{})
	if err != nil {
		return nil, fmt.Errorf("list boq items: %w", err)
	}
	return ComposeFinancial(project, paid, all, items, s.now()), nil
}

func (s *ReportService) Quality(ctx context.Context, c Caller, projectID string) (*models.QualityReport, error) {
	if _, err := s.projectFor(ctx, c, projectID); err != nil {
		return nil, err
	}
	phases, err := s.store.ListPhases(ctx, projectID, true)
	if err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	return ComposeQuality(phases, s.now()), nil
}

// Export dumps the project. Only the json format is supported.
func (s *ReportService) Export(ctx context.Context, c Caller, projectID, format string) (*models.ExportData, error) {
	project, err := s.projectFor(ctx, c, projectID)
	if err != nil {
		return nil, err
	}
	if format != "" && format != "json" {
		return nil, ruleErr("Unsupported export format")
	}
	phases, err := s.store.ListPhases(ctx, projectID, true)
	if err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	payments, err := s.store.ListPayments(ctx, projectID, repository.PaymentFilter{})
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	items, err := s.store.ListBOQItems(ctx, projectID, repository.BOQFilter{})
	if err != nil {
		return nil, fmt.Errorf("list boq items: %w", err)
	}
	return &models.ExportData{
		Project:    project,
		Phases:     phases,
		Payments:   payments,
		BOQItems:   items,
		ExportDate: s.now(),
		ExportedBy: c.Name,
	}, nil
}

func (s *ReportService) Stats(ctx context.Context, c Caller, projectID string) (*models.ProjectStats, error) {
	project, err := s.projectFor(ctx, c, projectID)
	if err != nil {
		return nil, err
	}
	phases, err := s.store.ListPhases(ctx, projectID, false)
	if err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	paid, err := s.store.ListPayments(ctx, projectID, repository.PaymentFilter{Status: models.PaymentPaid})
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return ComposeStats(project, phases, paid), nil
}

// Dashboard summarises the projects visible to the caller.
func (s *ReportService) Dashboard(ctx context.Context, c Caller) (*models.Dashboard, error) {
	projects, err := s.store.ListProjects(ctx, repository.ProjectFilter{IDs: c.ProjectScope()})
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	d := &models.Dashboard{
		TotalProjects:    len(projects),
		ProjectsByStatus: make(map[models.ProjectStatus]int),
		Projects:         make([]models.DashboardProject, 0, len(projects)),
	}
	for i := range projects {
		p := &projects[i]
		spent, err := s.store.SumPaid(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("sum paid for %s: %w", p.ID, err)
		}
		phases, err := s.store.ListPhases(ctx, p.ID, false)
		if err != nil {
			return nil, fmt.Errorf("list phases for %s: %w", p.ID, err)
		}
		h := CountPhases(phases)

		d.ProjectsByStatus[p.Status]++
		d.TotalBudget += p.TotalBudget
		d.TotalSpent += spent
		d.Projects = append(d.Projects, models.DashboardProject{
			ID:          p.ID,
			Name:        p.Name,
			Status:      p.Status,
			TotalBudget: p.TotalBudget,
			TotalSpent:  spent,
			Progress:    Percentage(float64(h.Completed), float64(h.Total)),
		})
	}
	d.RemainingBudget = d.TotalBudget - d.TotalSpent
	d.Utilization = FormatFixed2(Utilization(d.TotalSpent, d.TotalBudget))
	return d, nil
}

// PDFSummary gathers what the summary PDF renders: the overview plus BOQ criticals.
func (s *ReportService) PDFSummary(ctx context.Context, c Caller, projectID string) (*models.OverviewReport, []models.CriticalItem, error) {
	overview, err := s.Overview(ctx, c, projectID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.store.ListBOQItems(ctx, projectID, repository.BOQFilter{})
	if err != nil {
		return nil, nil, fmt.Errorf("list boq items: %w", err)
	}
	return overview, CriticalItems(items), nil
}
