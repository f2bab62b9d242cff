package services

import (
	"context"
	"fmt"
	"math"

	"buildtrack/metrics"
	"buildtrack/repository"

	"github.com/sirupsen/logrus"
)

// ledgerTolerance absorbs float noise between the stored counter and the sum.
const ledgerTolerance = 0.005

// Drift is one project whose stored spent amount was corrected.
type Drift struct {
	ProjectID string  `json:"projectId"`
	Stored    float64 `json:"stored"`
	Actual    float64 `json:"actual"`
}

// LedgerService keeps each project's spent counter equal to its paid payments.
type LedgerService struct {
	store *repository.Store
	log   *logrus.Logger
}

func NewLedgerService(store *repository.Store, log *logrus.Logger) *LedgerService {
	return &LedgerService{store: store, log: log}
}

// Reconcile recomputes spent for every project, rewrites the ones that drifted
// and returns them.
func (s *LedgerService) Reconcile(ctx context.Context) ([]Drift, error) {
	ids, err := s.store.ProjectIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	var drifts []Drift
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return drifts, err
		}
		d, err := s.reconcileProject(ctx, id)
		if err != nil {
			return drifts, err
		}
		if d != nil {
			drifts = append(drifts, *d)
		}
	}
	return drifts, nil
}

func (s *LedgerService) reconcileProject(ctx context.Context, projectID string) (*Drift, error) {
	var drift *Drift
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		project, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		actual, err := tx.SumPaid(ctx, projectID)
		if err != nil {
			return err
		}
		stored := project.SpentAmount
		if math.Abs(stored-actual) <= ledgerTolerance {
			return nil
		}
		drift = &Drift{ProjectID: projectID, Stored: stored, Actual: actual}
		return tx.SetSpent(ctx, projectID, actual)
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile project %s: %w", projectID, err)
	}
	if drift != nil {
		metrics.RecordLedgerDrift()
		s.log.WithFields(logrus.Fields{
			"project": projectID,
			"stored":  drift.Stored,
			"actual":  drift.Actual,
		}).Warn("spent amount drift corrected")
	}
	return drift, nil
}
