package services

import (
	"sort"
	"time"

	"buildtrack/models"
)

// MonthKey is the cash-flow bucket of a payment date, e.g. "2024-03".
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// SpentDelta is the change a payment write makes to its project's spent
// amount. Only paid payments count, so the delta is non-zero only when the
// payment enters, leaves or stays in the paid state.
func SpentDelta(oldStatus models.PaymentStatus, oldAmount float64, newStatus models.PaymentStatus, newAmount float64) float64 {
	wasPaid := oldStatus == models.PaymentPaid
	isPaid := newStatus == models.PaymentPaid
	switch {
	case wasPaid && isPaid:
		return newAmount - oldAmount
	case isPaid:
		return newAmount
	case wasPaid:
		return -oldAmount
	default:
		return 0
	}
}

// CreateDelta is SpentDelta for a freshly created payment.
func CreateDelta(p *models.Payment) float64 {
	return SpentDelta("", 0, p.Status, p.Amount)
}

// DeleteDelta is SpentDelta for a payment being removed.
func DeleteDelta(p *models.Payment) float64 {
	return SpentDelta(p.Status, p.Amount, "", 0)
}

// Utilization is spent as a percentage of budget, 0 for an unset budget.
func Utilization(spent, budget float64) float64 {
	if budget <= 0 {
		return 0
	}
	return spent / budget * 100
}

// Percentage is part/whole·100 rendered with two decimals, "0.00" when whole is 0.
func Percentage(part, whole float64) string {
	if whole <= 0 {
		return FormatFixed2(0)
	}
	return FormatFixed2(part / whole * 100)
}

// PaidOnly keeps the paid payments.
func PaidOnly(payments []models.Payment) []models.Payment {
	out := make([]models.Payment, 0, len(payments))
	for _, p := range payments {
		if p.Status == models.PaymentPaid {
			out = append(out, p)
		}
	}
	return out
}

func SumAmounts(payments []models.Payment) float64 {
	var total float64
	for _, p := range payments {
		total += p.Amount
	}
	return total
}

// SummarizeBudget computes the spend position from the paid payments of a project.
func SummarizeBudget(budget float64, payments []models.Payment) models.BudgetSummary {
	spent := SumAmounts(PaidOnly(payments))
	return models.BudgetSummary{
		TotalBudget:     budget,
		TotalSpent:      spent,
		RemainingBudget: budget - spent,
		Utilization:     FormatFixed2(Utilization(spent, budget)),
	}
}

func TotalsByType(payments []models.Payment) map[models.PaymentType]models.AmountCount {
	out := make(map[models.PaymentType]models.AmountCount)
	for _, p := range payments {
		t := out[p.Type]
		t.Count++
		t.Amount += p.Amount
		out[p.Type] = t
	}
	return out
}

func TotalsByStatus(payments []models.Payment) map[models.PaymentStatus]models.AmountCount {
	out := make(map[models.PaymentStatus]models.AmountCount)
	for _, p := range payments {
		t := out[p.Status]
		t.Count++
		t.Amount += p.Amount
		out[p.Status] = t
	}
	return out
}

// TotalsByMonth sums amounts per MonthKey.
func TotalsByMonth(payments []models.Payment) map[string]float64 {
	out := make(map[string]float64)
	for _, p := range payments {
		out[MonthKey(p.PaymentDate)] += p.Amount
	}
	return out
}

// TotalsByCategory sums amounts per category. Uncategorised payments are
// grouped under "uncategorized".
func TotalsByCategory(payments []models.Payment) map[string]float64 {
	out := make(map[string]float64)
	for _, p := range payments {
		key := string(p.Category)
		if key == "" {
			key = "uncategorized"
		}
		out[key] += p.Amount
	}
	return out
}

// TypeShares is TotalsByType with each type's share of the summed amount.
func TypeShares(payments []models.Payment) map[models.PaymentType]models.TypeShare {
	total := SumAmounts(payments)
	out := make(map[models.PaymentType]models.TypeShare)
	for t, ac := range TotalsByType(payments) {
		out[t] = models.TypeShare{
			Count:      ac.Count,
			Amount:     ac.Amount,
			Percentage: Percentage(ac.Amount, total),
		}
	}
	return out
}

// BuildCostBreakdown buckets the paid payments by cost head. Land acquisition
// comes from the project's land details rather than from payments.
func BuildCostBreakdown(land models.LandDetails, payments []models.Payment) models.CostBreakdown {
	b := models.CostBreakdown{LandAcquisition: land.AcquisitionCost()}
	for _, p := range PaidOnly(payments) {
		switch p.Type {
		case models.PaymentContractor, models.PaymentMaterial, models.PaymentLabor:
			b.Construction += p.Amount
		case models.PaymentConsultant:
			b.Consultants += p.Amount
		case models.PaymentApprovalFee:
			b.Approvals += p.Amount
		case models.PaymentOther:
			b.Others += p.Amount
		}
	}
	b.Total = b.LandAcquisition + b.Construction + b.Consultants + b.Approvals + b.Others
	return b
}

// RecentPayments returns up to limit payments of any status, latest payment date first.
func RecentPayments(payments []models.Payment, limit int) []models.Payment {
	out := append([]models.Payment(nil), payments...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PaymentDate.After(out[j].PaymentDate)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
