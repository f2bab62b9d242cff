package services

import (
	"fmt"
	"sort"

	"buildtrack/models"
)

// criticalThreshold is the remaining share below which an item is critical.
const criticalThreshold = 0.20

// DeriveBOQStatus classifies an item from its quantities. Usage outranks
// receipt, which outranks ordering. An item with no quantity counts as used up.
func DeriveBOQStatus(item *models.BOQItem) models.BOQStatus {
	switch {
	case item.UsedQuantity >= item.Quantity:
		return models.BOQCompleted
	case item.UsedQuantity > 0:
		return models.BOQInUse
	case item.ReceivedQuantity >= item.Quantity:
		return models.BOQReceived
	case item.ReceivedQuantity > 0:
		return models.BOQPartial
	case item.OrderedQuantity > 0:
		return models.BOQOrdered
	default:
		return models.BOQPending
	}
}

// RefreshBOQItem recomputes the derived total and status.
func RefreshBOQItem(item *models.BOQItem) {
	item.TotalAmount = item.Quantity * item.RatePerUnit
	item.Status = DeriveBOQStatus(item)
}

func RemainingQuantity(item *models.BOQItem) float64 {
	return item.Quantity - item.UsedQuantity
}

// IsCritical reports whether less than 20% of the item's quantity remains.
// Items without a quantity are never critical.
func IsCritical(item *models.BOQItem) bool {
	if item.Quantity <= 0 || item.Status == models.BOQCompleted {
		return false
	}
	return RemainingQuantity(item)/item.Quantity < criticalThreshold
}

// CriticalItems lists the critical items, lowest remaining share first.
func CriticalItems(items []models.BOQItem) []models.CriticalItem {
	type ranked struct {
		out   models.CriticalItem
		share float64
	}
	var rs []ranked
	for i := range items {
		item := &items[i]
		if !IsCritical(item) {
			continue
		}
		remaining := RemainingQuantity(item)
		share := remaining / item.Quantity * 100
		rs = append(rs, ranked{
			out: models.CriticalItem{
				ID:                  item.ID,
				ItemName:            item.ItemName,
				Category:            item.Category,
				Unit:                item.Unit,
				RemainingQuantity:   remaining,
				RemainingPercentage: FormatFixed2(share),
			},
			share: share,
		})
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].share < rs[j].share })
	out := make([]models.CriticalItem, len(rs))
	for i, r := range rs {
		out[i] = r.out
	}
	return out
}

// CategoryTotals groups items by category with count, value and ordered value.
func CategoryTotals(items []models.BOQItem) map[models.BOQCategory]models.CategoryTotal {
	out := make(map[models.BOQCategory]models.CategoryTotal)
	for _, item := range items {
		t := out[item.Category]
		t.Count++
		t.TotalAmount += item.TotalAmount
		t.OrderedAmount += item.OrderedQuantity * item.RatePerUnit
		out[item.Category] = t
	}
	return out
}

// SummarizeBOQ values the items at each quantity stage.
func SummarizeBOQ(items []models.BOQItem) models.BOQSummary {
	s := models.BOQSummary{
		TotalItems:    len(items),
		ByCategory:    make(map[models.BOQCategory]models.BOQCategorySummary),
		ByStatus:      make(map[models.BOQStatus]int),
		CriticalItems: CriticalItems(items),
	}
	for _, item := range items {
		ordered := item.OrderedQuantity * item.RatePerUnit
		received := item.ReceivedQuantity * item.RatePerUnit
		used := item.UsedQuantity * item.RatePerUnit

		s.TotalBudget += item.TotalAmount
		s.OrderedValue += ordered
		s.ReceivedValue += received
		s.UsedValue += used

		c := s.ByCategory[item.Category]
		c.Count++
		c.Budget += item.TotalAmount
		c.Ordered += ordered
		c.Received += received
		c.Used += used
		s.ByCategory[item.Category] = c

		s.ByStatus[item.Status]++
	}
	return s
}

// FormatFixed2 renders v with exactly two decimals.
func FormatFixed2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
