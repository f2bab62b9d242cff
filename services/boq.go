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

type BOQService struct {
	store    *repository.Store
	activity *ActivityService
	now      func() time.Time
}

func NewBOQService(store *repository.Store, activity *ActivityService) *BOQService {
	return &BOQService{store: store, activity: activity, now: time.Now}
}

// List returns the filtered items of a project with category totals.
func (s *BOQService) List(ctx context.Context, c Caller, projectID string, f repository.BOQFilter) ([]models.BOQItem, models.BOQTotals, error) {
	if err := CheckProjectAccess(c, projectID); err != nil {
		return nil, models.BOQTotals{}, err
	}
	items, err := s.store.ListBOQItems(ctx, projectID, f)
	if err != nil {
		return nil, models.BOQTotals{}, fmt.Errorf("list boq items: %w", err)
	}
	totals := models.BOQTotals{Categories: CategoryTotals(items)}
	for _, ct := range totals.Categories {
		totals.TotalAmount += ct.TotalAmount
		totals.TotalOrdered += ct.OrderedAmount
	}
	return items, totals, nil
}

func (s *BOQService) Summary(ctx context.Context, c Caller, projectID string) (*models.BOQSummary, error) {
	if err := CheckProjectAccess(c, projectID); err != nil {
		return nil, err
	}
	items, err := s.store.ListBOQItems(ctx, projectID, repository.BOQFilter{})
	if err != nil {
		return nil, fmt.Errorf("list boq items: %w", err)
	}
	summary := SummarizeBOQ(items)
	return &summary, nil
}

// Items returns every item of a project for the spreadsheet export.
func (s *BOQService) Items(ctx context.Context, c Caller, projectID string) (*models.Project, []models.BOQItem, error) {
	if err := CheckProjectAccess(c, projectID); err != nil {
		return nil, nil, err
	}
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, nil, lookupErr(err, "Project")
	}
	items, err := s.store.ListBOQItems(ctx, projectID, repository.BOQFilter{})
	if err != nil {
		return nil, nil, fmt.Errorf("list boq items: %w", err)
	}
	return project, items, nil
}

func (s *BOQService) Get(ctx context.Context, c Caller, itemID string) (*models.BOQItem, error) {
	item, err := s.store.GetBOQItem(ctx, itemID)
	if err != nil {
		return nil, lookupErr(err, "BOQ item")
	}
	if err := CheckProjectAccess(c, item.ProjectID); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *BOQService) writable(ctx context.Context, c Caller, itemID string, roles []models.Role) (*models.BOQItem, error) {
	if err := Authorize(c, roles...); err != nil {
		return nil, err
	}
	item, err := s.store.GetBOQItem(ctx, itemID)
	if err != nil {
		return nil, lookupErr(err, "BOQ item")
	}
	if err := CheckProjectAccess(c, item.ProjectID); err != nil {
		return nil, err
	}
	return item, nil
}

// CheckCreate runs the gates of Create for an item of projectID.
func (s *BOQService) CheckCreate(c Caller, projectID string) error {
	if err := Authorize(c, Managers...); err != nil {
		return err
	}
	return CheckProjectAccess(c, projectID)
}

// CheckUpdate and CheckQuantities run the gates of Update and UpdateQuantities.
func (s *BOQService) CheckUpdate(ctx context.Context, c Caller, itemID string) error {
	_, err := s.writable(ctx, c, itemID, Managers)
	return err
}

func (s *BOQService) CheckQuantities(ctx context.Context, c Caller, itemID string) error {
	_, err := s.writable(ctx, c, itemID, SiteStaff)
	return err
}

func validateNewBOQItem(in models.BOQItemInput) *ValidationError {
	var fields []FieldError
	if in.ProjectID == "" {
		fields = append(fields, FieldError{Field: "projectId", Message: "Project ID is required"})
	}
	if in.Category == nil || *in.Category == "" {
		fields = append(fields, FieldError{Field: "category", Message: "Category is required"})
	}
	if in.ItemName == nil || strings.TrimSpace(*in.ItemName) == "" {
		fields = append(fields, FieldError{Field: "itemName", Message: "Item name is required"})
	}
	if in.Unit == nil || strings.TrimSpace(*in.Unit) == "" {
		fields = append(fields, FieldError{Field: "unit", Message: "Unit is required"})
	}
	if in.Quantity == nil {
		fields = append(fields, FieldError{Field: "quantity", Message: "Quantity must be a number"})
	}
	if in.RatePerUnit == nil {
		fields = append(fields, FieldError{Field: "ratePerUnit", Message: "Rate per unit must be a number"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func applyBOQInput(item *models.BOQItem, in models.BOQItemInput) {
	if in.Category != nil {
		item.Category = *in.Category
	}
	if in.ItemName != nil {
		item.ItemName = strings.TrimSpace(*in.ItemName)
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Unit != nil {
		item.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	if in.RatePerUnit != nil {
		item.RatePerUnit = *in.RatePerUnit
	}
	if in.Supplier != nil {
		item.Supplier = datatypes.NewJSONType(*in.Supplier)
	}
	if in.OrderedQuantity != nil {
		item.OrderedQuantity = *in.OrderedQuantity
	}
	if in.ReceivedQuantity != nil {
		item.ReceivedQuantity = *in.ReceivedQuantity
	}
	if in.UsedQuantity != nil {
		item.UsedQuantity = *in.UsedQuantity
	}
	if in.Phase != nil {
		item.Phase = in.Phase
	}
	if in.Floor != nil {
		item.Floor = in.Floor
	}
	if in.OrderDate != nil {
		item.OrderDate = in.OrderDate
	}
	if in.DeliveryDate != nil {
		item.DeliveryDate = in.DeliveryDate
	}
	if in.Notes != nil {
		item.Notes = *in.Notes
	}
}

// Create stores the item and stamps the project's BOQ as updated in one transaction.
func (s *BOQService) Create(ctx context.Context, c Caller, in models.BOQItemInput) (*models.BOQItem, error) {
	if err := s.CheckCreate(c, in.ProjectID); err != nil {
		return nil, err
	}
	if verr := validateNewBOQItem(in); verr != nil {
		return nil, verr
	}
	if _, err := s.store.GetProject(ctx, in.ProjectID); err != nil {
		return nil, lookupErr(err, "Project")
	}

	item := &models.BOQItem{ProjectID: in.ProjectID}
	applyBOQInput(item, in)
	RefreshBOQItem(item)

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.CreateBOQItem(ctx, item); err != nil {
			return err
		}
		return tx.TouchBOQ(ctx, item.ProjectID, s.now())
	})
	if err != nil {
		return nil, fmt.Errorf("create boq item: %w", err)
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "boq",
		Name:        "boq.created",
		Description: fmt.Sprintf("BOQ item %q added (%g %s)", item.ItemName, item.Quantity, item.Unit),
		ProjectID:   item.ProjectID,
		EntityID:    item.ID,
	})
	return item, nil
}

// Update applies in, recomputing the total and the derived status.
func (s *BOQService) Update(ctx context.Context, c Caller, itemID string, in models.BOQItemInput) (*models.BOQItem, error) {
	item, err := s.writable(ctx, c, itemID, Managers)
	if err != nil {
		return nil, err
	}
	if in.ItemName != nil && strings.TrimSpace(*in.ItemName) == "" {
		return nil, Invalid("itemName", "Item name is required")
	}
	applyBOQInput(item, in)
	RefreshBOQItem(item)

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.SaveBOQItem(ctx, item); err != nil {
			return err
		}
		return tx.TouchBOQ(ctx, item.ProjectID, s.now())
	})
	if err != nil {
		return nil, lookupErr(err, "BOQ item")
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "boq",
		Name:        "boq.updated",
		Description: fmt.Sprintf("BOQ item %q updated", item.ItemName),
		ProjectID:   item.ProjectID,
		EntityID:    item.ID,
	})
	return item, nil
}

// UpdateQuantities records ordering, delivery and usage. Dates are only taken
// together with their quantity.
func (s *BOQService) UpdateQuantities(ctx context.Context, c Caller, itemID string, in models.BOQQuantitiesInput) (*models.BOQItem, error) {
	item, err := s.writable(ctx, c, itemID, SiteStaff)
	if err != nil {
		return nil, err
	}
	if in.OrderedQuantity != nil {
		item.OrderedQuantity = *in.OrderedQuantity
		if in.OrderDate != nil {
			item.OrderDate = in.OrderDate
		}
	}
	if in.ReceivedQuantity != nil {
		item.ReceivedQuantity = *in.ReceivedQuantity
		if in.DeliveryDate != nil {
			item.DeliveryDate = in.DeliveryDate
		}
	}
	if in.UsedQuantity != nil {
		item.UsedQuantity = *in.UsedQuantity
	}
	from := item.Status
	RefreshBOQItem(item)

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.SaveBOQItem(ctx, item); err != nil {
			return err
		}
		return tx.TouchBOQ(ctx, item.ProjectID, s.now())
	})
	if err != nil {
		return nil, lookupErr(err, "BOQ item")
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "boq",
		Name:        "boq.quantities",
		Description: fmt.Sprintf("BOQ item %q quantities updated (%s -> %s)", item.ItemName, from, item.Status),
		ProjectID:   item.ProjectID,
		EntityID:    item.ID,
	})
	return item, nil
}

func (s *BOQService) Delete(ctx context.Context, c Caller, itemID string) error {
	item, err := s.writable(ctx, c, itemID, AdminOnly)
	if err != nil {
		return err
	}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.DeleteBOQItem(ctx, item.ID); err != nil {
			return err
		}
		return tx.TouchBOQ(ctx, item.ProjectID, s.now())
	})
	if err != nil {
		return lookupErr(err, "BOQ item")
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "boq",
		Name:        "boq.deleted",
		Description: fmt.Sprintf("BOQ item %q deleted", item.ItemName),
		ProjectID:   item.ProjectID,
		EntityID:    item.ID,
	})
	return nil
}
