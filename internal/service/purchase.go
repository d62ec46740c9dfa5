package service

import (
	"context"
	"time"

	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"
	"military-logistics-api-server/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PurchaseService struct {
	*core
}

type PurchaseInput struct {
	Item           string     `json:"item" validate:"required"`
	Category       string     `json:"category" validate:"required,purchasecategory"`
	Quantity       int        `json:"quantity" validate:"required,min=1"`
	UnitPrice      float64    `json:"unitPrice" validate:"min=0"`
	Supplier       string     `json:"supplier" validate:"required"`
	Department     string     `json:"department" validate:"required,department"`
	RequestDate    *time.Time `json:"requestDate"`
	RequiredDate   time.Time  `json:"requiredDate" validate:"required"`
	Justification  string     `json:"justification" validate:"required"`
	Specifications string     `json:"specifications"`
	Description    string     `json:"description"`
}

type PurchaseFilter struct {
	Category  string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
}

func (s *PurchaseService) scope(ctx context.Context, p *rbac.Principal) (store.Filter, error) {
	return s.ownedScope(ctx, p, "requestedBy")
}

func (s *PurchaseService) Create(ctx context.Context, p *rbac.Principal, in PurchaseInput) (*models.Purchase, error) {
	if err := rbac.Authorize(p, rbac.Create(rbac.ResourcePurchase), ""); err != nil {
		return nil, err
	}
	owner, err := actorID(p)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := s.now()
	purchase := &models.Purchase{
		ID:                primitive.NewObjectID(),
		Item:              in.Item,
		Category:          in.Category,
		Quantity:          in.Quantity,
		QuantityAvailable: in.Quantity,
		UnitPrice:         in.UnitPrice,
		Supplier:          in.Supplier,
		Status:            models.StatusPending,
		RequestedBy:       owner,
		Department:        in.Department,
		RequestDate:       now,
		RequiredDate:      in.RequiredDate,
		Justification:     in.Justification,
		Specifications:    in.Specifications,
		Description:       in.Description,
		Attachments:       []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if in.RequestDate != nil {
		purchase.RequestDate = *in.RequestDate
	}
	if err := s.stores.Purchases.Insert(ctx, purchase); err != nil {
		return nil, apperror.Dependency("Failed to create purchase", err)
	}
	return purchase, nil
}

// List returns scoped purchases, newest first.
func (s *PurchaseService) List(ctx context.Context, p *rbac.Principal, q PurchaseFilter) ([]models.Purchase, error) {
	if err := rbac.Authorize(p, rbac.View(rbac.ResourcePurchase), ""); err != nil {
		return nil, err
	}
	f, err := s.scope(ctx, p)
	if err != nil {
		return nil, err
	}
	if q.Category != "" {
		f = store.And(f, store.Eq("category", q.Category))
	}
	if q.Status != "" {
		f = store.And(f, store.Eq("status", q.Status))
	}
	f = store.And(f, dateRange("createdAt", q.StartDate, q.EndDate))

	purchases, err := s.stores.Purchases.Find(ctx, f, store.SortDesc("createdAt"))
	if err != nil {
		return nil, apperror.Dependency("Failed to query purchases", err)
	}
	return purchases, nil
}

// AvailableEquipment lists delivered purchases with units left to assign,
// ordered by item name.
func (s *PurchaseService) AvailableEquipment(ctx context.Context, p *rbac.Principal, category string) ([]models.Purchase, error) {
	if err := rbac.Authorize(p, rbac.View(rbac.ResourcePurchase), ""); err != nil {
		return nil, err
	}
	f, err := s.scope(ctx, p)
	if err != nil {
		return nil, err
	}
	f = store.And(f, store.Eq("status", models.StatusDelivered), store.Gt("quantityAvailable", 0))
	if category != "" {
		f = store.And(f, store.Eq("category", category))
	}
	purchases, err := s.stores.Purchases.Find(ctx, f, store.SortAsc("item"))
	if err != nil {
		return nil, apperror.Dependency("Failed to query purchases", err)
	}
	return purchases, nil
}

func (s *PurchaseService) Get(ctx context.Context, p *rbac.Principal, id string) (*models.Purchase, error) {
	if err := rbac.Authorize(p, rbac.View(rbac.ResourcePurchase), ""); err != nil {
		return nil, err
	}
	return s.load(ctx, p, id)
}

func (s *PurchaseService) load(ctx context.Context, p *rbac.Principal, id string) (*models.Purchase, error) {
	oid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	f, err := s.scope(ctx, p)
	if err != nil {
		return nil, err
	}
	return findScoped(ctx, s.stores.Purchases, f, oid, "Purchase")
}

// Update edits every field except status. A quantity change shifts
// quantityAvailable by the same amount and is refused when units already
// reserved would make it negative.
func (s *PurchaseService) Update(ctx context.Context, p *rbac.Principal, id string, in PurchaseInput) (*models.Purchase, error) {
	purchase, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(p, rbac.UpdateAny(rbac.ResourcePurchase), purchase.RequestedBy.Hex()); err != nil {
		return nil, err
	}
	if purchase.Status == models.StatusDelivered {
		return nil, apperror.InvalidState("Cannot update delivered purchase")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	set := bson.M{
		"item":           in.Item,
		"category":       in.Category,
		"quantity":       in.Quantity,
		"unitPrice":      in.UnitPrice,
		"supplier":       in.Supplier,
		"department":     in.Department,
		"requiredDate":   in.RequiredDate,
		"justification":  in.Justification,
		"specifications": in.Specifications,
		"description":    in.Description,
		"updatedAt":      s.now(),
	}
	if in.RequestDate != nil {
		set["requestDate"] = *in.RequestDate
	}
	mut := store.Mutation{Set: set}
	guard := store.And(
		store.ID(purchase.ID),
		store.Eq("status", purchase.Status),
		store.Eq("quantity", purchase.Quantity),
	)
	if delta := in.Quantity - purchase.Quantity; delta != 0 {
		mut.Inc = bson.M{"quantityAvailable": delta}
		if delta < 0 {
			guard = store.And(guard, store.Gte("quantityAvailable", -delta))
		}
	}

	ok, err := s.stores.Purchases.Update(ctx, guard, mut)
	if err != nil {
		return nil, apperror.Dependency("Failed to update purchase", err)
	}
	if !ok {
		current, err := findScoped(ctx, s.stores.Purchases, store.All(), purchase.ID, "Purchase")
		if err != nil {
			return nil, err
		}
		if current.Status != purchase.Status || current.Quantity != purchase.Quantity {
			return nil, apperror.InvalidState("Purchase was modified concurrently")
		}
		return nil, apperror.Validation("quantity", "Quantity cannot drop below units already assigned")
	}
	return findScoped(ctx, s.stores.Purchases, store.All(), purchase.ID, "Purchase")
}

// Delete has no status restriction.
func (s *PurchaseService) Delete(ctx context.Context, p *rbac.Principal, id string) error {
	purchase, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	if err := rbac.Authorize(p, rbac.DeleteAny(rbac.ResourcePurchase), purchase.RequestedBy.Hex()); err != nil {
		return err
	}
	if _, err := s.stores.Purchases.Delete(ctx, store.ID(purchase.ID)); err != nil {
		return apperror.Dependency("Failed to delete purchase", err)
	}
	return nil
}

// UpdateStatus moves a purchase through its lifecycle. Delivered is terminal
// and first seeds quantityAvailable when it is still zero.
func (s *PurchaseService) UpdateStatus(ctx context.Context, p *rbac.Principal, id, status string) (*models.Purchase, error) {
	purchase, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(p, rbac.UpdateAny(rbac.ResourcePurchase), purchase.RequestedBy.Hex()); err != nil {
		return nil, err
	}
	if status == models.StatusApproved {
		if err := rbac.Authorize(p, rbac.Approve(rbac.ResourcePurchase), ""); err != nil {
			return nil, err
		}
	}
	return s.transition(ctx, p, purchase, status)
}

// Approve is the approval shortcut, gated on purchase:approve alone.
func (s *PurchaseService) Approve(ctx context.Context, p *rbac.Principal, id string) (*models.Purchase, error) {
	if err := rbac.Authorize(p, rbac.Approve(rbac.ResourcePurchase), ""); err != nil {
		return nil, err
	}
	purchase, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, p, purchase, models.StatusApproved)
}

func (s *PurchaseService) transition(ctx context.Context, p *rbac.Principal, purchase *models.Purchase, status string) (*models.Purchase, error) {
	done, err := statusGuard("Purchase", models.PurchaseStatuses, models.StatusDelivered, purchase.Status, status)
	if err != nil {
		return nil, err
	}
	if done {
		return purchase, nil
	}

	set := bson.M{"status": status, "updatedAt": s.now()}
	if status == models.StatusApproved {
		approver, err := actorID(p)
		if err != nil {
			return nil, err
		}
		set["approvedBy"] = approver
	}
	if status == models.StatusDelivered && purchase.QuantityAvailable == 0 {
		set["quantityAvailable"] = purchase.Quantity
	}

	ok, err := s.stores.Purchases.Update(ctx, store.And(store.ID(purchase.ID), store.Eq("status", purchase.Status)), store.Set(set))
	if err != nil {
		return nil, apperror.Dependency("Failed to update purchase status", err)
	}
	if !ok {
		return nil, apperror.InvalidState("Purchase status changed concurrently")
	}

	updated, err := findScoped(ctx, s.stores.Purchases, store.All(), purchase.ID, "Purchase")
	if err != nil {
		return nil, err
	}
	s.notify.Notify(updated.RequestedBy.Hex(), "purchase_status_changed", updated)
	return updated, nil
}

// CanAttach reports whether p may add an attachment to the purchase.
func (s *PurchaseService) CanAttach(ctx context.Context, p *rbac.Principal, id string) error {
	purchase, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	return rbac.Authorize(p, rbac.UpdateAny(rbac.ResourcePurchase), purchase.RequestedBy.Hex())
}

// AddAttachment records an uploaded file URL on the purchase.
func (s *PurchaseService) AddAttachment(ctx context.Context, p *rbac.Principal, id, url string) (*models.Purchase, error) {
	purchase, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(p, rbac.UpdateAny(rbac.ResourcePurchase), purchase.RequestedBy.Hex()); err != nil {
		return nil, err
	}
	if _, err := s.stores.Purchases.Update(ctx, store.ID(purchase.ID), store.Mutation{
		Set:  bson.M{"updatedAt": s.now()},
		Push: bson.M{"attachments": url},
	}); err != nil {
		return nil, apperror.Dependency("Failed to update purchase", err)
	}
	return findScoped(ctx, s.stores.Purchases, store.All(), purchase.ID, "Purchase")
}

func dateRange(field string, from, to *time.Time) store.Filter {
	f := store.All()
	if from != nil {
		f = store.And(f, store.Gte(field, *from))
	}
	if to != nil {
		f = store.And(f, store.Lte(field, *to))
	}
	return f
}
