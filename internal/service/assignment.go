package service

import (
	"context"
	"errors"

	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"
	"military-logistics-api-server/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AssignmentService struct {
	*core
}

type AssignmentInput struct {
	Personnel         string   `json:"personnel" validate:"required,mongodb"`
	Title             string   `json:"assignment" validate:"required"`
	Unit              string   `json:"unit" validate:"required"`
	Qty               int      `json:"qty" validate:"omitempty,min=1"`
	Duties            []string `json:"duties"`
	EquipmentPurchase string   `json:"equipmentPurchase" validate:"omitempty,mongodb"`
	EquipmentQuantity int      `json:"equipmentQuantity" validate:"min=0"`
	Equipment         string   `json:"equipment"`
	EquipmentType     string   `json:"equipmentType" validate:"equipmenttype"`
	Description       string   `json:"description"`
}

func (in AssignmentInput) purchaseRef() *primitive.ObjectID {
	if in.EquipmentPurchase == "" {
		return nil
	}
	oid, err := primitive.ObjectIDFromHex(in.EquipmentPurchase)
	if err != nil {
		return nil
	}
	return &oid
}

func (s *AssignmentService) scope(ctx context.Context, p *rbac.Principal) (store.Filter, error) {
	return s.ownedScope(ctx, p, "assignedBy")
}

// Create records the assignment and reserves its equipment units from the
// referenced purchase. The reservation happens while the assignment is still
// Pending and is refused when the purchase cannot cover it.
func (s *AssignmentService) Create(ctx context.Context, p *rbac.Principal, in AssignmentInput) (*models.Assignment, error) {
	if err := rbac.Authorize(p, rbac.Create(rbac.ResourceAssignment), ""); err != nil {
		return nil, err
	}
	owner, err := actorID(p)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	personnel, err := s.checkPersonnel(ctx, p, in.Personnel)
	if err != nil {
		return nil, err
	}

	now := s.now()
	assignment := &models.Assignment{
		ID:                primitive.NewObjectID(),
		Personnel:         personnel,
		Title:             in.Title,
		Unit:              in.Unit,
		Qty:               in.Qty,
		Duties:            in.Duties,
		Status:            models.StatusPending,
		AssignedBy:        owner,
		EquipmentPurchase: in.purchaseRef(),
		EquipmentQuantity: in.EquipmentQuantity,
		Equipment:         in.Equipment,
		EquipmentType:     in.EquipmentType,
		Description:       in.Description,
		Attachments:       []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if assignment.Qty == 0 {
		assignment.Qty = 1
	}
	if assignment.Duties == nil {
		assignment.Duties = []string{}
	}

	if assignment.Reserves() {
		if err := s.checkPurchase(ctx, p, *assignment.EquipmentPurchase); err != nil {
			return nil, err
		}
		if err := s.reserve(ctx, *assignment.EquipmentPurchase, assignment.EquipmentQuantity); err != nil {
			return nil, err
		}
	}

	if err := s.stores.Assignments.Insert(ctx, assignment); err != nil {
		if assignment.Reserves() {
			_, _ = store.AdjustAvailable(ctx, s.stores.Purchases, *assignment.EquipmentPurchase, assignment.EquipmentQuantity)
		}
		return nil, apperror.Dependency("Failed to create assignment", err)
	}

	s.notify.Notify(assignment.Personnel.Hex(), "assignment_created", assignment)
	return assignment, nil
}

func (s *AssignmentService) checkPersonnel(ctx context.Context, p *rbac.Principal, id string) (primitive.ObjectID, error) {
	oid, err := parseID("personnel", id)
	if err != nil {
		return primitive.NilObjectID, err
	}
	n, err := s.stores.Users.Count(ctx, store.And(store.ID(oid), userScope(p)))
	if err != nil {
		return primitive.NilObjectID, apperror.Dependency("Failed to query users", err)
	}
	if n == 0 {
		return primitive.NilObjectID, apperror.Validation("personnel", "Personnel not found")
	}
	return oid, nil
}

func (s *AssignmentService) checkPurchase(ctx context.Context, p *rbac.Principal, id primitive.ObjectID) error {
	f, err := s.ownedScope(ctx, p, "requestedBy")
	if err != nil {
		return err
	}
	n, err := s.stores.Purchases.Count(ctx, store.And(store.ID(id), f))
	if err != nil {
		return apperror.Dependency("Failed to query purchases", err)
	}
	if n == 0 {
		return apperror.Validation("equipmentPurchase", "Equipment purchase not found")
	}
	return nil
}

// reserve takes qty units from the purchase in one conditional write.
func (s *AssignmentService) reserve(ctx context.Context, purchaseID primitive.ObjectID, qty int) error {
	ok, err := store.AdjustAvailable(ctx, s.stores.Purchases, purchaseID, -qty)
	if err != nil {
		return apperror.Dependency("Failed to update equipment availability", err)
	}
	if ok {
		return nil
	}
	purchase, err := s.stores.Purchases.FindOne(ctx, store.ID(purchaseID))
	if errors.Is(err, store.ErrNotFound) {
		return apperror.Validation("equipmentPurchase", "Equipment purchase not found")
	}
	if err != nil {
		return apperror.Dependency("Failed to load purchase", err)
	}
	return apperror.InsufficientInventory(qty, purchase.QuantityAvailable)
}

func (s *AssignmentService) release(ctx context.Context, purchaseID primitive.ObjectID, qty int) error {
	if _, err := store.AdjustAvailable(ctx, s.stores.Purchases, purchaseID, qty); err != nil {
		return apperror.Dependency("Failed to restore equipment availability", err)
	}
	return nil
}

// List returns scoped assignments, newest first.
func (s *AssignmentService) List(ctx context.Context, p *rbac.Principal) ([]models.Assignment, error) {
	if err := rbac.Authorize(p, rbac.View(rbac.ResourceAssignment), ""); err != nil {
		return nil, err
	}
	f, err := s.scope(ctx, p)
	if err != nil {
		return nil, err
	}
	assignments, err := s.stores.Assignments.Find(ctx, f, store.SortDesc("createdAt"))
	if err != nil {
		return nil, apperror.Dependency("Failed to query assignments", err)
	}
	return assignments, nil
}

// ListByPersonnel returns the scoped assignments of one person.
func (s *AssignmentService) ListByPersonnel(ctx context.Context, p *rbac.Principal, personnelID string) ([]models.Assignment, error) {
	if err := rbac.Authorize(p, rbac.View(rbac.ResourceAssignment), ""); err != nil {
		return nil, err
	}
	oid, err := parseID("personnelId", personnelID)
	if err != nil {
		return nil, err
	}
	f, err := s.scope(ctx, p)
	if err != nil {
		return nil, err
	}
	assignments, err := s.stores.Assignments.Find(ctx, store.And(f, store.Eq("personnel", oid)), store.SortDesc("createdAt"))
	if err != nil {
		return nil, apperror.Dependency("Failed to query assignments", err)
	}
	return assignments, nil
}

func (s *AssignmentService) Get(ctx context.Context, p *rbac.Principal, id string) (*models.Assignment, error) {
	if err := rbac.Authorize(p, rbac.View(rbac.ResourceAssignment), ""); err != nil {
		return nil, err
	}
	return s.load(ctx, p, id)
}

func (s *AssignmentService) load(ctx context.Context, p *rbac.Principal, id string) (*models.Assignment, error) {
	oid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	f, err := s.scope(ctx, p)
	if err != nil {
		return nil, err
	}
	return findScoped(ctx, s.stores.Assignments, f, oid, "Assignment")
}

// Update edits the descriptive fields. The equipment reservation is fixed at
// creation and cannot be changed here.
func (s *AssignmentService) Update(ctx context.Context, p *rbac.Principal, id string, in AssignmentInput) (*models.Assignment, error) {
	assignment, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(p, rbac.UpdateAny(rbac.ResourceAssignment), assignment.AssignedBy.Hex()); err != nil {
		return nil, err
	}
	if assignment.Status == models.StatusCompleted {
		return nil, apperror.InvalidState("Cannot update completed assignment")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !sameRef(in.purchaseRef(), assignment.EquipmentPurchase) || in.EquipmentQuantity != assignment.EquipmentQuantity {
		return nil, apperror.Validation("equipmentPurchase", "Equipment reservation cannot be changed after creation")
	}
	personnel, err := s.checkPersonnel(ctx, p, in.Personnel)
	if err != nil {
		return nil, err
	}

	duties := in.Duties
	if duties == nil {
		duties = []string{}
	}
	qty := in.Qty
	if qty == 0 {
		qty = assignment.Qty
	}
	set := bson.M{
		"personnel":     personnel,
		"assignment":    in.Title,
		"unit":          in.Unit,
		"qty":           qty,
		"duties":        duties,
		"equipment":     in.Equipment,
		"equipmentType": in.EquipmentType,
		"description":   in.Description,
		"updatedAt":     s.now(),
	}
	ok, err := s.stores.Assignments.Update(ctx, store.And(store.ID(assignment.ID), store.Eq("status", assignment.Status)), store.Set(set))
	if err != nil {
		return nil, apperror.Dependency("Failed to update assignment", err)
	}
	if !ok {
		return nil, apperror.InvalidState("Assignment status changed concurrently")
	}
	return findScoped(ctx, s.stores.Assignments, store.All(), assignment.ID, "Assignment")
}

func sameRef(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Delete removes a Pending assignment and returns its reserved units.
func (s *AssignmentService) Delete(ctx context.Context, p *rbac.Principal, id string) error {
	assignment, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	if err := rbac.Authorize(p, rbac.DeleteAny(rbac.ResourceAssignment), assignment.AssignedBy.Hex()); err != nil {
		return err
	}
	if assignment.Status != models.StatusPending {
		return apperror.InvalidState("Can only delete pending assignments")
	}

	ok, err := s.stores.Assignments.Delete(ctx, store.And(store.ID(assignment.ID), store.Eq("status", models.StatusPending)))
	if err != nil {
		return apperror.Dependency("Failed to delete assignment", err)
	}
	if !ok {
		return apperror.InvalidState("Can only delete pending assignments")
	}
	if assignment.Reserves() {
		return s.release(ctx, *assignment.EquipmentPurchase, assignment.EquipmentQuantity)
	}
	return nil
}

// UpdateStatus applies the inventory side effects of a transition: Active
// takes the units again, Completed gives them back. A repeat of the current
// status does nothing.
func (s *AssignmentService) UpdateStatus(ctx context.Context, p *rbac.Principal, id, status string) (*models.Assignment, error) {
	assignment, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(p, rbac.UpdateAny(rbac.ResourceAssignment), assignment.AssignedBy.Hex()); err != nil {
		return nil, err
	}
	done, err := statusGuard("Assignment", models.AssignmentStatuses, models.StatusCompleted, assignment.Status, status)
	if err != nil {
		return nil, err
	}
	if done {
		return assignment, nil
	}

	set := bson.M{"status": status, "updatedAt": s.now()}
	if status == models.StatusCompleted {
		if err := rbac.Authorize(p, rbac.Approve(rbac.ResourceAssignment), ""); err != nil {
			return nil, err
		}
		approver, err := actorID(p)
		if err != nil {
			return nil, err
		}
		set["approvedBy"] = approver
	}

	reserved := false
	if status == models.StatusActive && assignment.Reserves() {
		if err := s.reserve(ctx, *assignment.EquipmentPurchase, assignment.EquipmentQuantity); err != nil {
			return nil, err
		}
		reserved = true
	}

	ok, err := s.stores.Assignments.Update(ctx, store.And(store.ID(assignment.ID), store.Eq("status", assignment.Status)), store.Set(set))
	if err == nil && !ok {
		err = apperror.InvalidState("Assignment status changed concurrently")
	} else if err != nil {
		err = apperror.Dependency("Failed to update assignment status", err)
	}
	if err != nil {
		if reserved {
			_ = s.release(ctx, *assignment.EquipmentPurchase, assignment.EquipmentQuantity)
		}
		return nil, err
	}

	if status == models.StatusCompleted && assignment.Reserves() {
		if err := s.release(ctx, *assignment.EquipmentPurchase, assignment.EquipmentQuantity); err != nil {
			return nil, err
		}
	}

	updated, err := findScoped(ctx, s.stores.Assignments, store.All(), assignment.ID, "Assignment")
	if err != nil {
		return nil, err
	}
	s.notify.Notify(updated.Personnel.Hex(), "assignment_status_changed", updated)
	if updated.AssignedBy != updated.Personnel {
		s.notify.Notify(updated.AssignedBy.Hex(), "assignment_status_changed", updated)
	}
	return updated, nil
}

// CanAttach reports whether p may add an attachment to the assignment.
func (s *AssignmentService) CanAttach(ctx context.Context, p *rbac.Principal, id string) error {
	assignment, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	return rbac.Authorize(p, rbac.UpdateAny(rbac.ResourceAssignment), assignment.AssignedBy.Hex())
}

func (s *AssignmentService) AddAttachment(ctx context.Context, p *rbac.Principal, id, url string) (*models.Assignment, error) {
	assignment, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(p, rbac.UpdateAny(rbac.ResourceAssignment), assignment.AssignedBy.Hex()); err != nil {
		return nil, err
	}
	if _, err := s.stores.Assignments.Update(ctx, store.ID(assignment.ID), store.Mutation{
		Set:  bson.M{"updatedAt": s.now()},
		Push: bson.M{"attachments": url},
	}); err != nil {
		return nil, apperror.Dependency("Failed to update assignment", err)
	}
	return findScoped(ctx, s.stores.Assignments, store.All(), assignment.ID, "Assignment")
}
