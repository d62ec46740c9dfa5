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

type TransferService struct {
	*core
}

type TransferInput struct {
	Equipment         string    `json:"equipment" validate:"required"`
	Quantity          int       `json:"quantity" validate:"required,min=1"`
	FromLocation      string    `json:"fromLocation" validate:"required"`
	ToLocation        string    `json:"toLocation" validate:"required"`
	SourceBaseID      rbac.Base `json:"sourceBaseId" validate:"required,base"`
	DestinationBaseID rbac.Base `json:"destinationBaseId" validate:"required,base"`
	EquipmentID       string    `json:"equipmentId" validate:"omitempty,mongodb"`
	Reason            string    `json:"reason"`
	TransportMethod   string    `json:"transportMethod" validate:"omitempty,transportmethod"`
	ExpectedDate      time.Time `json:"expectedDate" validate:"required"`
	Description       string    `json:"description"`
}

// check validates in and, for base-restricted principals, requires the
// transfer to touch their own base so it stays visible to them.
func (in TransferInput) check(p *rbac.Principal) error {
	if err := validateInput(in); err != nil {
		return err
	}
	scope := rbac.ScopeFor(p)
	if scope.Kind == rbac.ScopeBaseRestricted && in.SourceBaseID != scope.Base && in.DestinationBaseID != scope.Base {
		return apperror.Validation("sourceBaseId", "Transfer must leave from or arrive at your base")
	}
	return nil
}

func (in TransferInput) equipmentRef() *primitive.ObjectID {
	if in.EquipmentID == "" {
		return nil
	}
	oid, err := primitive.ObjectIDFromHex(in.EquipmentID)
	if err != nil {
		return nil
	}
	return &oid
}

func (s *TransferService) Create(ctx context.Context, p *rbac.Principal, in TransferInput) (*models.Transfer, error) {
	if err := rbac.Authorize(p, rbac.Create(rbac.ResourceTransfer), ""); err != nil {
		return nil, err
	}
	owner, err := actorID(p)
	if err != nil {
		return nil, err
	}
	if err := in.check(p); err != nil {
		return nil, err
	}

	now := s.now()
	transfer := &models.Transfer{
		ID:                primitive.NewObjectID(),
		Equipment:         in.Equipment,
		Quantity:          in.Quantity,
		FromLocation:      in.FromLocation,
		ToLocation:        in.ToLocation,
		SourceBaseID:      in.SourceBaseID,
		DestinationBaseID: in.DestinationBaseID,
		EquipmentID:       in.equipmentRef(),
		Reason:            in.Reason,
		TransportMethod:   in.TransportMethod,
		Status:            models.StatusPending,
		RequestedBy:       owner,
		ExpectedDate:      in.ExpectedDate,
		Description:       in.Description,
		Attachments:       []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if transfer.Reason == "" {
		transfer.Reason = models.DefaultTransferReason
	}
	if transfer.TransportMethod == "" {
		transfer.TransportMethod = models.DefaultTransportMethod
	}
	if err := s.stores.Transfers.Insert(ctx, transfer); err != nil {
		return nil, apperror.Dependency("Failed to create transfer", err)
	}
	return transfer, nil
}

// List returns transfers leaving or entering p's base, newest first.
func (s *TransferService) List(ctx context.Context, p *rbac.Principal) ([]models.Transfer, error) {
	if err := rbac.Authorize(p, rbac.View(rbac.ResourceTransfer), ""); err != nil {
		return nil, err
	}
	transfers, err := s.stores.Transfers.Find(ctx, transferScope(p), store.SortDesc("createdAt"))
	if err != nil {
		return nil, apperror.Dependency("Failed to query transfers", err)
	}
	return transfers, nil
}

func (s *TransferService) Get(ctx context.Context, p *rbac.Principal, id string) (*models.Transfer, error) {
	if err := rbac.Authorize(p, rbac.View(rbac.ResourceTransfer), ""); err != nil {
		return nil, err
	}
	return s.load(ctx, p, id)
}

func (s *TransferService) load(ctx context.Context, p *rbac.Principal, id string) (*models.Transfer, error) {
	oid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	return findScoped(ctx, s.stores.Transfers, transferScope(p), oid, "Transfer")
}

// Update edits every field except status. Completed transfers are frozen;
// cancelled ones are not.
func (s *TransferService) Update(ctx context.Context, p *rbac.Principal, id string, in TransferInput) (*models.Transfer, error) {
	transfer, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(p, rbac.UpdateAny(rbac.ResourceTransfer), transfer.RequestedBy.Hex()); err != nil {
		return nil, err
	}
	if transfer.Status == models.StatusCompleted {
		return nil, apperror.InvalidState("Cannot update completed transfer")
	}
	if err := in.check(p); err != nil {
		return nil, err
	}

	set := bson.M{
		"equipment":         in.Equipment,
		"quantity":          in.Quantity,
		"fromLocation":      in.FromLocation,
		"toLocation":        in.ToLocation,
		"sourceBaseId":      in.SourceBaseID,
		"destinationBaseId": in.DestinationBaseID,
		"equipmentId":       in.equipmentRef(),
		"expectedDate":      in.ExpectedDate,
		"description":       in.Description,
		"updatedAt":         s.now(),
	}
	if in.Reason != "" {
		set["reason"] = in.Reason
	}
	if in.TransportMethod != "" {
		set["transportMethod"] = in.TransportMethod
	}

	ok, err := s.stores.Transfers.Update(ctx, store.And(store.ID(transfer.ID), store.Eq("status", transfer.Status)), store.Set(set))
	if err != nil {
		return nil, apperror.Dependency("Failed to update transfer", err)
	}
	if !ok {
		return nil, apperror.InvalidState("Transfer status changed concurrently")
	}
	return findScoped(ctx, s.stores.Transfers, store.All(), transfer.ID, "Transfer")
}

// Delete only removes Pending transfers.
func (s *TransferService) Delete(ctx context.Context, p *rbac.Principal, id string) error {
	transfer, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	if err := rbac.Authorize(p, rbac.DeleteAny(rbac.ResourceTransfer), transfer.RequestedBy.Hex()); err != nil {
		return err
	}
	if transfer.Status != models.StatusPending {
		return apperror.InvalidState("Can only delete pending transfers")
	}
	ok, err := s.stores.Transfers.Delete(ctx, store.And(store.ID(transfer.ID), store.Eq("status", models.StatusPending)))
	if err != nil {
		return apperror.Dependency("Failed to delete transfer", err)
	}
	if !ok {
		return apperror.InvalidState("Can only delete pending transfers")
	}
	return nil
}

// UpdateStatus stamps actualDate and approvedBy once, on entering Completed.
func (s *TransferService) UpdateStatus(ctx context.Context, p *rbac.Principal, id, status string) (*models.Transfer, error) {
	transfer, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(p, rbac.UpdateAny(rbac.ResourceTransfer), transfer.RequestedBy.Hex()); err != nil {
		return nil, err
	}
	done, err := statusGuard("Transfer", models.TransferStatuses, models.StatusCompleted, transfer.Status, status)
	if err != nil {
		return nil, err
	}
	if done {
		return transfer, nil
	}

	now := s.now()
	set := bson.M{"status": status, "updatedAt": now}
	if status == models.StatusCompleted {
		if err := rbac.Authorize(p, rbac.Approve(rbac.ResourceTransfer), ""); err != nil {
			return nil, err
		}
		approver, err := actorID(p)
		if err != nil {
			return nil, err
		}
		set["actualDate"] = now
		set["approvedBy"] = approver
	}

	ok, err := s.stores.Transfers.Update(ctx, store.And(store.ID(transfer.ID), store.Eq("status", transfer.Status)), store.Set(set))
	if err != nil {
		return nil, apperror.Dependency("Failed to update transfer status", err)
	}
	if !ok {
		return nil, apperror.InvalidState("Transfer status changed concurrently")
	}

	updated, err := findScoped(ctx, s.stores.Transfers, store.All(), transfer.ID, "Transfer")
	if err != nil {
		return nil, err
	}
	s.notify.Notify(updated.RequestedBy.Hex(), "transfer_status_changed", updated)
	return updated, nil
}

// CanAttach reports whether p may add an attachment to the transfer.
func (s *TransferService) CanAttach(ctx context.Context, p *rbac.Principal, id string) error {
	transfer, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	return rbac.Authorize(p, rbac.UpdateAny(rbac.ResourceTransfer), transfer.RequestedBy.Hex())
}

func (s *TransferService) AddAttachment(ctx context.Context, p *rbac.Principal, id, url string) (*models.Transfer, error) {
	transfer, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(p, rbac.UpdateAny(rbac.ResourceTransfer), transfer.RequestedBy.Hex()); err != nil {
		return nil, err
	}
	if _, err := s.stores.Transfers.Update(ctx, store.ID(transfer.ID), store.Mutation{
		Set:  bson.M{"updatedAt": s.now()},
		Push: bson.M{"attachments": url},
	}); err != nil {
		return nil, apperror.Dependency("Failed to update transfer", err)
	}
	return findScoped(ctx, s.stores.Transfers, store.All(), transfer.ID, "Transfer")
}
