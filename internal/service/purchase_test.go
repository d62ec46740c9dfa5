package service

import (
	"testing"

	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseCreateDefaults(t *testing.T) {
	f := newFixture(t)
	officer := f.user(rbac.RoleLogisticsOfficer, rbac.BaseA)

	pu := f.purchase(officer, "Radio", 10, 5)
	assert.Equal(t, models.StatusPending, pu.Status)
	assert.Equal(t, 10, pu.QuantityAvailable)
	assert.Equal(t, officer.ID, pu.RequestedBy.Hex())
	assert.Equal(t, 50.0, pu.TotalValue())
	assert.NotNil(t, pu.Attachments)
}

func TestPurchaseRejectsUnknownDepartment(t *testing.T) {
	f := newFixture(t)
	officer := f.user(rbac.RoleLogisticsOfficer, rbac.BaseA)

	in := purchaseInput("Radio", 1, 5)
	in.Department = "Astrology"
	_, err := f.svc.Purchases.Create(f.ctx, officer, in)
	requireKind(t, err, apperror.KindValidation)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "department", appErr.Field)
}

func TestPurchaseScopeHidesOtherBases(t *testing.T) {
	f := newFixture(t)
	a := f.user(rbac.RoleLogisticsOfficer, rbac.BaseA)
	b := f.user(rbac.RoleBaseCommander, rbac.BaseB)
	admin := f.user(rbac.RoleAdmin, rbac.Headquarters)
	pu := f.purchase(a, "Radio", 1, 5)

	_, err := f.svc.Purchases.Get(f.ctx, b, pu.ID.Hex())
	requireKind(t, err, apperror.KindNotFound)

	list, err := f.svc.Purchases.List(f.ctx, b, PurchaseFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = f.svc.Purchases.List(f.ctx, admin, PurchaseFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.Purchases.Get(f.ctx, b, "not-an-id")
	requireKind(t, err, apperror.KindValidation)
}

func TestPurchaseListFilters(t *testing.T) {
	f := newFixture(t)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	f.purchase(cmd, "Radio", 1, 5)
	in := purchaseInput("Rifle", 2, 900)
	in.Category = "Weapons"
	_, err := f.svc.Purchases.Create(f.ctx, cmd, in)
	require.NoError(t, err)

	list, err := f.svc.Purchases.List(f.ctx, cmd, PurchaseFilter{Category: "Weapons"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Rifle", list[0].Item)

	all, err := f.svc.Purchases.List(f.ctx, cmd, PurchaseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Rifle", all[0].Item, "newest first")
}

func TestPurchaseOwnershipException(t *testing.T) {
	f := newFixture(t)
	owner := f.user(rbac.RoleLogisticsOfficer, rbac.BaseA)
	peer := f.user(rbac.RoleLogisticsOfficer, rbac.BaseA)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	pu := f.purchase(owner, "Radio", 4, 5)

	_, err := f.svc.Purchases.Update(f.ctx, peer, pu.ID.Hex(), purchaseInput("Radio", 5, 5))
	requireKind(t, err, apperror.KindInsufficientPermission)

	updated, err := f.svc.Purchases.Update(f.ctx, owner, pu.ID.Hex(), purchaseInput("Radio", 5, 5))
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)
	assert.Equal(t, 5, updated.QuantityAvailable)

	err = f.svc.Purchases.Delete(f.ctx, peer, pu.ID.Hex())
	requireKind(t, err, apperror.KindInsufficientPermission)

	require.NoError(t, f.svc.Purchases.Delete(f.ctx, cmd, pu.ID.Hex()))
}

func TestPurchaseApproveRequiresPermission(t *testing.T) {
	f := newFixture(t)
	officer := f.user(rbac.RoleLogisticsOfficer, rbac.BaseA)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	pu := f.purchase(officer, "Radio", 4, 5)

	_, err := f.svc.Purchases.UpdateStatus(f.ctx, officer, pu.ID.Hex(), models.StatusApproved)
	requireKind(t, err, apperror.KindInsufficientPermission)

	_, err = f.svc.Purchases.Approve(f.ctx, officer, pu.ID.Hex())
	requireKind(t, err, apperror.KindInsufficientPermission)

	approved, err := f.svc.Purchases.Approve(f.ctx, cmd, pu.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, cmd.ID, approved.ApprovedBy.Hex())
	assert.True(t, f.notes.has(officer.ID, "purchase_status_changed"))
}

func TestPurchaseDeliveredIsTerminal(t *testing.T) {
	f := newFixture(t)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	pu := f.delivered(cmd, "Radio", 10, 5)
	assert.Equal(t, models.StatusDelivered, pu.Status)

	again, err := f.svc.Purchases.UpdateStatus(f.ctx, cmd, pu.ID.Hex(), models.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, pu.UpdatedAt, again.UpdatedAt, "repeat is a no-op")

	_, err = f.svc.Purchases.UpdateStatus(f.ctx, cmd, pu.ID.Hex(), models.StatusCancelled)
	requireKind(t, err, apperror.KindInvalidStateTransition)

	_, err = f.svc.Purchases.Update(f.ctx, cmd, pu.ID.Hex(), purchaseInput("Radio", 12, 5))
	requireKind(t, err, apperror.KindInvalidStateTransition)
}

func TestPurchaseQuantityCannotDropBelowReserved(t *testing.T) {
	f := newFixture(t)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	pu := f.purchase(cmd, "Radio", 10, 5)
	_, err := f.svc.Assignments.Create(f.ctx, cmd, assignmentInput(cmd, pu, 8))
	require.NoError(t, err)

	_, err = f.svc.Purchases.Update(f.ctx, cmd, pu.ID.Hex(), purchaseInput("Radio", 5, 5))
	requireKind(t, err, apperror.KindValidation)
	assert.Equal(t, 2, f.available(pu.ID))
}

func TestAvailableEquipment(t *testing.T) {
	f := newFixture(t)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	f.purchase(cmd, "Pending Radio", 3, 5)
	radio := f.delivered(cmd, "Radio", 2, 5)
	f.delivered(cmd, "Antenna", 1, 5)

	_, err := f.svc.Assignments.Create(f.ctx, cmd, assignmentInput(cmd, radio, 2))
	require.NoError(t, err)

	items, err := f.svc.Purchases.AvailableEquipment(f.ctx, cmd, "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Antenna", items[0].Item)
}

func TestPurchaseAttachment(t *testing.T) {
	f := newFixture(t)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	pu := f.purchase(cmd, "Radio", 1, 5)

	updated, err := f.svc.Purchases.AddAttachment(f.ctx, cmd, pu.ID.Hex(), "https://cdn.example.com/quote.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/quote.pdf"}, updated.Attachments)
}
