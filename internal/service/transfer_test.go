package service

import (
	"testing"

	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferCreateDefaults(t *testing.T) {
	f := newFixture(t)
	officer := f.user(rbac.RoleLogisticsOfficer, rbac.BaseA)

	tr, err := f.svc.Transfers.Create(f.ctx, officer, transferInput("Radio", 3, rbac.BaseA, rbac.BaseB))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, tr.Status)
	assert.Equal(t, models.DefaultTransferReason, tr.Reason)
	assert.Equal(t, models.DefaultTransportMethod, tr.TransportMethod)
}

func TestTransferMustTouchOwnBase(t *testing.T) {
	f := newFixture(t)
	officer := f.user(rbac.RoleLogisticsOfficer, rbac.BaseA)
	admin := f.user(rbac.RoleAdmin, rbac.Headquarters)

	_, err := f.svc.Transfers.Create(f.ctx, officer, transferInput("Radio", 3, rbac.BaseB, rbac.BaseC))
	requireKind(t, err, apperror.KindValidation)

	_, err = f.svc.Transfers.Create(f.ctx, admin, transferInput("Radio", 3, rbac.BaseB, rbac.BaseC))
	require.NoError(t, err)
}

func TestTransferListingByBase(t *testing.T) {
	f := newFixture(t)
	admin := f.user(rbac.RoleAdmin, rbac.Headquarters)
	cmdB := f.user(rbac.RoleBaseCommander, rbac.BaseB)

	ab, err := f.svc.Transfers.Create(f.ctx, admin, transferInput("Radio", 1, rbac.BaseA, rbac.BaseB))
	require.NoError(t, err)
	ac, err := f.svc.Transfers.Create(f.ctx, admin, transferInput("Radio", 1, rbac.BaseA, rbac.BaseC))
	require.NoError(t, err)

	list, err := f.svc.Transfers.List(f.ctx, cmdB)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ab.ID, list[0].ID)

	_, err = f.svc.Transfers.Get(f.ctx, cmdB, ac.ID.Hex())
	requireKind(t, err, apperror.KindNotFound)
}

func TestTransferDeleteOnlyPending(t *testing.T) {
	f := newFixture(t)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)

	tr, err := f.svc.Transfers.Create(f.ctx, cmd, transferInput("Radio", 3, rbac.BaseA, rbac.BaseB))
	require.NoError(t, err)
	_, err = f.svc.Transfers.UpdateStatus(f.ctx, cmd, tr.ID.Hex(), models.StatusInTransit)
	require.NoError(t, err)

	err = f.svc.Transfers.Delete(f.ctx, cmd, tr.ID.Hex())
	requireKind(t, err, apperror.KindInvalidStateTransition)

	_, err = f.svc.Transfers.UpdateStatus(f.ctx, cmd, tr.ID.Hex(), models.StatusCancelled)
	require.NoError(t, err)
	err = f.svc.Transfers.Delete(f.ctx, cmd, tr.ID.Hex())
	requireKind(t, err, apperror.KindInvalidStateTransition)

	pending, err := f.svc.Transfers.Create(f.ctx, cmd, transferInput("Radio", 1, rbac.BaseA, rbac.BaseB))
	require.NoError(t, err)
	require.NoError(t, f.svc.Transfers.Delete(f.ctx, cmd, pending.ID.Hex()))
}

func TestTransferCompletionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	officer := f.user(rbac.RoleLogisticsOfficer, rbac.BaseA)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)

	tr, err := f.svc.Transfers.Create(f.ctx, officer, transferInput("Radio", 3, rbac.BaseA, rbac.BaseB))
	require.NoError(t, err)

	_, err = f.svc.Transfers.UpdateStatus(f.ctx, officer, tr.ID.Hex(), models.StatusCompleted)
	requireKind(t, err, apperror.KindInsufficientPermission)

	done, err := f.svc.Transfers.UpdateStatus(f.ctx, cmd, tr.ID.Hex(), models.StatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, done.ActualDate)
	require.NotNil(t, done.ApprovedBy)
	assert.True(t, f.notes.has(officer.ID, "transfer_status_changed"))

	again, err := f.svc.Transfers.UpdateStatus(f.ctx, cmd, tr.ID.Hex(), models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, done.ActualDate, again.ActualDate)

	_, err = f.svc.Transfers.UpdateStatus(f.ctx, cmd, tr.ID.Hex(), models.StatusInTransit)
	requireKind(t, err, apperror.KindInvalidStateTransition)

	_, err = f.svc.Transfers.Update(f.ctx, cmd, tr.ID.Hex(), transferInput("Radio", 4, rbac.BaseA, rbac.BaseB))
	requireKind(t, err, apperror.KindInvalidStateTransition)
}

func TestTransferCancelledStaysEditable(t *testing.T) {
	f := newFixture(t)
	officer := f.user(rbac.RoleLogisticsOfficer, rbac.BaseA)

	tr, err := f.svc.Transfers.Create(f.ctx, officer, transferInput("Radio", 3, rbac.BaseA, rbac.BaseB))
	require.NoError(t, err)
	_, err = f.svc.Transfers.UpdateStatus(f.ctx, officer, tr.ID.Hex(), models.StatusCancelled)
	require.NoError(t, err)

	updated, err := f.svc.Transfers.Update(f.ctx, officer, tr.ID.Hex(), transferInput("Radio", 5, rbac.BaseA, rbac.BaseB))
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)
	assert.Equal(t, models.StatusCancelled, updated.Status)
}

func TestTransferRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	officer := f.user(rbac.RoleLogisticsOfficer, rbac.BaseA)
	tr, err := f.svc.Transfers.Create(f.ctx, officer, transferInput("Radio", 3, rbac.BaseA, rbac.BaseB))
	require.NoError(t, err)

	_, err = f.svc.Transfers.UpdateStatus(f.ctx, officer, tr.ID.Hex(), models.StatusDelivered)
	requireKind(t, err, apperror.KindInvalidStateTransition)
}
