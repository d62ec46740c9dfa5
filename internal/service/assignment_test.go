package service

import (
	"errors"
	"sync"
	"testing"

	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentReservationLifecycle(t *testing.T) {
	f := newFixture(t)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	soldier := f.user(rbac.RoleLogisticsOfficer, rbac.BaseA)

	radio := f.delivered(cmd, "Radio", 10, 5)
	assert.Equal(t, 10, f.available(radio.ID))

	a, err := f.svc.Assignments.Create(f.ctx, cmd, assignmentInput(soldier, radio, 4))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, a.Status)
	assert.Equal(t, 1, a.Qty)
	assert.Equal(t, 6, f.available(radio.ID))
	assert.True(t, f.notes.has(soldier.ID, "assignment_created"))

	done, err := f.svc.Assignments.UpdateStatus(f.ctx, cmd, a.ID.Hex(), models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	require.NotNil(t, done.ApprovedBy)
	assert.Equal(t, 10, f.available(radio.ID))

	again, err := f.svc.Assignments.UpdateStatus(f.ctx, cmd, a.ID.Hex(), models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, again.Status)
	assert.Equal(t, 10, f.available(radio.ID), "repeat completion returns nothing twice")
}

func TestAssignmentCompletedIsFrozen(t *testing.T) {
	f := newFixture(t)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	radio := f.delivered(cmd, "Radio", 10, 5)
	a, err := f.svc.Assignments.Create(f.ctx, cmd, assignmentInput(cmd, radio, 2))
	require.NoError(t, err)
	_, err = f.svc.Assignments.UpdateStatus(f.ctx, cmd, a.ID.Hex(), models.StatusCompleted)
	require.NoError(t, err)

	_, err = f.svc.Assignments.UpdateStatus(f.ctx, cmd, a.ID.Hex(), models.StatusActive)
	requireKind(t, err, apperror.KindInvalidStateTransition)

	_, err = f.svc.Assignments.Update(f.ctx, cmd, a.ID.Hex(), assignmentInput(cmd, radio, 2))
	requireKind(t, err, apperror.KindInvalidStateTransition)

	err = f.svc.Assignments.Delete(f.ctx, cmd, a.ID.Hex())
	requireKind(t, err, apperror.KindInvalidStateTransition)
	assert.Equal(t, 10, f.available(radio.ID))
}

func TestAssignmentDeleteRestoresReservation(t *testing.T) {
	f := newFixture(t)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	radio := f.delivered(cmd, "Radio", 10, 5)
	before := f.available(radio.ID)

	a, err := f.svc.Assignments.Create(f.ctx, cmd, assignmentInput(cmd, radio, 3))
	require.NoError(t, err)
	require.NoError(t, f.svc.Assignments.Delete(f.ctx, cmd, a.ID.Hex()))

	assert.Equal(t, before, f.available(radio.ID))
	_, err = f.svc.Assignments.Get(f.ctx, cmd, a.ID.Hex())
	requireKind(t, err, apperror.KindNotFound)
}

func TestAssignmentCreateRefusesOverReservation(t *testing.T) {
	f := newFixture(t)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	radio := f.delivered(cmd, "Radio", 3, 5)

	_, err := f.svc.Assignments.Create(f.ctx, cmd, assignmentInput(cmd, radio, 4))
	requireKind(t, err, apperror.KindInsufficientInventory)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 4, appErr.Required)
	assert.Equal(t, 3, appErr.Available)

	list, err := f.svc.Assignments.List(f.ctx, cmd)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 3, f.available(radio.ID))
}

func TestAssignmentConcurrentCreatesNeverOverReserve(t *testing.T) {
	f := newFixture(t)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	radio := f.delivered(cmd, "Radio", 10, 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 12; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.svc.Assignments.Create(f.ctx, cmd, assignmentInput(cmd, radio, 1))
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
				return
			}
			assert.Equal(t, apperror.KindInsufficientInventory, apperror.KindOf(err))
		}()
		go func() {
			defer wg.Done()
			items, err := f.svc.Purchases.List(f.ctx, cmd, PurchaseFilter{})
			if assert.NoError(t, err) {
				for _, it := range items {
					assert.GreaterOrEqual(t, it.QuantityAvailable, 0)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, created)
	assert.Equal(t, 0, f.available(radio.ID))
}

func TestAssignmentActivationChecksInventory(t *testing.T) {
	f := newFixture(t)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	radio := f.delivered(cmd, "Radio", 5, 5)

	a, err := f.svc.Assignments.Create(f.ctx, cmd, assignmentInput(cmd, radio, 4))
	require.NoError(t, err)
	assert.Equal(t, 1, f.available(radio.ID))

	_, err = f.svc.Assignments.UpdateStatus(f.ctx, cmd, a.ID.Hex(), models.StatusActive)
	requireKind(t, err, apperror.KindInsufficientInventory)

	current, err := f.svc.Assignments.Get(f.ctx, cmd, a.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, current.Status)
	assert.Equal(t, 1, f.available(radio.ID))
}

func TestAssignmentActivationTakesUnits(t *testing.T) {
	f := newFixture(t)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	radio := f.delivered(cmd, "Radio", 10, 5)

	a, err := f.svc.Assignments.Create(f.ctx, cmd, assignmentInput(cmd, radio, 2))
	require.NoError(t, err)
	active, err := f.svc.Assignments.UpdateStatus(f.ctx, cmd, a.ID.Hex(), models.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, active.Status)
	assert.Equal(t, 6, f.available(radio.ID))
}

func TestAssignmentReservationIsFixed(t *testing.T) {
	f := newFixture(t)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	radio := f.delivered(cmd, "Radio", 10, 5)
	a, err := f.svc.Assignments.Create(f.ctx, cmd, assignmentInput(cmd, radio, 2))
	require.NoError(t, err)

	_, err = f.svc.Assignments.Update(f.ctx, cmd, a.ID.Hex(), assignmentInput(cmd, radio, 5))
	requireKind(t, err, apperror.KindValidation)

	in := assignmentInput(cmd, radio, 2)
	in.Unit = "3rd Platoon"
	updated, err := f.svc.Assignments.Update(f.ctx, cmd, a.ID.Hex(), in)
	require.NoError(t, err)
	assert.Equal(t, "3rd Platoon", updated.Unit)
	assert.Equal(t, 8, f.available(radio.ID))
}

func TestAssignmentPersonnelMustBeInScope(t *testing.T) {
	f := newFixture(t)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	outsider := f.user(rbac.RoleLogisticsOfficer, rbac.BaseB)

	_, err := f.svc.Assignments.Create(f.ctx, cmd, assignmentInput(outsider, nil, 0))
	requireKind(t, err, apperror.KindValidation)
}

func TestAssignmentsByPersonnel(t *testing.T) {
	f := newFixture(t)
	cmd := f.user(rbac.RoleBaseCommander, rbac.BaseA)
	one := f.user(rbac.RoleLogisticsOfficer, rbac.BaseA)
	two := f.user(rbac.RoleLogisticsOfficer, rbac.BaseA)

	_, err := f.svc.Assignments.Create(f.ctx, cmd, assignmentInput(one, nil, 0))
	require.NoError(t, err)
	_, err = f.svc.Assignments.Create(f.ctx, cmd, assignmentInput(two, nil, 0))
	require.NoError(t, err)

	list, err := f.svc.Assignments.ListByPersonnel(f.ctx, cmd, one.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, one.ID, list[0].Personnel.Hex())
}

func TestAssignmentOfficerCannotComplete(t *testing.T) {
	f := newFixture(t)
	officer := f.user(rbac.RoleLogisticsOfficer, rbac.BaseA)
	a, err := f.svc.Assignments.Create(f.ctx, officer, assignmentInput(officer, nil, 0))
	require.NoError(t, err)

	_, err = f.svc.Assignments.UpdateStatus(f.ctx, officer, a.ID.Hex(), models.StatusCompleted)
	requireKind(t, err, apperror.KindInsufficientPermission)

	active, err := f.svc.Assignments.UpdateStatus(f.ctx, officer, a.ID.Hex(), models.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, active.Status)
}
