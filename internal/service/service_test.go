package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"
	"military-logistics-api-server/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type event struct {
	userID string
	name   string
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) Notify(userID, name string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{userID: userID, name: name})
}

func (r *recorder) has(userID, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.userID == userID && e.name == name {
			return true
		}
	}
	return false
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	stores *store.Stores
	svc    *Services
	notes  *recorder
}

// newFixture wires the services over in-memory stores with a clock that
// advances one minute per call, so createdAt ordering is deterministic.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	stores := store.NewMemoryStores()
	notes := &recorder{}
	svc := New(stores, notes)

	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	ticks := 0
	svc.Users.core.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		ticks++
		return start.Add(time.Duration(ticks) * time.Minute)
	}
	return &fixture{t: t, ctx: context.Background(), stores: stores, svc: svc, notes: notes}
}

func (f *fixture) user(role rbac.Role, base rbac.Base) *rbac.Principal {
	f.t.Helper()
	u := &models.User{
		ID:         primitive.NewObjectID(),
		FirstName:  "Alex",
		LastName:   string(base),
		Email:      uuid.NewString() + "@military.gov",
		Rank:       "Captain",
		Role:       role,
		Department: "Logistics",
		Base:       base,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(f.t, f.stores.Users.Insert(f.ctx, u))
	return u.Principal()
}

func (f *fixture) purchase(p *rbac.Principal, item string, qty int, price float64) *models.Purchase {
	f.t.Helper()
	pu, err := f.svc.Purchases.Create(f.ctx, p, purchaseInput(item, qty, price))
	require.NoError(f.t, err)
	return pu
}

func (f *fixture) delivered(p *rbac.Principal, item string, qty int, price float64) *models.Purchase {
	f.t.Helper()
	pu := f.purchase(p, item, qty, price)
	pu, err := f.svc.Purchases.UpdateStatus(f.ctx, p, pu.ID.Hex(), models.StatusDelivered)
	require.NoError(f.t, err)
	return pu
}

func (f *fixture) available(id primitive.ObjectID) int {
	f.t.Helper()
	pu, err := f.stores.Purchases.FindOne(f.ctx, store.ID(id))
	require.NoError(f.t, err)
	return pu.QuantityAvailable
}

func purchaseInput(item string, qty int, price float64) PurchaseInput {
	return PurchaseInput{
		Item:          item,
		Category:      "Communications",
		Quantity:      qty,
		UnitPrice:     price,
		Supplier:      "Signal Corp",
		Department:    "Logistics",
		RequiredDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Justification: "Replace worn field kit",
	}
}

func transferInput(equipment string, qty int, from, to rbac.Base) TransferInput {
	return TransferInput{
		Equipment:         equipment,
		Quantity:          qty,
		FromLocation:      string(from) + " depot",
		ToLocation:        string(to) + " depot",
		SourceBaseID:      from,
		DestinationBaseID: to,
		ExpectedDate:      time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func assignmentInput(personnel *rbac.Principal, purchase *models.Purchase, qty int) AssignmentInput {
	in := AssignmentInput{
		Personnel:     personnel.ID,
		Title:         "Convoy escort",
		Unit:          "2nd Platoon",
		Duties:        []string{"radio watch"},
		EquipmentType: "Communications",
	}
	if purchase != nil {
		in.EquipmentPurchase = purchase.ID.Hex()
		in.EquipmentQuantity = qty
		in.Equipment = purchase.Item
	}
	return in
}

func expenditureInput(dept, category string, amount float64) ExpenditureInput {
	return ExpenditureInput{
		Category:      category,
		Amount:        amount,
		Description:   "Quarterly " + category,
		Department:    dept,
		PaymentMethod: "Bank Transfer",
		PaymentDate:   time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
		BudgetYear:    2025,
		Quarter:       1,
	}
}

func requireKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperror.KindOf(err), "unexpected error: %v", err)
}

func TestStatusGuard(t *testing.T) {
	done, err := statusGuard("Transfer", models.TransferStatuses, models.StatusCompleted, models.StatusPending, models.StatusInTransit)
	require.NoError(t, err)
	assert.False(t, done)

	done, err = statusGuard("Transfer", models.TransferStatuses, models.StatusCompleted, models.StatusCompleted, models.StatusCompleted)
	require.NoError(t, err)
	assert.True(t, done)

	_, err = statusGuard("Transfer", models.TransferStatuses, models.StatusCompleted, models.StatusCompleted, models.StatusPending)
	requireKind(t, err, apperror.KindInvalidStateTransition)
	assert.Contains(t, err.Error(), "Cannot change status of completed transfer")

	_, err = statusGuard("Transfer", models.TransferStatuses, models.StatusCompleted, models.StatusPending, "Lost")
	requireKind(t, err, apperror.KindInvalidStateTransition)
	assert.Contains(t, err.Error(), "Invalid status: Lost")
}

func TestValidateInputNamesJSONField(t *testing.T) {
	in := purchaseInput("Radio", 0, 5)
	err := validateInput(in)
	requireKind(t, err, apperror.KindValidation)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "quantity", appErr.Field)

	in = purchaseInput("Radio", 1, 5)
	in.Category = "Snacks"
	err = validateInput(in)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "category", appErr.Field)
}

func TestMissingPrincipal(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Purchases.List(f.ctx, nil, PurchaseFilter{})
	requireKind(t, err, apperror.KindUnauthenticated)
}
