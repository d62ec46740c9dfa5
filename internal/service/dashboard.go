package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"
	"military-logistics-api-server/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const (
	allBases             = "All Bases"
	defaultActivityLimit = 20
)

type DashboardService struct {
	*core
}

type MetricsSummary struct {
	TotalExpenditures float64 `json:"totalExpenditures"`
	TotalPurchases    float64 `json:"totalPurchases"`
	BasePersonnel     int     `json:"basePersonnel"`
}

type NetMovementTotals struct {
	FlowingIn  float64 `json:"flowingIn"`
	FlowingOut float64 `json:"flowingOut"`
	NetBalance float64 `json:"netBalance"`
}

type StatusCount struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}

type ExpenditureCount struct {
	Total       int            `json:"total"`
	TotalAmount float64        `json:"totalAmount"`
	ByCategory  map[string]int `json:"byCategory"`
}

type TransferCount struct {
	Total         int            `json:"total"`
	TotalQuantity int            `json:"totalQuantity"`
	ByStatus      map[string]int `json:"byStatus"`
}

type PurchaseCount struct {
	Total         int            `json:"total"`
	TotalAmount   float64        `json:"totalAmount"`
	TotalQuantity int            `json:"totalQuantity"`
	ByStatus      map[string]int `json:"byStatus"`
}

type PersonnelCount struct {
	Total        int            `json:"total"`
	ByDepartment map[string]int `json:"byDepartment"`
}

type Metrics struct {
	Base         string            `json:"base"`
	Summary      MetricsSummary    `json:"summary"`
	NetMovement  NetMovementTotals `json:"netMovement"`
	Assignments  StatusCount       `json:"assignments"`
	Expenditures ExpenditureCount  `json:"expenditures"`
	TransfersOut TransferCount     `json:"transfersOut"`
	TransfersIn  TransferCount     `json:"transfersIn"`
	Purchases    PurchaseCount     `json:"purchases"`
	Personnel    PersonnelCount    `json:"personnel"`
}

// Activity is one row of the recent activity feed.
type Activity struct {
	ID         primitive.ObjectID `json:"id"`
	Type       string             `json:"type"`
	Title      string             `json:"title"`
	User       string             `json:"user"`
	AssignedBy string             `json:"assignedBy,omitempty"`
	Amount     *float64           `json:"amount,omitempty"`
	Category   string             `json:"category,omitempty"`
	Status     string             `json:"status,omitempty"`
	Date       time.Time          `json:"date"`
}

type Movement struct {
	ID         primitive.ObjectID `json:"id"`
	Type       string             `json:"type"`
	Title      string             `json:"title"`
	User       string             `json:"user"`
	Department string             `json:"department"`
	Quantity   int                `json:"quantity"`
	Amount     float64            `json:"amount"`
	Status     string             `json:"status"`
	Date       time.Time          `json:"date"`
	Details    map[string]string  `json:"details"`
}

type MovementSummary struct {
	InflowTotal  int     `json:"inflowTotal"`
	OutflowTotal int     `json:"outflowTotal"`
	NetQuantity  int     `json:"netQuantity"`
	InflowValue  float64 `json:"inflowValue"`
	OutflowValue float64 `json:"outflowValue"`
	NetValue     float64 `json:"netValue"`
}

type NetMovementReport struct {
	Base      string          `json:"base"`
	Summary   MovementSummary `json:"summary"`
	Movements struct {
		Inflow  []Movement `json:"inflow"`
		Outflow []Movement `json:"outflow"`
	} `json:"movements"`
}

// snapshot is every scoped collection a dashboard view reads, loaded in one
// parallel pass.
type snapshot struct {
	personnel    []models.User
	purchases    []models.Purchase
	assignments  []models.Assignment
	expenditures []models.Expenditure
	transfersOut []models.Transfer
	transfersIn  []models.Transfer
	prices       priceIndex
}

// priceIndex maps an item name to the unit price of the oldest purchase of
// that item.
type priceIndex map[string]float64

func newPriceIndex(purchases []models.Purchase) priceIndex {
	idx := priceIndex{}
	for _, p := range purchases {
		if _, ok := idx[p.Item]; !ok {
			idx[p.Item] = p.UnitPrice
		}
	}
	return idx
}

func (idx priceIndex) value(t models.Transfer) float64 {
	return float64(t.Quantity) * idx[t.Equipment]
}

func dashboardBase(p *rbac.Principal) string {
	if rbac.ScopeFor(p).Kind == rbac.ScopeUnrestricted {
		return allBases
	}
	return string(p.Base)
}

// flowScopes splits transfers into outbound and inbound for p. An
// unrestricted principal sees every transfer on both sides.
func flowScopes(p *rbac.Principal) (out, in store.Filter) {
	scope := rbac.ScopeFor(p)
	switch scope.Kind {
	case rbac.ScopeUnrestricted:
		return store.All(), store.All()
	case rbac.ScopeBaseRestricted:
		return store.Eq("sourceBaseId", scope.Base), store.Eq("destinationBaseId", scope.Base)
	}
	return store.None(), store.None()
}

func (s *DashboardService) load(ctx context.Context, p *rbac.Principal) (*snapshot, error) {
	if err := rbac.Authorize(p, rbac.DashboardView, ""); err != nil {
		return nil, err
	}
	personnel, err := s.stores.Users.Find(ctx, userScope(p))
	if err != nil {
		return nil, apperror.Dependency("Failed to query users", err)
	}
	unrestricted := rbac.ScopeFor(p).Kind == rbac.ScopeUnrestricted
	ids := make([]interface{}, 0, len(personnel))
	for _, u := range personnel {
		ids = append(ids, u.ID)
	}
	ownedBy := func(field string) store.Filter {
		if unrestricted {
			return store.All()
		}
		return store.In(field, ids...)
	}
	outScope, inScope := flowScopes(p)

	snap := &snapshot{personnel: personnel}
	var catalog []models.Purchase
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.purchases, err = s.stores.Purchases.Find(gctx, ownedBy("requestedBy"), store.SortDesc("createdAt"))
		return err
	})
	g.Go(func() (err error) {
		snap.assignments, err = s.stores.Assignments.Find(gctx, ownedBy("assignedBy"), store.SortDesc("createdAt"))
		return err
	})
	g.Go(func() (err error) {
		snap.expenditures, err = s.stores.Expenditures.Find(gctx, ownedBy("requestedBy"), store.SortDesc("createdAt"))
		return err
	})
	g.Go(func() (err error) {
		snap.transfersOut, err = s.stores.Transfers.Find(gctx, outScope, store.SortDesc("createdAt"))
		return err
	})
	g.Go(func() (err error) {
		snap.transfersIn, err = s.stores.Transfers.Find(gctx, inScope, store.SortDesc("createdAt"))
		return err
	})
	g.Go(func() (err error) {
		catalog, err = s.stores.Purchases.Find(gctx, store.All(), store.SortAsc("createdAt"))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperror.Dependency("Failed to load dashboard data", err)
	}
	snap.prices = newPriceIndex(catalog)
	return snap, nil
}

// Metrics returns the headline counts and totals for p's scope.
func (s *DashboardService) Metrics(ctx context.Context, p *rbac.Principal) (*Metrics, error) {
	snap, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		Base:         dashboardBase(p),
		Assignments:  StatusCount{ByStatus: map[string]int{}},
		Expenditures: ExpenditureCount{ByCategory: map[string]int{}},
		TransfersOut: TransferCount{ByStatus: map[string]int{}},
		TransfersIn:  TransferCount{ByStatus: map[string]int{}},
		Purchases:    PurchaseCount{ByStatus: map[string]int{}},
		Personnel:    PersonnelCount{ByDepartment: map[string]int{}},
	}

	for _, a := range snap.assignments {
		m.Assignments.Total++
		m.Assignments.ByStatus[a.Status]++
	}
	for _, e := range snap.expenditures {
		m.Expenditures.Total++
		m.Expenditures.TotalAmount += e.Amount
		m.Expenditures.ByCategory[e.Category]++
	}
	for _, pu := range snap.purchases {
		m.Purchases.Total++
		m.Purchases.TotalAmount += pu.TotalValue()
		m.Purchases.TotalQuantity += pu.Quantity
		m.Purchases.ByStatus[pu.Status]++
	}
	var out, in float64
	for _, t := range snap.transfersOut {
		m.TransfersOut.Total++
		m.TransfersOut.TotalQuantity += t.Quantity
		m.TransfersOut.ByStatus[t.Status]++
		out += snap.prices.value(t)
	}
	for _, t := range snap.transfersIn {
		m.TransfersIn.Total++
		m.TransfersIn.TotalQuantity += t.Quantity
		m.TransfersIn.ByStatus[t.Status]++
		in += snap.prices.value(t)
	}
	for _, u := range snap.personnel {
		m.Personnel.Total++
		m.Personnel.ByDepartment[u.Department]++
	}

	m.Summary = MetricsSummary{
		TotalExpenditures: m.Expenditures.TotalAmount,
		TotalPurchases:    m.Purchases.TotalAmount,
		BasePersonnel:     m.Personnel.Total,
	}
	inflow := in + m.Purchases.TotalAmount
	m.NetMovement = NetMovementTotals{
		FlowingIn:  inflow,
		FlowingOut: out,
		NetBalance: inflow - out,
	}
	return m, nil
}

// DepartmentSummary totals scoped purchases per category, largest first.
func (s *DashboardService) DepartmentSummary(ctx context.Context, p *rbac.Principal) ([]CategoryTotal, error) {
	if err := rbac.Authorize(p, rbac.DashboardView, ""); err != nil {
		return nil, err
	}
	f, err := s.ownedScope(ctx, p, "requestedBy")
	if err != nil {
		return nil, err
	}
	purchases, err := s.stores.Purchases.Find(ctx, f)
	if err != nil {
		return nil, apperror.Dependency("Error fetching department summary", err)
	}

	index := map[string]int{}
	out := []CategoryTotal{}
	for _, pu := range purchases {
		i, ok := index[pu.Category]
		if !ok {
			i = len(out)
			index[pu.Category] = i
			out = append(out, CategoryTotal{Category: pu.Category})
		}
		out[i].TotalAmount += pu.TotalValue()
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalAmount > out[j].TotalAmount })
	return out, nil
}

// RecentActivities merges the newest records of every type into one feed.
// A non-positive limit uses the default of 20.
func (s *DashboardService) RecentActivities(ctx context.Context, p *rbac.Principal, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	snap, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}
	transfers, err := s.stores.Transfers.Find(ctx, transferScope(p), store.SortDesc("createdAt"), store.Limit(int64(limit)))
	if err != nil {
		return nil, apperror.Dependency("Error fetching recent activities", err)
	}

	var refs []primitive.ObjectID
	assignments := head(snap.assignments, limit)
	expenditures := head(snap.expenditures, limit)
	purchases := head(snap.purchases, limit)
	for _, a := range assignments {
		refs = append(refs, a.Personnel, a.AssignedBy)
	}
	for _, e := range expenditures {
		refs = append(refs, e.RequestedBy)
	}
	for _, t := range transfers {
		refs = append(refs, t.RequestedBy)
	}
	for _, pu := range purchases {
		refs = append(refs, pu.RequestedBy)
	}
	names, err := s.names(ctx, refs)
	if err != nil {
		return nil, err
	}

	feed := make([]Activity, 0, len(assignments)+len(expenditures)+len(transfers)+len(purchases))
	for _, a := range assignments {
		feed = append(feed, Activity{
			ID:         a.ID,
			Type:       "assignment",
			Title:      orDefault(a.Title, "Assignment"),
			User:       names.of(a.Personnel, "Unknown Personnel"),
			AssignedBy: names.of(a.AssignedBy, "Unknown"),
			Status:     a.Status,
			Date:       a.CreatedAt,
		})
	}
	for _, e := range expenditures {
		amount := e.Amount
		feed = append(feed, Activity{
			ID:       e.ID,
			Type:     "expenditure",
			Title:    orDefault(e.Description, "Expenditure"),
			User:     names.of(e.RequestedBy, "Unknown User"),
			Amount:   &amount,
			Category: orDefault(e.Category, "Other"),
			Date:     e.CreatedAt,
		})
	}
	for _, t := range transfers {
		feed = append(feed, Activity{
			ID:     t.ID,
			Type:   "transfer",
			Title:  fmt.Sprintf("%s: %s → %s", orDefault(t.Equipment, "Equipment"), orDefault(t.FromLocation, "Unknown"), orDefault(t.ToLocation, "Unknown")),
			User:   names.of(t.RequestedBy, "Unknown User"),
			Status: t.Status,
			Date:   t.CreatedAt,
		})
	}
	for _, pu := range purchases {
		amount := pu.TotalValue()
		feed = append(feed, Activity{
			ID:     pu.ID,
			Type:   "purchase",
			Title:  orDefault(pu.Item, "Purchase Item"),
			User:   names.of(pu.RequestedBy, "Unknown User"),
			Amount: &amount,
			Status: pu.Status,
			Date:   pu.CreatedAt,
		})
	}

	sort.SliceStable(feed, func(i, j int) bool { return feed[i].Date.After(feed[j].Date) })
	return head(feed, limit), nil
}

// NetMovement itemizes what flowed into and out of p's scope. Purchases
// count as inflow at quantity times unit price; transfers are valued through
// the price index.
func (s *DashboardService) NetMovement(ctx context.Context, p *rbac.Principal) (*NetMovementReport, error) {
	snap, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}

	var refs []primitive.ObjectID
	for _, pu := range snap.purchases {
		refs = append(refs, pu.RequestedBy)
	}
	for _, t := range snap.transfersIn {
		refs = append(refs, t.RequestedBy)
	}
	for _, t := range snap.transfersOut {
		refs = append(refs, t.RequestedBy)
	}
	names, err := s.names(ctx, refs)
	if err != nil {
		return nil, err
	}

	report := &NetMovementReport{Base: dashboardBase(p)}
	inflow := make([]Movement, 0, len(snap.purchases)+len(snap.transfersIn))
	for _, pu := range snap.purchases {
		inflow = append(inflow, Movement{
			ID:         pu.ID,
			Type:       "purchase",
			Title:      orDefault(pu.Item, "Purchase"),
			User:       names.of(pu.RequestedBy, "Unknown"),
			Department: orDefault(pu.Department, "Unknown"),
			Quantity:   pu.Quantity,
			Amount:     pu.TotalValue(),
			Status:     pu.Status,
			Date:       pu.CreatedAt,
			Details:    map[string]string{"supplier": pu.Supplier},
		})
	}
	for _, t := range snap.transfersIn {
		inflow = append(inflow, Movement{
			ID:         t.ID,
			Type:       "transfer",
			Title:      fmt.Sprintf("%s from %s", t.Equipment, t.SourceBaseID),
			User:       names.of(t.RequestedBy, "Unknown"),
			Department: "Transfer",
			Quantity:   t.Quantity,
			Amount:     snap.prices.value(t),
			Status:     t.Status,
			Date:       t.CreatedAt,
			Details:    map[string]string{"from": string(t.SourceBaseID), "to": string(t.DestinationBaseID)},
		})
	}
	outflow := make([]Movement, 0, len(snap.transfersOut))
	for _, t := range snap.transfersOut {
		outflow = append(outflow, Movement{
			ID:         t.ID,
			Type:       "transfer",
			Title:      fmt.Sprintf("%s to %s", t.Equipment, t.DestinationBaseID),
			User:       names.of(t.RequestedBy, "Unknown"),
			Department: "Transfer",
			Quantity:   t.Quantity,
			Amount:     snap.prices.value(t),
			Status:     t.Status,
			Date:       t.CreatedAt,
			Details:    map[string]string{"reason": t.Reason},
		})
	}

	for _, mv := range inflow {
		report.Summary.InflowTotal += mv.Quantity
		report.Summary.InflowValue += mv.Amount
	}
	for _, mv := range outflow {
		report.Summary.OutflowTotal += mv.Quantity
		report.Summary.OutflowValue += mv.Amount
	}
	report.Summary.NetQuantity = report.Summary.InflowTotal - report.Summary.OutflowTotal
	report.Summary.NetValue = report.Summary.InflowValue - report.Summary.OutflowValue

	byDate := func(ms []Movement) {
		sort.SliceStable(ms, func(i, j int) bool { return ms[i].Date.After(ms[j].Date) })
	}
	byDate(inflow)
	byDate(outflow)
	report.Movements.Inflow = inflow
	report.Movements.Outflow = outflow
	return report, nil
}

type nameIndex map[primitive.ObjectID]string

func (n nameIndex) of(id primitive.ObjectID, fallback string) string {
	if name, ok := n[id]; ok {
		return name
	}
	return fallback
}

// names resolves display names for the referenced users, whatever their base.
func (s *DashboardService) names(ctx context.Context, refs []primitive.ObjectID) (nameIndex, error) {
	idx := nameIndex{}
	if len(refs) == 0 {
		return idx, nil
	}
	seen := map[primitive.ObjectID]bool{}
	ids := make([]interface{}, 0, len(refs))
	for _, id := range refs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	users, err := s.stores.Users.Find(ctx, store.In("_id", ids...))
	if err != nil {
		return nil, apperror.Dependency("Failed to query users", err)
	}
	for _, u := range users {
		idx[u.ID] = u.FullName()
	}
	return idx, nil
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
