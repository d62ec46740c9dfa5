package service

import (
	"context"
	"sort"
	"time"

	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"
	"military-logistics-api-server/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ExpenditureService struct {
	*core
}

type ExpenditureInput struct {
	Category      string    `json:"category" validate:"required,expenditurecategory"`
	Amount        float64   `json:"amount" validate:"min=0"`
	Description   string    `json:"description" validate:"required"`
	Department    string    `json:"department" validate:"required,department"`
	PaymentMethod string    `json:"paymentMethod" validate:"required,paymentmethod"`
	PaymentDate   time.Time `json:"paymentDate" validate:"required"`
	ReceiptNumber string    `json:"receiptNumber"`
	BudgetYear    int       `json:"budgetYear" validate:"required,min=1900"`
	Quarter       int       `json:"quarter" validate:"required,min=1,max=4"`
	Notes         string    `json:"notes"`
}

type ExpenditureFilter struct {
	Department string
	Category   string
	StartDate  *time.Time
	EndDate    *time.Time
}

// SummaryPeriod narrows the summary. Zero fields match every value.
type SummaryPeriod struct {
	BudgetYear int
	Quarter    int
}

type CategoryTotal struct {
	Category    string  `json:"category"`
	TotalAmount float64 `json:"totalAmount"`
	Count       int     `json:"count"`
}

type DepartmentExpenditure struct {
	Department      string          `json:"department"`
	Categories      []CategoryTotal `json:"categories"`
	DepartmentTotal float64         `json:"departmentTotal"`
}

func (s *ExpenditureService) scope(ctx context.Context, p *rbac.Principal) (store.Filter, error) {
	return s.ownedScope(ctx, p, "requestedBy")
}

func (s *ExpenditureService) Create(ctx context.Context, p *rbac.Principal, in ExpenditureInput) (*models.Expenditure, error) {
	if err := rbac.Authorize(p, rbac.Create(rbac.ResourceExpenditure), ""); err != nil {
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
	expenditure := &models.Expenditure{
		ID:            primitive.NewObjectID(),
		Category:      in.Category,
		Amount:        in.Amount,
		Description:   in.Description,
		Department:    in.Department,
		RequestedBy:   owner,
		PaymentMethod: in.PaymentMethod,
		PaymentDate:   in.PaymentDate,
		ReceiptNumber: in.ReceiptNumber,
		BudgetYear:    in.BudgetYear,
		Quarter:       in.Quarter,
		Notes:         in.Notes,
		Attachments:   []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.stores.Expenditures.Insert(ctx, expenditure); err != nil {
		return nil, apperror.Dependency("Failed to create expenditure", err)
	}
	return expenditure, nil
}

// List returns scoped expenditures, newest first.
func (s *ExpenditureService) List(ctx context.Context, p *rbac.Principal, q ExpenditureFilter) ([]models.Expenditure, error) {
	if err := rbac.Authorize(p, rbac.View(rbac.ResourceExpenditure), ""); err != nil {
		return nil, err
	}
	f, err := s.scope(ctx, p)
	if err != nil {
		return nil, err
	}
	if q.Department != "" {
		f = store.And(f, store.Eq("department", q.Department))
	}
	if q.Category != "" {
		f = store.And(f, store.Eq("category", q.Category))
	}
	f = store.And(f, dateRange("createdAt", q.StartDate, q.EndDate))

	expenditures, err := s.stores.Expenditures.Find(ctx, f, store.SortDesc("createdAt"))
	if err != nil {
		return nil, apperror.Dependency("Failed to query expenditures", err)
	}
	return expenditures, nil
}

// Summary totals scoped expenditures per department and, inside each
// department, per category. Departments come out sorted by name.
func (s *ExpenditureService) Summary(ctx context.Context, p *rbac.Principal, period SummaryPeriod) ([]DepartmentExpenditure, error) {
	if err := rbac.Authorize(p, rbac.View(rbac.ResourceExpenditure), ""); err != nil {
		return nil, err
	}
	f, err := s.scope(ctx, p)
	if err != nil {
		return nil, err
	}
	if period.BudgetYear != 0 {
		f = store.And(f, store.Eq("budgetYear", period.BudgetYear))
	}
	if period.Quarter != 0 {
		f = store.And(f, store.Eq("quarter", period.Quarter))
	}
	expenditures, err := s.stores.Expenditures.Find(ctx, f)
	if err != nil {
		return nil, apperror.Dependency("Error generating expenditure summary", err)
	}
	return summarize(expenditures), nil
}

func summarize(expenditures []models.Expenditure) []DepartmentExpenditure {
	byDept := map[string]*DepartmentExpenditure{}
	index := map[string]map[string]int{}
	for _, e := range expenditures {
		d, ok := byDept[e.Department]
		if !ok {
			d = &DepartmentExpenditure{Department: e.Department, Categories: []CategoryTotal{}}
			byDept[e.Department] = d
			index[e.Department] = map[string]int{}
		}
		i, ok := index[e.Department][e.Category]
		if !ok {
			i = len(d.Categories)
			index[e.Department][e.Category] = i
			d.Categories = append(d.Categories, CategoryTotal{Category: e.Category})
		}
		d.Categories[i].TotalAmount += e.Amount
		d.Categories[i].Count++
		d.DepartmentTotal += e.Amount
	}

	out := make([]DepartmentExpenditure, 0, len(byDept))
	for _, d := range byDept {
		sort.Slice(d.Categories, func(i, j int) bool { return d.Categories[i].Category < d.Categories[j].Category })
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Department < out[j].Department })
	return out
}

func (s *ExpenditureService) Get(ctx context.Context, p *rbac.Principal, id string) (*models.Expenditure, error) {
	if err := rbac.Authorize(p, rbac.View(rbac.ResourceExpenditure), ""); err != nil {
		return nil, err
	}
	return s.load(ctx, p, id)
}

func (s *ExpenditureService) load(ctx context.Context, p *rbac.Principal, id string) (*models.Expenditure, error) {
	oid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	f, err := s.scope(ctx, p)
	if err != nil {
		return nil, err
	}
	return findScoped(ctx, s.stores.Expenditures, f, oid, "Expenditure")
}

func (s *ExpenditureService) Update(ctx context.Context, p *rbac.Principal, id string, in ExpenditureInput) (*models.Expenditure, error) {
	expenditure, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(p, rbac.UpdateAny(rbac.ResourceExpenditure), expenditure.RequestedBy.Hex()); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	set := bson.M{
		"category":      in.Category,
		"amount":        in.Amount,
		"description":   in.Description,
		"department":    in.Department,
		"paymentMethod": in.PaymentMethod,
		"paymentDate":   in.PaymentDate,
		"receiptNumber": in.ReceiptNumber,
		"budgetYear":    in.BudgetYear,
		"quarter":       in.Quarter,
		"notes":         in.Notes,
		"updatedAt":     s.now(),
	}
	ok, err := s.stores.Expenditures.Update(ctx, store.ID(expenditure.ID), store.Set(set))
	if err != nil {
		return nil, apperror.Dependency("Failed to update expenditure", err)
	}
	if !ok {
		return nil, apperror.NotFound("Expenditure")
	}
	return findScoped(ctx, s.stores.Expenditures, store.All(), expenditure.ID, "Expenditure")
}

func (s *ExpenditureService) Delete(ctx context.Context, p *rbac.Principal, id string) error {
	expenditure, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	if err := rbac.Authorize(p, rbac.DeleteAny(rbac.ResourceExpenditure), expenditure.RequestedBy.Hex()); err != nil {
		return err
	}
	if _, err := s.stores.Expenditures.Delete(ctx, store.ID(expenditure.ID)); err != nil {
		return apperror.Dependency("Failed to delete expenditure", err)
	}
	return nil
}

// CanAttach reports whether p may add an attachment to the expenditure.
func (s *ExpenditureService) CanAttach(ctx context.Context, p *rbac.Principal, id string) error {
	expenditure, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	return rbac.Authorize(p, rbac.UpdateAny(rbac.ResourceExpenditure), expenditure.RequestedBy.Hex())
}

func (s *ExpenditureService) AddAttachment(ctx context.Context, p *rbac.Principal, id, url string) (*models.Expenditure, error) {
	expenditure, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(p, rbac.UpdateAny(rbac.ResourceExpenditure), expenditure.RequestedBy.Hex()); err != nil {
		return nil, err
	}
	if _, err := s.stores.Expenditures.Update(ctx, store.ID(expenditure.ID), store.Mutation{
		Set:  bson.M{"updatedAt": s.now()},
		Push: bson.M{"attachments": url},
	}); err != nil {
		return nil, apperror.Dependency("Failed to update expenditure", err)
	}
	return findScoped(ctx, s.stores.Expenditures, store.All(), expenditure.ID, "Expenditure")
}
