package service

import (
	"context"
	"errors"
	"strings"

	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/auth"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"
	"military-logistics-api-server/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserService struct {
	*core
}

type RegisterInput struct {
	FirstName  string    `json:"firstName" validate:"required"`
	LastName   string    `json:"lastName" validate:"required"`
	Email      string    `json:"email" validate:"required,email"`
	Password   string    `json:"password" validate:"required,min=8"`
	Rank       string    `json:"rank" validate:"omitempty,rank"`
	Department string    `json:"department" validate:"required,department"`
	Base       rbac.Base `json:"base" validate:"omitempty,base"`
}

// CreateUserInput is RegisterInput plus the role, for user management.
type CreateUserInput struct {
	RegisterInput
	Role rbac.Role `json:"role" validate:"omitempty,role"`
}

type UpdateUserInput struct {
	FirstName  *string    `json:"firstName" validate:"omitempty,min=1"`
	LastName   *string    `json:"lastName" validate:"omitempty,min=1"`
	Rank       *string    `json:"rank" validate:"omitempty,rank"`
	Department *string    `json:"department" validate:"omitempty,department"`
	Role       *rbac.Role `json:"role" validate:"omitempty,role"`
	Base       *rbac.Base `json:"base" validate:"omitempty,base"`
}

type UserSearch struct {
	Search     string
	Base       rbac.Base
	Department string
	Role       rbac.Role
}

const searchLimit = 50

// Register creates a Logistics Officer account. Elevated roles are only
// granted through Create.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.insert(ctx, CreateUserInput{RegisterInput: in, Role: rbac.RoleLogisticsOfficer})
}

// Create adds an account on behalf of p. Only an Admin may create Admins or
// place users outside its own base.
func (s *UserService) Create(ctx context.Context, p *rbac.Principal, in CreateUserInput) (*models.User, error) {
	if err := rbac.Authorize(p, rbac.UserCreate, ""); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = rbac.RoleLogisticsOfficer
	}
	if p.Role != rbac.RoleAdmin {
		if in.Role == rbac.RoleAdmin {
			return nil, apperror.PermissionDenied(rbac.SystemAdmin.String(), string(p.Role))
		}
		if in.Base == "" {
			in.Base = p.Base
		}
		if in.Base != p.Base {
			return nil, apperror.Validation("base", "Users can only be created at your own base")
		}
	}
	return s.insert(ctx, in)
}

func (s *UserService) insert(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	n, err := s.stores.Users.Count(ctx, store.Eq("email", email))
	if err != nil {
		return nil, apperror.Dependency("Failed to query users", err)
	}
	if n > 0 {
		return nil, apperror.Validation("email", "User already exists")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Dependency("Failed to hash password", err)
	}

	user := &models.User{
		ID:           primitive.NewObjectID(),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: hash,
		Rank:         in.Rank,
		Role:         in.Role,
		Department:   in.Department,
		Base:         in.Base,
		CreatedAt:    s.now(),
	}
	if user.Rank == "" {
		user.Rank = "Private"
	}
	if user.Base == "" {
		user.Base = rbac.BaseA
	}
	if err := s.stores.Users.Insert(ctx, user); err != nil {
		return nil, apperror.Dependency("Failed to create user", err)
	}
	return user, nil
}

// Authenticate checks an email and password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.stores.Users.FindOne(ctx, store.Eq("email", strings.ToLower(strings.TrimSpace(email))))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Unauthenticated("Invalid credentials")
	}
	if err != nil {
		return nil, apperror.Dependency("Failed to query users", err)
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperror.Unauthenticated("Invalid credentials")
	}
	return user, nil
}

// Resolve loads the user behind a verified token. Tokens of deleted users
// stop working immediately.
func (s *UserService) Resolve(ctx context.Context, userID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperror.Unauthenticated("Invalid token")
	}
	user, err := s.stores.Users.FindOne(ctx, store.ID(oid))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Unauthenticated("User not found")
	}
	if err != nil {
		return nil, apperror.Dependency("Failed to load user", err)
	}
	return user, nil
}

// List returns the users in p's scope ordered by name.
func (s *UserService) List(ctx context.Context, p *rbac.Principal) ([]models.User, error) {
	if err := rbac.Authorize(p, rbac.UserView, ""); err != nil {
		return nil, err
	}
	users, err := s.stores.Users.Find(ctx, userScope(p), store.SortAsc("lastName"))
	if err != nil {
		return nil, apperror.Dependency("Failed to query users", err)
	}
	return users, nil
}

// Search matches a case-insensitive term against names, email and rank.
func (s *UserService) Search(ctx context.Context, p *rbac.Principal, q UserSearch) ([]models.User, error) {
	if err := rbac.Authorize(p, rbac.UserView, ""); err != nil {
		return nil, err
	}
	f := userScope(p)
	if term := strings.TrimSpace(q.Search); term != "" {
		f = store.And(f, store.Or(
			store.Contains("firstName", term),
			store.Contains("lastName", term),
			store.Contains("email", term),
			store.Contains("rank", term),
		))
	}
	if q.Base != "" {
		f = store.And(f, store.Eq("base", q.Base))
	}
	if q.Department != "" {
		f = store.And(f, store.Eq("department", q.Department))
	}
	if q.Role != "" {
		f = store.And(f, store.Eq("role", q.Role))
	}
	users, err := s.stores.Users.Find(ctx, f, store.SortAsc("lastName"), store.Limit(searchLimit))
	if err != nil {
		return nil, apperror.Dependency("Search failed", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, p *rbac.Principal, id string) (*models.User, error) {
	if err := rbac.Authorize(p, rbac.UserView, ""); err != nil {
		return nil, err
	}
	oid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	return findScoped(ctx, s.stores.Users, userScope(p), oid, "User")
}

func (s *UserService) Update(ctx context.Context, p *rbac.Principal, id string, in UpdateUserInput) (*models.User, error) {
	if err := rbac.Authorize(p, rbac.UserUpdate, ""); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	oid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	user, err := findScoped(ctx, s.stores.Users, userScope(p), oid, "User")
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if in.FirstName != nil {
		set["firstName"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		set["lastName"] = strings.TrimSpace(*in.LastName)
	}
	if in.Rank != nil {
		set["rank"] = *in.Rank
	}
	if in.Department != nil {
		set["department"] = *in.Department
	}
	if (in.Role != nil && *in.Role != user.Role) || (in.Base != nil && *in.Base != user.Base) {
		if err := rbac.Authorize(p, rbac.UserUpdateAny, ""); err != nil {
			return nil, err
		}
		if in.Role != nil {
			set["role"] = *in.Role
		}
		if in.Base != nil {
			set["base"] = *in.Base
		}
	}
	if len(set) == 0 {
		return user, nil
	}

	if _, err := s.stores.Users.Update(ctx, store.ID(oid), store.Set(set)); err != nil {
		return nil, apperror.Dependency("Failed to update user", err)
	}
	return findScoped(ctx, s.stores.Users, store.All(), oid, "User")
}

func (s *UserService) Delete(ctx context.Context, p *rbac.Principal, id string) error {
	if err := rbac.Authorize(p, rbac.UserDelete, ""); err != nil {
		return err
	}
	oid, err := parseID("id", id)
	if err != nil {
		return err
	}
	if oid.Hex() == p.ID {
		return apperror.Validation("id", "You cannot delete your own account")
	}
	if _, err := findScoped(ctx, s.stores.Users, userScope(p), oid, "User"); err != nil {
		return err
	}
	if _, err := s.stores.Users.Delete(ctx, store.ID(oid)); err != nil {
		return apperror.Dependency("Failed to delete user", err)
	}
	return nil
}
