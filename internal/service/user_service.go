package service

import (
	"context"
	"slices"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/repository"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/response"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages accounts on behalf of admins and the CLI tools.
type UserService struct {
	userRepo   *repository.UserRepository
	bcryptCost int
	log        zerolog.Logger
}

func NewUserService(userRepo *repository.UserRepository, bcryptCost int, log zerolog.Logger) *UserService {
	return &UserService{
		userRepo:   userRepo,
		bcryptCost: bcryptCost,
		log:        log.With().Str("component", "user_service").Logger(),
	}
}

// List retrieves a page of users, optionally filtered by role and a
// name/email search.
func (s *UserService) List(ctx context.Context, q model.UserListQuery) ([]model.User, *response.Pagination, error) {
	page, perPage := pageBounds(q.Page, q.PerPage)

	var role *model.Role
	if q.Role != "" {
		r := model.Role(q.Role)
		role = &r
	}

	users, total, err := s.userRepo.ListPaginated(ctx, role, q.Search, perPage, page)
	if err != nil {
		return nil, nil, err
	}
	return users, response.NewPagination(page, perPage, total), nil
}

// Create adds a new account. A taken email yields apperror.ErrConflict.
func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	u, err := s.build(req)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", u.ID.String()).Strs("roles", req.Roles).Msg("User created")
	return u, nil
}

// Upsert creates the account or resets the name, password and roles of the
// account holding the same email.
func (s *UserService) Upsert(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	u, err := s.build(req)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpsertByEmail(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", u.ID.String()).Strs("roles", req.Roles).Msg("User upserted")
	return u, nil
}

func (s *UserService) build(req model.CreateUserRequest) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	roles := make([]model.Role, 0, len(req.Roles))
	for _, r := range req.Roles {
		if !slices.Contains(roles, model.Role(r)) {
			roles = append(roles, model.Role(r))
		}
	}
	return &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Roles:        roles,
	}, nil
}
