package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
)

// UserRepository handles user account data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, name, password_hash, roles, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	var roles []string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &roles, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Roles = make([]model.Role, len(roles))
	for i, r := range roles {
		u.Roles[i] = model.Role(r)
	}
	return u, nil
}

func roleStrings(roles []model.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id identity.ID) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr(err, "user", id)
	}
	return u, nil
}

// GetByEmail retrieves a user by their unique, case-insensitive email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
	if err != nil {
		return nil, wrapErr(err, "user", 0)
	}
	return u, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(u.Email)
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, roles)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		u.Email, u.Name, u.PasswordHash, roleStrings(u.Roles),
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return wrapErr(err, "user", 0)
}

// UpsertByEmail creates the user or, when the email exists, replaces its
// name, password and roles.
func (r *UserRepository) UpsertByEmail(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(u.Email)
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, roles)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO UPDATE
		 SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash,
		     roles = EXCLUDED.roles, updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		u.Email, u.Name, u.PasswordHash, roleStrings(u.Roles),
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return wrapErr(err, "user", 0)
}

// ListPaginated retrieves users, optionally only those holding role.
func (r *UserRepository) ListPaginated(ctx context.Context, role *model.Role, search string, limit, page int) ([]model.User, int, error) {
	where := ` WHERE ($1::text IS NULL OR $1 = ANY(roles))
	           AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')`
	var roleArg *string
	if role != nil {
		s := string(*role)
		roleArg = &s
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, roleArg, search).Scan(&total); err != nil {
		return nil, 0, wrapErr(err, "users", 0)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users`+where+` ORDER BY name ASC, id ASC LIMIT $3 OFFSET $4`,
		roleArg, search, limit, offset(page, limit))
	if err != nil {
		return nil, 0, wrapErr(err, "users", 0)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, wrapErr(err, "users", 0)
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}
