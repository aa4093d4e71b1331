package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablevine/reservations/internal/domain"
)

type AdminRepo interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*domain.AdminUser, error)
}

type AdminRepoImpl struct{ pool *pgxpool.Pool }

func NewAdminRepo(pool *pgxpool.Pool) *AdminRepoImpl { return &AdminRepoImpl{pool: pool} }

func (r *AdminRepoImpl) IsAdmin(ctx context.Context, email string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM admin_users WHERE email = $1)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, strings.ToLower(email)).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *AdminRepoImpl) FindByEmail(ctx context.Context, email string) (*domain.AdminUser, error) {
	const q = `SELECT id, email, password_hash, created_at FROM admin_users WHERE email = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.AdminUser
	err := r.pool.QueryRow(ctx, q, strings.ToLower(email)).Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

var _ AdminRepo = (*AdminRepoImpl)(nil)
