package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"notification-hub/internal/domain"
	"notification-hub/internal/domain/model"
	"notification-hub/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, username, daily_limit, is_admin, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET
  username=$2, daily_limit=$3, is_admin=$4;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, u.ID, u.Username, u.DailyLimit, u.IsAdmin, u.CreatedAt)
	return err
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	const q = `
SELECT id, username, daily_limit, is_admin, created_at
  FROM users WHERE id=$1;`
	return r.scanOne(ctx, tx, q, id)
}

func (r *PostgresUserRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.User, error) {
	const q = `
SELECT id, username, daily_limit, is_admin, created_at
  FROM users WHERE username=$1;`
	return r.scanOne(ctx, tx, q, username)
}

func (r *PostgresUserRepo) List(ctx context.Context, tx repository.Tx) ([]*model.User, error) {
	const q = `
SELECT id, username, daily_limit, is_admin, created_at
  FROM users ORDER BY username;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.DailyLimit, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

func (r *PostgresUserRepo) UpdateDailyLimit(ctx context.Context, tx repository.Tx, id string, limit int) error {
	if limit < 0 {
		return domain.ErrInvalidArgument
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `UPDATE users SET daily_limit=$2 WHERE id=$1;`, id, limit)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) scanOne(ctx context.Context, tx repository.Tx, q string, arg any) (*model.User, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := ex.QueryRow(ctx, q, arg).Scan(&u.ID, &u.Username, &u.DailyLimit, &u.IsAdmin, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
