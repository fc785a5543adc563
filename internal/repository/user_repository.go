package repository

import (
	"context"
	"fmt"

	"github.com/avoroshilov/lessonbook/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = "id, telegram_id, role, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(username, ''), COALESCE(phone, ''), COALESCE(email, ''), is_verified, created_at"

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.TelegramID,
		&u.Role,
		&u.FirstName,
		&u.LastName,
		&u.Username,
		&u.Phone,
		&u.Email,
		&u.IsVerified,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (telegram_id, role, first_name, last_name, username, phone, email, is_verified)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		user.TelegramID,
		user.Role,
		user.FirstName,
		user.LastName,
		user.Username,
		user.Phone,
		user.Email,
		user.IsVerified,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID returns a user or nil when absent.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

// GetByTelegramID returns a user by telegram id or nil when absent.
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, telegramID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}

	return user, nil
}

// Update persists mutable user fields.
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET role = $1,
		    first_name = NULLIF($2, ''),
		    last_name = NULLIF($3, ''),
		    username = NULLIF($4, ''),
		    phone = NULLIF($5, ''),
		    email = NULLIF($6, ''),
		    is_verified = $7
		WHERE id = $8
	`

	result, err := r.pool.Exec(
		ctx, query,
		user.Role,
		user.FirstName,
		user.LastName,
		user.Username,
		user.Phone,
		user.Email,
		user.IsVerified,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

// UserFilter narrows List; zero values mean "no filter".
type UserFilter struct {
	Role  model.UserRole
	Query string
}

// List returns a page of users plus the filtered total.
func (r *UserRepository) List(ctx context.Context, filter UserFilter, limit, offset int) ([]*model.User, int64, error) {
	where := ` WHERE TRUE`
	args := []any{}

	if filter.Role != "" {
		args = append(args, filter.Role)
		where += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		where += fmt.Sprintf(
			" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR username ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)",
			n, n, n, n, n,
		)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	args = append(args, limit, offset)
	query := `SELECT ` + userColumns + ` FROM users` + where +
		fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, total, nil
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}
