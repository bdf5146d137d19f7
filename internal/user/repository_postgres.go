package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tabng/tab-backend/internal/database"
	"github.com/tabng/tab-backend/internal/pagination"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	userColumns     = `u.id, u.name, u.email, u.password, u.image, u.role, u.created_at, u.updated_at`
	listUsersQuery  = `SELECT ` + userColumns + `, (SELECT COUNT(*) FROM orders o WHERE o.user_id = u.id) FROM users u`
	getUserByID     = `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	getUserByEmail  = `SELECT ` + userColumns + ` FROM users u WHERE lower(u.email) = lower($1)`
	insertUserQuery = `
		INSERT INTO users (id, name, email, password, image, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	updateUserQuery = `
		UPDATE users
		SET name = $2, email = $3, password = $4, image = $5, role = $6, updated_at = $7
		WHERE id = $1
	`
	deleteUserQuery = `DELETE FROM users WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]User, error) {
	where := make([]string, 0)
	args := make([]any, 0)
	if f.Role != nil {
		args = append(args, string(*f.Role))
		where = append(where, fmt.Sprintf("u.role = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(u.name ILIKE $%[1]d OR u.email ILIKE $%[1]d)", len(args)))
	}
	if f.Cursor != "" {
		args = append(args, f.Cursor)
		where = append(where, pagination.Keyset("users", "u", len(args)))
	}
	q := listUsersQuery
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit+1)
	q += fmt.Sprintf(" ORDER BY u.created_at DESC, u.id DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var (
			u     User
			pw    sql.NullString
			count int
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &pw, &u.Image, &u.Role, &u.CreatedAt, &u.UpdatedAt, &count); err != nil {
			return nil, err
		}
		u.OrderCount = &count
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (User, error) {
	return r.one(ctx, getUserByID, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.one(ctx, getUserByEmail, email)
}

func (r *PostgresRepository) one(ctx context.Context, q, arg string) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *PostgresRepository) Create(ctx context.Context, u User) (User, error) {
	_, err := r.db.ExecContext(ctx, insertUserQuery, u.ID, u.Name, u.Email, u.Password, u.Image, string(u.Role), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return User{}, ErrEmailExists
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Update(ctx context.Context, u User) (User, error) {
	res, err := r.db.ExecContext(ctx, updateUserQuery, u.ID, u.Name, u.Email, u.Password, u.Image, string(u.Role), u.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return User{}, ErrEmailExists
		}
		return User{}, fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteUserQuery, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row rowScanner) (User, error) {
	var (
		u  User
		pw sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &pw, &u.Image, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	u.Password = pw.String
	return u, nil
}
