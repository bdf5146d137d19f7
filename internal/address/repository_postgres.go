package address

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tabng/tab-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	addressColumns    = `id, user_id, type, first_name, last_name, address1, address2, city, state, postal_code, country, phone, is_default, created_at, updated_at`
	listByUserQuery   = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`
	getAddressQuery   = `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1`
	clearDefaultQuery = `
		UPDATE addresses SET is_default = FALSE, updated_at = now()
		WHERE user_id = $1 AND type = $2 AND is_default AND id <> $3
	`
	insertAddressQuery = `
		INSERT INTO addresses (id, user_id, type, first_name, last_name, address1, address2, city, state, postal_code, country, phone, is_default, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`
	updateAddressQuery = `
		UPDATE addresses
		SET type=$2, first_name=$3, last_name=$4, address1=$5, address2=$6, city=$7, state=$8,
		    postal_code=$9, country=$10, phone=$11, is_default=$12, updated_at=$13
		WHERE id=$1
	`
	deleteAddressQuery = `DELETE FROM addresses WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Address, error) {
	rows, err := r.db.QueryContext(ctx, listByUserQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	out := make([]Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx, getAddressQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Address{}, ErrNotFound
	}
	return a, err
}

func (r *PostgresRepository) Create(ctx context.Context, a Address) (Address, error) {
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		if a.IsDefault {
			if _, err := tx.ExecContext(ctx, clearDefaultQuery, a.UserID, a.Type, a.ID); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, insertAddressQuery, a.ID, a.UserID, a.Type, a.FirstName, a.LastName, a.Address1, a.Address2,
			a.City, a.State, a.PostalCode, a.Country, a.Phone, a.IsDefault, a.CreatedAt, a.UpdatedAt)
		return err
	})
	if err != nil {
		return Address{}, fmt.Errorf("create address: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Update(ctx context.Context, a Address) (Address, error) {
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		if a.IsDefault {
			if _, err := tx.ExecContext(ctx, clearDefaultQuery, a.UserID, a.Type, a.ID); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, updateAddressQuery, a.ID, a.Type, a.FirstName, a.LastName, a.Address1, a.Address2,
			a.City, a.State, a.PostalCode, a.Country, a.Phone, a.IsDefault, a.UpdatedAt)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Address{}, ErrNotFound
		}
		return Address{}, fmt.Errorf("update address: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteAddressQuery, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return fmt.Errorf("delete address: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAddress(row rowScanner) (Address, error) {
	var a Address
	err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.FirstName, &a.LastName, &a.Address1, &a.Address2,
		&a.City, &a.State, &a.PostalCode, &a.Country, &a.Phone, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
