package slider

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
	selectSlidersQuery = `
		SELECT id, title, subtitle, image_url, button_text, button_link, sort_order, is_active, created_at, updated_at
		FROM sliders
	`
	insertSliderQuery = `
		INSERT INTO sliders (id, title, subtitle, image_url, button_text, button_link, sort_order, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
	`
	updateSliderQuery = `
		UPDATE sliders
		SET title = $2, subtitle = $3, image_url = $4, button_text = $5, button_link = $6, sort_order = $7, is_active = $8, updated_at = $9
		WHERE id = $1
	`
	deleteSliderQuery = `DELETE FROM sliders WHERE id = $1`
	reorderQuery      = `UPDATE sliders SET sort_order = $2, updated_at = now() WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, activeOnly bool) ([]Slider, error) {
	q := selectSlidersQuery
	if activeOnly {
		q += " WHERE is_active"
	}
	q += " ORDER BY sort_order ASC, created_at ASC"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list sliders: %w", err)
	}
	defer rows.Close()

	out := make([]Slider, 0)
	for rows.Next() {
		s, err := scanSlider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Slider, error) {
	s, err := scanSlider(r.db.QueryRowContext(ctx, selectSlidersQuery+" WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return Slider{}, ErrNotFound
	}
	return s, err
}

func (r *PostgresRepository) Create(ctx context.Context, s Slider) (Slider, error) {
	if _, err := r.db.ExecContext(ctx, insertSliderQuery, s.ID, s.Title, s.Subtitle, s.ImageURL, s.ButtonText, s.ButtonLink, s.Order, s.IsActive, s.CreatedAt); err != nil {
		return Slider{}, fmt.Errorf("create slider: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Update(ctx context.Context, s Slider) (Slider, error) {
	res, err := r.db.ExecContext(ctx, updateSliderQuery, s.ID, s.Title, s.Subtitle, s.ImageURL, s.ButtonText, s.ButtonLink, s.Order, s.IsActive, s.UpdatedAt)
	if err != nil {
		return Slider{}, fmt.Errorf("update slider: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Slider{}, ErrNotFound
	}
	return s, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteSliderQuery, id)
	if err != nil {
		return fmt.Errorf("delete slider: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Reorder writes every position in one transaction; an unknown id rolls the
// whole batch back.
func (r *PostgresRepository) Reorder(ctx context.Context, positions []Position) error {
	return database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, p := range positions {
			res, err := tx.ExecContext(ctx, reorderQuery, p.ID, p.Order)
			if err != nil {
				return fmt.Errorf("reorder slider %s: %w", p.ID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return ErrNotFound
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlider(row rowScanner) (Slider, error) {
	var s Slider
	err := row.Scan(&s.ID, &s.Title, &s.Subtitle, &s.ImageURL, &s.ButtonText, &s.ButtonLink, &s.Order, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
