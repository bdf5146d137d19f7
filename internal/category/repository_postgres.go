package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/tabng/tab-backend/internal/database"
)

// PostgresRepository implements Repository using Postgres.
type PostgresRepository struct {
	db *sql.DB
}

const (
	categoryColumns     = `id, name, slug, description, image, parent_id, created_at, updated_at`
	listRootsQuery      = `SELECT ` + categoryColumns + ` FROM categories WHERE parent_id IS NULL ORDER BY name ASC`
	listByParentQuery   = `SELECT ` + categoryColumns + ` FROM categories WHERE parent_id = $1 ORDER BY name ASC`
	listChildrenQuery   = `SELECT ` + categoryColumns + ` FROM categories WHERE parent_id = ANY($1::uuid[]) ORDER BY name ASC`
	getByIDQuery        = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	getBySlugQuery      = `SELECT ` + categoryColumns + ` FROM categories WHERE slug = $1`
	insertCategoryQuery = `
		INSERT INTO categories (id, name, slug, description, image, parent_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`
	updateCategoryQuery = `
		UPDATE categories
		SET name = $2, slug = $3, description = $4, image = $5, parent_id = $6, updated_at = $7
		WHERE id = $1
	`
	deleteCategoryQuery     = `DELETE FROM categories WHERE id = $1`
	countProductsQuery      = `SELECT COUNT(*) FROM products WHERE category_id = $1`
	countSubcategoriesQuery = `SELECT COUNT(*) FROM categories WHERE parent_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, parentID *string) ([]Category, error) {
	if parentID == nil {
		return r.query(ctx, listRootsQuery)
	}
	return r.query(ctx, listByParentQuery, *parentID)
}

func (r *PostgresRepository) ListChildren(ctx context.Context, parentIDs []string) ([]Category, error) {
	if len(parentIDs) == 0 {
		return []Category{}, nil
	}
	return r.query(ctx, listChildrenQuery, pq.Array(parentIDs))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Category, error) {
	return r.one(ctx, getByIDQuery, id)
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (Category, error) {
	return r.one(ctx, getBySlugQuery, slug)
}

func (r *PostgresRepository) Create(ctx context.Context, c Category) (Category, error) {
	_, err := r.db.ExecContext(ctx, insertCategoryQuery, c.ID, c.Name, c.Slug, c.Description, c.Image, c.ParentID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Category{}, ErrSlugTaken
		}
		if database.IsForeignKeyViolation(err) {
			return Category{}, ErrParentNotFound
		}
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Update(ctx context.Context, c Category) (Category, error) {
	res, err := r.db.ExecContext(ctx, updateCategoryQuery, c.ID, c.Name, c.Slug, c.Description, c.Image, c.ParentID, c.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Category{}, ErrSlugTaken
		}
		if database.IsForeignKeyViolation(err) {
			return Category{}, ErrParentNotFound
		}
		return Category{}, fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteCategoryQuery, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) CountProducts(ctx context.Context, id string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countProductsQuery, id).Scan(&n)
	return n, err
}

func (r *PostgresRepository) CountSubcategories(ctx context.Context, id string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countSubcategoriesQuery, id).Scan(&n)
	return n, err
}

func (r *PostgresRepository) query(ctx context.Context, q string, args ...interface{}) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &c.ParentID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) one(ctx context.Context, q string, arg string) (Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx, q, arg).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &c.ParentID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, err
	}
	return c, nil
}
