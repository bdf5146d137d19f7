package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/tabng/tab-backend/internal/database"
	"github.com/tabng/tab-backend/internal/pagination"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	selectProductsQuery = `
		SELECT p.id, p.name, p.slug, p.description, p.price, p.sale_price, p.inventory, p.images,
		       p.featured, p.is_new, p.material, p.category_id, c.name, c.slug, p.created_at, p.updated_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
	`
	selectVariantsQuery = `
		SELECT id, product_id, size, color, material, style, sku, price, inventory, images
		FROM product_variants
		WHERE product_id = ANY($1::uuid[])
		ORDER BY created_at, id
	`
	selectReviewsQuery = `
		SELECT r.id, r.product_id, r.user_id, u.name, r.rating, r.title, r.comment, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC
	`
	insertProductQuery = `
		INSERT INTO products (id, name, slug, description, price, sale_price, inventory, images, featured, is_new, material, category_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`
	insertVariantQuery = `
		INSERT INTO product_variants (id, product_id, size, color, material, style, sku, price, inventory, images, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
	`
	updateProductQuery = `
		UPDATE products
		SET name = $2, slug = $3, description = $4, price = $5, sale_price = $6, inventory = $7,
		    images = $8, featured = $9, is_new = $10, material = $11, category_id = $12, updated_at = $13
		WHERE id = $1
	`
	deleteVariantsQuery = `DELETE FROM product_variants WHERE product_id = $1`
	deleteProductQuery  = `DELETE FROM products WHERE id = $1`
	insertReviewQuery   = `
		INSERT INTO reviews (id, product_id, user_id, rating, title, comment, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]Product, error) {
	where := make([]string, 0)
	args := make([]interface{}, 0)
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		where = append(where, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if f.Featured != nil {
		args = append(args, *f.Featured)
		where = append(where, fmt.Sprintf("p.featured = $%d", len(args)))
	}
	if f.IsNew != nil {
		args = append(args, *f.IsNew)
		where = append(where, fmt.Sprintf("p.is_new = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(p.name ILIKE $%[1]d OR p.description ILIKE $%[1]d)", len(args)))
	}
	if f.Cursor != "" {
		args = append(args, f.Cursor)
		where = append(where, pagination.Keyset("products", "p", len(args)))
	}

	q := selectProductsQuery
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit+1)
	q += fmt.Sprintf(" ORDER BY p.created_at DESC, p.id DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachVariants(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Product, error) {
	return r.getOne(ctx, selectProductsQuery+" WHERE p.id = $1", id)
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (Product, error) {
	return r.getOne(ctx, selectProductsQuery+" WHERE p.slug = $1", slug)
}

func (r *PostgresRepository) getOne(ctx context.Context, q string, arg string) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	list := []Product{p}
	if err := r.attachVariants(ctx, list); err != nil {
		return Product{}, err
	}
	p = list[0]
	p.Reviews, err = r.reviews(ctx, p.ID)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertProductQuery,
			p.ID, p.Name, p.Slug, p.Description, p.Price, nullDecimal(p.SalePrice), p.Inventory, pq.Array(p.Images),
			p.Featured, p.IsNew, p.Material, p.CategoryID, p.CreatedAt, p.UpdatedAt); err != nil {
			return err
		}
		return insertVariants(ctx, tx, p)
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Product{}, ErrSlugTaken
		}
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return r.GetByID(ctx, p.ID)
}

func (r *PostgresRepository) Update(ctx context.Context, p Product, replaceVariants bool) (Product, error) {
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, updateProductQuery,
			p.ID, p.Name, p.Slug, p.Description, p.Price, nullDecimal(p.SalePrice), p.Inventory, pq.Array(p.Images),
			p.Featured, p.IsNew, p.Material, p.CategoryID, p.UpdatedAt)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		if !replaceVariants {
			return nil
		}
		if _, err := tx.ExecContext(ctx, deleteVariantsQuery, p.ID); err != nil {
			return err
		}
		return insertVariants(ctx, tx, p)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Product{}, ErrNotFound
		}
		if database.IsUniqueViolation(err) {
			return Product{}, ErrSlugTaken
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return r.GetByID(ctx, p.ID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteProductQuery, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrHasOrders
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateReview(ctx context.Context, rv Review) (Review, error) {
	_, err := r.db.ExecContext(ctx, insertReviewQuery, rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Title, rv.Comment, rv.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return Review{}, ErrNotFound
		}
		return Review{}, fmt.Errorf("create review: %w", err)
	}
	return rv, nil
}

func (r *PostgresRepository) attachVariants(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
		products[i].Variants = make([]Variant, 0)
	}
	rows, err := r.db.QueryContext(ctx, selectVariantsQuery, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.Material, &v.Style, &v.SKU, &v.Price, &v.Inventory, pq.Array(&v.Images)); err != nil {
			return err
		}
		if i, ok := index[v.ProductID]; ok {
			products[i].Variants = append(products[i].Variants, v)
		}
	}
	return rows.Err()
}

func (r *PostgresRepository) reviews(ctx context.Context, productID string) ([]Review, error) {
	rows, err := r.db.QueryContext(ctx, selectReviewsQuery, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()
	out := make([]Review, 0)
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Title, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func insertVariants(ctx context.Context, tx *sql.Tx, p Product) error {
	for _, v := range p.Variants {
		if _, err := tx.ExecContext(ctx, insertVariantQuery,
			v.ID, p.ID, v.Size, v.Color, v.Material, v.Style, v.SKU, v.Price, v.Inventory, pq.Array(v.Images), p.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p    Product
		sale decimal.NullDecimal
		cat  CategoryRef
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &sale, &p.Inventory, pq.Array(&p.Images),
		&p.Featured, &p.IsNew, &p.Material, &p.CategoryID, &cat.Name, &cat.Slug, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	if sale.Valid {
		p.SalePrice = &sale.Decimal
	}
	cat.ID = p.CategoryID
	p.Category = &cat
	if p.Images == nil {
		p.Images = []string{}
	}
	return p, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
