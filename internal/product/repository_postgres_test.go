package product

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

var productColumns = []string{"id", "name", "slug", "description", "price", "sale_price", "inventory", "images", "featured", "is_new", "material", "category_id", "c_name", "c_slug", "created_at", "updated_at"}

func TestPostgresGetByID_LoadsVariantsAndReviews(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)
	now := time.Now()

	mock.ExpectQuery("FROM products p").WithArgs("p1").WillReturnRows(
		sqlmock.NewRows(productColumns).
			AddRow("p1", "Adire Kaftan", "adire-kaftan", "Indigo", "45000", "38000", 4, "{/a.jpg,/b.jpg}", true, false, nil, "c1", "Kaftans", "kaftans", now, now))
	mock.ExpectQuery("FROM product_variants").WillReturnRows(
		sqlmock.NewRows([]string{"id", "product_id", "size", "color", "material", "style", "sku", "price", "inventory", "images"}).
			AddRow("v1", "p1", "M", nil, nil, nil, "KAF-M", "45000", 2, "{}"))
	mock.ExpectQuery("FROM reviews r").WithArgs("p1").WillReturnRows(
		sqlmock.NewRows([]string{"id", "product_id", "user_id", "name", "rating", "title", "comment", "created_at"}).
			AddRow("r1", "p1", "u1", "Ada", 5, "Great", nil, now))

	p, err := repo.GetByID(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.SalePrice == nil || !p.SalePrice.Equal(decimal.NewFromInt(38000)) {
		t.Fatalf("unexpected sale price %v", p.SalePrice)
	}
	if len(p.Images) != 2 || p.Category == nil || p.Category.Slug != "kaftans" {
		t.Fatalf("unexpected product %+v", p)
	}
	if len(p.Variants) != 1 || p.Variants[0].SKU != "KAF-M" {
		t.Fatalf("unexpected variants %+v", p.Variants)
	}
	if len(p.Reviews) != 1 || *p.Reviews[0].UserName != "Ada" {
		t.Fatalf("unexpected reviews %+v", p.Reviews)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("FROM products p").WithArgs("nope").WillReturnRows(sqlmock.NewRows(productColumns))

	if _, err := repo.GetByID(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresList_BuildsFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)
	featured := true

	mock.ExpectQuery(`WHERE p.category_id = \$1 AND p.featured = \$2 AND \(p.name ILIKE \$3 OR p.description ILIKE \$3\) AND .*FROM products c WHERE c.id = \$4.* LIMIT \$5`).
		WithArgs("c1", true, "%kaftan%", "p9", 11).
		WillReturnRows(sqlmock.NewRows(productColumns))

	out, err := repo.List(context.Background(), ListFilter{Limit: 10, CategoryID: "c1", Featured: &featured, Search: "kaftan", Cursor: "p9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty list, got %d", len(out))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresDelete_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("DELETE FROM products").WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Delete(context.Background(), "p1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
