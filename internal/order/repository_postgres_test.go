package order

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

func sampleOrder() Order {
	now := time.Now()
	variant := "v1"
	return Order{
		ID: "o1", UserID: "u1", Status: StatusPending, PaymentStatus: PaymentPending, PaymentMethod: "cod",
		Total: decimal.NewFromInt(1000), ShippingFee: ShippingFee, Tax: decimal.Zero, ShippingAddressID: "a1",
		Items: []Item{
			{ID: "i1", ProductID: "p1", Quantity: 1, Price: decimal.NewFromInt(500), ProductName: "Cap"},
			{ID: "i2", ProductID: "p2", VariantID: &variant, Quantity: 2, Price: decimal.NewFromInt(250), ProductName: "Fila",
				Variant: &VariantSummary{Size: sp("M"), Color: sp("Red")}},
		},
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestPostgresCreate_ConditionalDecrementRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_items").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE products SET inventory = inventory - \$2`).WithArgs("p1", 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_items").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE product_variants SET inventory = inventory - \$2`).WithArgs("v1", 2).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err = repo.Create(context.Background(), sampleOrder())
	if err == nil || !strings.Contains(err.Error(), "Not enough inventory for Fila (M Red)") {
		t.Fatalf("expected inventory error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCancel_RestoresStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET status = 'CANCELLED'").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE products SET inventory = inventory \+ \$2`).WithArgs("p1", 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE product_variants SET inventory = inventory \+ \$2`).WithArgs("v1", 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, err := repo.Cancel(context.Background(), sampleOrder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", o.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCancel_LostRaceIsRefused(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET status = 'CANCELLED'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if _, err := repo.Cancel(context.Background(), sampleOrder()); err != ErrNotCancellable {
		t.Fatalf("expected ErrNotCancellable, got %v", err)
	}
}
