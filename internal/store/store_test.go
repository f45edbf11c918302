package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestCountByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}

	query := regexp.QuoteMeta(`
SELECT COUNT(*), COALESCE(SUM(amount), 0)
FROM invoices
WHERE status = $1
`)
	mock.ExpectQuery(query).
		WithArgs(StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(3, 450.0))

	count, total, err := st.CountByStatus(context.Background(), StatusPending)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if count != 3 || total != 450.0 {
		t.Fatalf("expected 3/$450.00, got %d/%f", count, total)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSumByVendorOrdered(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}

	query := regexp.QuoteMeta(`
SELECT vendor, COALESCE(SUM(amount), 0) AS total
FROM invoices
GROUP BY vendor
ORDER BY total DESC
`)
	mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"vendor", "total"}).
		AddRow("Cloud Services Inc", 2500.0).
		AddRow("Office Supplies Co", 150.0))

	sums, err := st.SumByVendor(context.Background())
	if err != nil {
		t.Fatalf("SumByVendor: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(sums))
	}
	if sums[0].Key != "Cloud Services Inc" || sums[0].Total != 2500.0 {
		t.Fatalf("unexpected first group: %+v", sums[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListByStatusScansOptionals(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}

	issued := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "invoice_id", "vendor", "amount", "issue_date", "due_date", "status",
		"approval_status", "category", "department", "payment_terms", "po_number",
		"subtotal", "tax_rate", "tax_amount", "notes", "created_at"}

	rows := sqlmock.NewRows(cols).
		AddRow(1, "INV-2024-001", "Cloud Services Inc", 500.0, issued, due, StatusPending,
			StatusPending, "IT", "Engineering", "Net 30", "PO-991",
			462.96, 0.08, 37.04, "monthly subscription", issued).
		AddRow(2, "INV-2024-002", "Legal Associates", 1000.0, issued, nil, StatusPending,
			StatusPending, "Legal", "Legal", "Net 45", nil,
			925.93, 0.08, 74.07, nil, issued)

	mock.ExpectQuery("SELECT id, invoice_id, vendor, amount, issue_date, due_date").
		WithArgs(StatusPending, 10).
		WillReturnRows(rows)

	invs, err := st.ListByStatus(context.Background(), StatusPending, 10)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(invs) != 2 {
		t.Fatalf("expected 2 invoices, got %d", len(invs))
	}
	if invs[0].DueDate == nil || !invs[0].DueDate.Equal(due) {
		t.Fatalf("expected due date on first invoice")
	}
	if invs[1].DueDate != nil || invs[1].PONumber != nil || invs[1].Notes != nil {
		t.Fatalf("expected NULL optionals on second invoice: %+v", invs[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCountAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM invoices`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := st.CountAll(context.Background())
	if err != nil {
		t.Fatalf("CountAll: %v", err)
	}
	if count != 42 {
		t.Fatalf("expected 42, got %d", count)
	}
}
