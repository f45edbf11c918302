package store

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

const seedCSV = `invoice_id,vendor,amount,date,status,category,department,payment_terms,approval_status
INV-2024-001,Cloud Services Inc,500.00,2024-05-10,Pending,IT,Engineering,Net 30,Pending
INV-2024-002,Marketing Pros,2500.00,2024-05-12,Paid,Marketing,Marketing,Net 30,Paid
`

func writeSeedCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoice_summary.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestSeedFromCSVInsertsRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM invoices`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO invoices").
		WithArgs("INV-2024-001", "Cloud Services Inc", 500.0, sqlmock.AnyArg(), nil,
			StatusPending, StatusPending, "IT", "Engineering", "Net 30", nil, 0.0, 0.0, 0.0, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO invoices").
		WithArgs("INV-2024-002", "Marketing Pros", 2500.0, sqlmock.AnyArg(), nil,
			StatusPaid, StatusPaid, "Marketing", "Marketing", "Net 30", nil, 0.0, 0.0, 0.0, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := st.SeedFromCSV(context.Background(), writeSeedCSV(t, seedCSV))
	if err != nil {
		t.Fatalf("SeedFromCSV: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 inserted, got %d", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSeedFromCSVSkipsWhenPopulated(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM invoices`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	n, err := st.SeedFromCSV(context.Background(), writeSeedCSV(t, seedCSV))
	if err != nil {
		t.Fatalf("SeedFromCSV: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no inserts against populated table, got %d", n)
	}
}

func TestSeedFromCSVRejectsMissingColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}

	// The empty-table check runs before header validation.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM invoices`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	path := writeSeedCSV(t, "vendor,amount\nCloud Services Inc,10\n")
	if _, err := st.SeedFromCSV(context.Background(), path); err == nil {
		t.Fatalf("expected missing column error")
	}
}
