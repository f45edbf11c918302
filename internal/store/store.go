package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
)

// Store exposes the invoice query shapes the audit core depends on.
// The query path is read-only; writes happen only through seeding.
type Store struct {
	DB *sql.DB
}

// Invoice lifecycle statuses.
const (
	StatusPending   = "Pending"
	StatusApproved  = "Approved"
	StatusRejected  = "Rejected"
	StatusPaid      = "Paid"
	StatusOverdue   = "Overdue"
	StatusOnHold    = "On Hold"
	StatusCancelled = "Cancelled"
)

// Invoice is a persisted invoice record. Optional fields are pointers so
// absent CSV columns survive a round trip as NULL.
type Invoice struct {
	ID           int64
	InvoiceID    string
	Vendor       string
	Amount       float64
	IssueDate    time.Time
	DueDate      *time.Time
	Status       string
	ApprovalStat string
	Category     string
	Department   string
	PaymentTerms string
	PONumber     *string
	Subtotal     float64
	TaxRate      float64
	TaxAmount    float64
	Notes        *string
	CreatedAt    time.Time
}

// GroupSum is one row of an amount aggregation.
type GroupSum struct {
	Key   string
	Total float64
}

func New(ctx context.Context) (*Store, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := getenvDefault("POSTGRES_HOST", "localhost")
		port := getenvDefault("POSTGRES_PORT", "5432")
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		db := os.Getenv("POSTGRES_DB")
		ssl := getenvDefault("POSTGRES_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
	}
	return NewWithDSN(ctx, dsn)
}

// NewWithDSN constructs the Store using an explicit Postgres DSN
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// CountByStatus returns the number of invoices in the given lifecycle
// status and their total amount.
func (s *Store) CountByStatus(ctx context.Context, status string) (int, float64, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(amount), 0)
FROM invoices
WHERE status = $1
`, status)
	var count int
	var total float64
	if err := row.Scan(&count, &total); err != nil {
		return 0, 0, err
	}
	return count, total, nil
}

// CountByApprovalStatus mirrors CountByStatus over the approval column.
func (s *Store) CountByApprovalStatus(ctx context.Context, status string) (int, float64, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(amount), 0)
FROM invoices
WHERE approval_status = $1
`, status)
	var count int
	var total float64
	if err := row.Scan(&count, &total); err != nil {
		return 0, 0, err
	}
	return count, total, nil
}

// CountAll returns the unfiltered invoice count.
func (s *Store) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// SumByCategory returns amounts grouped by category, descending by sum.
func (s *Store) SumByCategory(ctx context.Context) ([]GroupSum, error) {
	return s.sumBy(ctx, "category")
}

// SumByDepartment returns amounts grouped by department, descending by sum.
func (s *Store) SumByDepartment(ctx context.Context) ([]GroupSum, error) {
	return s.sumBy(ctx, "department")
}

// SumByVendor returns amounts grouped by vendor, descending by sum.
func (s *Store) SumByVendor(ctx context.Context) ([]GroupSum, error) {
	return s.sumBy(ctx, "vendor")
}

func (s *Store) sumBy(ctx context.Context, column string) ([]GroupSum, error) {
	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
SELECT %s, COALESCE(SUM(amount), 0) AS total
FROM invoices
GROUP BY %s
ORDER BY total DESC
`, column, column))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GroupSum
	for rows.Next() {
		var g GroupSum
		if err := rows.Scan(&g.Key, &g.Total); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ListByStatus returns up to limit invoices in the given lifecycle status,
// most recent first.
func (s *Store) ListByStatus(ctx context.Context, status string, limit int) ([]Invoice, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, invoice_id, vendor, amount, issue_date, due_date, status, approval_status,
       category, department, payment_terms, po_number, subtotal, tax_rate, tax_amount, notes, created_at
FROM invoices
WHERE status = $1
ORDER BY issue_date DESC
LIMIT $2
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvoices(rows)
}

// ListByApprovalStatus mirrors ListByStatus over the approval column.
func (s *Store) ListByApprovalStatus(ctx context.Context, status string, limit int) ([]Invoice, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, invoice_id, vendor, amount, issue_date, due_date, status, approval_status,
       category, department, payment_terms, po_number, subtotal, tax_rate, tax_amount, notes, created_at
FROM invoices
WHERE approval_status = $1
ORDER BY issue_date DESC
LIMIT $2
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvoices(rows)
}

// ListRecent returns the most recent invoices, unfiltered.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Invoice, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, invoice_id, vendor, amount, issue_date, due_date, status, approval_status,
       category, department, payment_terms, po_number, subtotal, tax_rate, tax_amount, notes, created_at
FROM invoices
ORDER BY issue_date DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvoices(rows)
}

// InsertInvoice persists one invoice record.
func (s *Store) InsertInvoice(ctx context.Context, inv Invoice) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO invoices (invoice_id, vendor, amount, issue_date, due_date, status, approval_status,
                      category, department, payment_terms, po_number, subtotal, tax_rate, tax_amount, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (invoice_id) DO NOTHING
`, inv.InvoiceID, inv.Vendor, inv.Amount, inv.IssueDate, nullableTime(inv.DueDate),
		inv.Status, inv.ApprovalStat, inv.Category, inv.Department, inv.PaymentTerms,
		nullableStringPtr(inv.PONumber), inv.Subtotal, inv.TaxRate, inv.TaxAmount, nullableStringPtr(inv.Notes))
	return err
}

func scanInvoices(rows *sql.Rows) ([]Invoice, error) {
	var out []Invoice
	for rows.Next() {
		var inv Invoice
		var due sql.NullTime
		var po sql.NullString
		var notes sql.NullString
		if err := rows.Scan(&inv.ID, &inv.InvoiceID, &inv.Vendor, &inv.Amount, &inv.IssueDate, &due,
			&inv.Status, &inv.ApprovalStat, &inv.Category, &inv.Department, &inv.PaymentTerms,
			&po, &inv.Subtotal, &inv.TaxRate, &inv.TaxAmount, &notes, &inv.CreatedAt); err != nil {
			return nil, err
		}
		if due.Valid {
			t := due.Time
			inv.DueDate = &t
		}
		if po.Valid {
			v := po.String
			inv.PONumber = &v
		}
		if notes.Valid {
			v := notes.String
			inv.Notes = &v
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func nullableStringPtr(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
